package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidArgument is returned when an input cannot produce a meaningful result.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	// DefaultCycleLength is the length of one sleep cycle.
	DefaultCycleLength = 90 * time.Minute
	// DefaultSuggestionLimit bounds how many wake times are offered.
	DefaultSuggestionLimit = 4
	// MaxSuggestions caps the result when no limit is given.
	MaxSuggestions = 1024
	// dayLength is a fixed 24h step, not a calendar day (no DST correction).
	dayLength = 24 * time.Hour
)

// maxSpan is where time.Time.Sub saturates.
const maxSpan = time.Duration(math.MaxInt64)

// SuggestWakeTimes returns candidate alarm times spaced exactly one cycle apart,
// starting one cycle after now and ending at the first boundary past target.
// A target earlier than now refers to the same wall-clock time tomorrow.
// Only the last limit candidates are kept, ascending; limit <= 0 keeps up to
// MaxSuggestions. Spans too long for a time.Duration fail with ErrInvalidArgument.
func SuggestWakeTimes(now, target time.Time, cycle time.Duration, limit int) ([]time.Time, error) {
	if cycle <= 0 {
		return nil, fmt.Errorf("%w: cycle length must be positive, got %s", ErrInvalidArgument, cycle)
	}
	if target.Before(now) {
		target = target.Add(dayLength)
	}
	if target.Before(now) {
		// Still in the past after the day shift: no boundary fits.
		return []time.Time{}, nil
	}
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}

	span := target.Sub(now)
	if span == maxSpan {
		return nil, fmt.Errorf("%w: %s to %s is out of range", ErrInvalidArgument, now, target)
	}

	// Candidate k (k >= 1) is now+k*cycle and exists while now+(k-1)*cycle <= target,
	// so the last one is k = span/cycle + 1.
	last := span / cycle
	if last > (maxSpan-cycle)/cycle {
		return nil, fmt.Errorf("%w: %s to %s is out of range for cycle %s", ErrInvalidArgument, now, target, cycle)
	}
	last++
	first := time.Duration(1)
	if last > time.Duration(limit) {
		first = last - time.Duration(limit) + 1
	}

	out := make([]time.Time, 0, int(last-first+1))
	for k := first; k <= last; k++ {
		out = append(out, now.Add(k*cycle))
	}
	return out, nil
}

// ClockTarget combines a picked hour and minute with now's calendar date,
// in now's location, with seconds zeroed.
func ClockTarget(now time.Time, hour, minute int) (time.Time, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: time of day %02d:%02d", ErrInvalidArgument, hour, minute)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()), nil
}
