package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TargetHour is a wall-clock time of day without a date.
type TargetHour struct {
	Hour   int
	Minute int
	Second int
}

// DefaultTipHour is when the daily sleep tip goes out.
var DefaultTipHour = TargetHour{Hour: 22}

// String renders HH:MM:SS.
func (t TargetHour) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Valid reports whether all components are within a day.
func (t TargetHour) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 &&
		t.Minute >= 0 && t.Minute <= 59 &&
		t.Second >= 0 && t.Second <= 59
}

// On returns the instant of t on the calendar day of ref, in ref's location.
func (t TargetHour) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, t.Second, 0, ref.Location())
}

// DelayUntilNext returns the time left until the next occurrence of at.
// Today's occurrence counts only if it is strictly after now, so a call made
// exactly on the target returns a full day.
func DelayUntilNext(now time.Time, at TargetHour) time.Duration {
	candidate := at.On(now)
	if !candidate.After(now) {
		candidate = candidate.Add(dayLength)
	}
	return candidate.Sub(now)
}

// ParseTargetHour parses "HH:MM" or "HH:MM:SS".
func ParseTargetHour(s string) (TargetHour, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TargetHour{}, fmt.Errorf("%w: expected HH:MM[:SS], got %q", ErrInvalidArgument, s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return TargetHour{}, fmt.Errorf("%w: %q is not a number", ErrInvalidArgument, p)
		}
		nums[i] = n
	}
	th := TargetHour{Hour: nums[0], Minute: nums[1], Second: nums[2]}
	if !th.Valid() {
		return TargetHour{}, fmt.Errorf("%w: time of day %q out of range", ErrInvalidArgument, s)
	}
	return th, nil
}

// Decode lets envconfig read a TargetHour from the environment.
func (t *TargetHour) Decode(value string) error {
	th, err := ParseTargetHour(value)
	if err != nil {
		return err
	}
	*t = th
	return nil
}
