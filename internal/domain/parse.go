package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyDuration   = errors.New("empty duration")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrTooSmall        = errors.New("duration too small")
	ErrTooLarge        = errors.New("duration too large")
	ErrInvalidDate     = errors.New("invalid date")
)

var (
	hoursRe   = regexp.MustCompile(`(?i)(\d+)\s*h`)
	minutesRe = regexp.MustCompile(`(?i)(\d+)\s*m`)
)

// DiaryDateLayout is the dd/MM/yyyy layout dream dates are stored in.
const DiaryDateLayout = "02/01/2006"

// Accepted cycle lengths.
const (
	MinCycleLength = 10 * time.Minute
	MaxCycleLength = 6 * time.Hour
)

// ParseCycleHuman reads a cycle length written as "90m", "1h30m", "2h" or bare
// minutes ("90"). It must be between 10m and 6h.
func ParseCycleHuman(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	var d time.Duration
	switch {
	case s == "":
		return 0, ErrEmptyDuration
	case isAllDigits(s):
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
		}
		d = time.Duration(n) * time.Minute
	default:
		h, m := hoursRe.FindStringSubmatch(s), minutesRe.FindStringSubmatch(s)
		if h == nil && m == nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
		}
		if h != nil {
			n, _ := strconv.Atoi(h[1])
			d += time.Duration(n) * time.Hour
		}
		if m != nil {
			n, _ := strconv.Atoi(m[1])
			d += time.Duration(n) * time.Minute
		}
	}

	switch {
	case d < MinCycleLength:
		return 0, fmt.Errorf("%w: min %s", ErrTooSmall, MinCycleLength)
	case d > MaxCycleLength:
		return 0, fmt.Errorf("%w: max %s", ErrTooLarge, MaxCycleLength)
	}
	return d, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseHHMM parses "HH:MM" into hour and minute.
func ParseHHMM(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, errors.New("expected HH:MM")
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.New("invalid hour")
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.New("invalid minute")
	}
	return hour, minute, nil
}

// FormatDateDigits turns exactly eight digits (ddMMyyyy, separators ignored)
// into dd/MM/yyyy. Anything else is returned unchanged.
func FormatDateDigits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 8 {
		return input
	}
	return digits[0:2] + "/" + digits[2:4] + "/" + digits[4:8]
}

// ParseDiaryDate normalizes and validates a dream date, returning it as dd/MM/yyyy.
func ParseDiaryDate(input string) (string, error) {
	s := FormatDateDigits(strings.TrimSpace(input))
	if _, err := time.Parse(DiaryDateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}
	return s, nil
}

// ValidateTZ returns the canonical name of an IANA zone, or an error if tz is unknown.
func ValidateTZ(tz string) (string, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(tz))
	if err != nil {
		return "", fmt.Errorf("unknown time zone %q: %w", tz, err)
	}
	return loc.String(), nil
}

// LoadLocation resolves tz, falling back to UTC.
func LoadLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
