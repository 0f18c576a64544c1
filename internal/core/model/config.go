package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Defaults seeds an empty or unreadable timer collection.
type Defaults struct {
	Label    string
	Duration time.Duration
}

// DefaultTimer is the single countdown used when no saved timers are usable.
var DefaultTimer = Defaults{
	Label:    "Timer 1",
	Duration: 300 * time.Second,
}

// FormatClock renders a duration as MM:SS, or HH:MM:SS from one hour up.
// Fractional seconds are rounded up for countdowns so 0.4s still shows 00:01.
func FormatClock(value time.Duration, roundUp bool) string {
	if value < 0 {
		value = 0
	}
	seconds := int64(value / time.Second)
	if roundUp && value%time.Second != 0 {
		seconds++
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	seconds = seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// ParseDuration reads user input as whole seconds ("90"), a clock ("1:30",
// "1:00:00") or a Go duration ("25m", "1h30m").
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDuration)
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if strings.Contains(value, ":") {
		return parseClock(value)
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}
	return parsed, nil
}

func parseClock(value string) (time.Duration, error) {
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}
	var total int
	for index, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil || number < 0 || (index > 0 && number > 59) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
		}
		total = total*60 + number
	}
	return time.Duration(total) * time.Second, nil
}
