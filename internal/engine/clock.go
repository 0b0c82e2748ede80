package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Minutes is a clock time expressed as minutes since midnight.
type Minutes int

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
// Seconds are accepted for compatibility with stored section times and
// truncated.
func ParseClock(raw string) (Minutes, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return Minutes(hour*60 + minute), nil
}

// String renders the time as "HH:MM".
func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Clock renders the time as "HH:MM:SS" to match the persisted payload shape.
func (m Minutes) Clock() string {
	return fmt.Sprintf("%02d:%02d:00", int(m)/60, int(m)%60)
}
