package domain

import "fmt"

// ParseClock parses an "HH:MM" string into minutes since midnight.
func ParseClock(hhmm string) (int, error) {
	var h, m int
	n, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	if err != nil || n != 2 {
		return 0, fmt.Errorf("invalid HH:MM clock value %q", hhmm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid HH:MM clock value %q", hhmm)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes-since-midnight as "HH:MM".
func FormatClock(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}
