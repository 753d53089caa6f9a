package frame

import (
	"fmt"
	"time"
)

// LoadZone resolves a time zone name. Besides IANA names it accepts the
// fixed offsets Arrow writers record, such as "+05:30" or "-08:00". The
// empty name is UTC.
func LoadZone(tz string) (*time.Location, error) {
	switch tz {
	case "", "UTC":
		return time.UTC, nil
	case "Local":
		return nil, fmt.Errorf("time zone %q is machine dependent", tz)
	}
	if off, ok := parseOffset(tz); ok {
		return time.FixedZone(tz, off), nil
	}
	return time.LoadLocation(tz)
}

// FormatOffset renders a UTC offset in seconds as "+HH:MM".
func FormatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign, seconds = '-', -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, seconds/60%60)
}

func parseOffset(tz string) (int, bool) {
	if len(tz) != 6 || (tz[0] != '+' && tz[0] != '-') || tz[3] != ':' {
		return 0, false
	}
	digits := [4]byte{tz[1], tz[2], tz[4], tz[5]}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	h := int(digits[0]-'0')*10 + int(digits[1]-'0')
	m := int(digits[2]-'0')*10 + int(digits[3]-'0')
	if h > 23 || m > 59 {
		return 0, false
	}
	off := (h*60 + m) * 60
	if tz[0] == '-' {
		off = -off
	}
	return off, true
}
