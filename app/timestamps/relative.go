package timestamps

import (
	"strconv"
	"strings"
	"time"
)

var unitDurations = map[string]time.Duration{
	"ns": time.Nanosecond, "nanosecond": time.Nanosecond, "nanoseconds": time.Nanosecond,
	"us": time.Microsecond, "microsecond": time.Microsecond, "microseconds": time.Microsecond,
	"ms": time.Millisecond, "millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "wk": 7 * 24 * time.Hour, "wks": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// ParseDuration reads the duration forms found in exported data:
//
//	1h30m              Go duration syntax
//	01:30:00[.5]       clock form
//	2 days 01:30:00    day count plus clock
//	90 min, 3 days     count plus unit word
//
// Bare numbers are not durations.
func ParseDuration(s string) (time.Duration, bool) {
	ss := strings.ToLower(strings.TrimSpace(s))
	if ss == "" {
		return 0, false
	}
	if _, err := strconv.ParseFloat(ss, 64); err == nil {
		return 0, false
	}

	neg := false
	body := ss
	if strings.HasPrefix(body, "-") {
		neg = true
		body = strings.TrimSpace(body[1:])
	} else if strings.HasPrefix(body, "+") {
		body = strings.TrimSpace(body[1:])
	}

	d, ok := parseDurationBody(body)
	if !ok {
		return 0, false
	}
	if neg {
		d = -d
	}
	return d, true
}

func parseDurationBody(s string) (time.Duration, bool) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	if d, ok := parseClock(s); ok {
		return d, true
	}

	parts := strings.Fields(s)
	switch len(parts) {
	case 1:
		// "90min", "3d"
		for i, r := range s {
			if (r < '0' || r > '9') && r != '.' {
				if i == 0 {
					return 0, false
				}
				return countTimesUnit(s[:i], s[i:])
			}
		}
		return 0, false
	case 2:
		return countTimesUnit(parts[0], parts[1])
	case 3:
		// "2 days 01:30:00"
		if parts[1] != "day" && parts[1] != "days" {
			return 0, false
		}
		days, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || days < 0 {
			return 0, false
		}
		clock, ok := parseClock(parts[2])
		if !ok {
			return 0, false
		}
		return time.Duration(days)*24*time.Hour + clock, true
	}
	return 0, false
}

func countTimesUnit(num, unit string) (time.Duration, bool) {
	scale, ok := unitDurations[strings.TrimSpace(unit)]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n * float64(scale)), true
}

// parseClock reads HH:MM:SS with an optional fractional second.
func parseClock(s string) (time.Duration, bool) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return 0, false
	}
	h, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || h < 0 {
		return 0, false
	}
	m, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || m < 0 || m > 59 || len(fields[1]) != 2 {
		return 0, false
	}
	secField := fields[2]
	if len(secField) < 2 || secField[0] < '0' || secField[0] > '9' {
		return 0, false
	}
	sec, err := strconv.ParseFloat(secField, 64)
	if err != nil || sec < 0 || sec >= 60 {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec*float64(time.Second)), true
}
