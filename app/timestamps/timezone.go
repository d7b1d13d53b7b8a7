package timestamps

import (
	"fmt"
	"strings"
	"time"
)

// LocationForTZ resolves a timezone name to a *time.Location. Supports
// "Local", "UTC" and IANA names; an empty name means UTC.
func LocationForTZ(name string) (*time.Location, error) {
	tzName := strings.TrimSpace(name)
	switch strings.ToUpper(tzName) {
	case "", "UTC":
		return time.UTC, nil
	case "LOCAL":
		return time.Local, nil
	default:
		l, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", tzName, err)
		}
		return l, nil
	}
}

