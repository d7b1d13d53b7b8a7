// Package timestamps holds the date-time layout table and the duration
// parser used by type inference.
package timestamps

import (
	"strconv"
	"strings"
	"time"
)

// Layout is one entry of the date-time layout table
type Layout struct {
	Name    string
	Pattern string
	// Zoned layouts carry their own offset or zone; the rest are read in the
	// ingest location.
	Zoned bool
}

// layouts is tried in order. Layouts with explicit zone information come
// first, followed by ISO-like local forms and then regional forms.
var layouts = []Layout{
	{Name: "RFC3339", Pattern: time.RFC3339, Zoned: true},
	{Name: "RFC3339Nano", Pattern: time.RFC3339Nano, Zoned: true},
	{Name: "iso_space_offset", Pattern: "2006-01-02 15:04:05Z07:00", Zoned: true},
	{Name: "iso_space_frac_offset", Pattern: "2006-01-02 15:04:05.999999999Z07:00", Zoned: true},
	{Name: "iso_t_frac_zone", Pattern: "2006-01-02T15:04:05.999999999 MST", Zoned: true},
	{Name: "iso_space_frac_zone", Pattern: "2006-01-02 15:04:05.999999999 MST", Zoned: true},
	{Name: "iso_space_zone", Pattern: "2006-01-02 15:04:05 MST", Zoned: true},
	{Name: "RFC1123Z", Pattern: time.RFC1123Z, Zoned: true},
	{Name: "RFC1123", Pattern: time.RFC1123, Zoned: true},

	{Name: "iso_t_frac", Pattern: "2006-01-02T15:04:05.999999999"},
	{Name: "iso_space_frac", Pattern: "2006-01-02 15:04:05.999999999"},
	{Name: "iso_t", Pattern: "2006-01-02T15:04:05"},
	{Name: "iso_t_minutes", Pattern: "2006-01-02T15:04"},
	{Name: "iso_space", Pattern: "2006-01-02 15:04:05"},
	{Name: "iso_space_minutes", Pattern: "2006-01-02 15:04"},
	{Name: "iso_date", Pattern: "2006-01-02"},
	{Name: "slash_ymd", Pattern: "2006/01/02"},
	{Name: "slash_ymd_time", Pattern: "2006/01/02 15:04:05"},

	{Name: "us_date", Pattern: "1/2/2006"},
	{Name: "us_date_minutes", Pattern: "1/2/2006 15:04"},
	{Name: "us_date_time", Pattern: "1/2/2006 15:04:05"},
	{Name: "us_date_ampm", Pattern: "1/2/2006 3:04 PM"},
	{Name: "dash_mdy", Pattern: "01-02-2006"},
	{Name: "day_first_ampm", Pattern: "2/1/2006 3:04pm"},
	{Name: "day_first_ampm_space", Pattern: "2/1/2006 3:04 pm"},
	{Name: "dotted_dmy", Pattern: "02.01.2006"},

	{Name: "month_day_year", Pattern: "Jan 2, 2006"},
	{Name: "long_month_day_year", Pattern: "January 2, 2006"},
	{Name: "day_month_year", Pattern: "2 Jan 2006"},
	{Name: "long_day_month_year", Pattern: "2 January 2006"},
	{Name: "dash_day_month_year", Pattern: "02-Jan-2006"},
}

// Parse reads s with this layout. Zone-less layouts use loc (UTC when nil).
func (l Layout) Parse(s string, loc *time.Location) (time.Time, bool) {
	ss := strings.TrimSpace(s)
	if ss == "" || isInteger(ss) {
		return time.Time{}, false
	}
	var (
		t   time.Time
		err error
	)
	if l.Zoned {
		t, err = time.Parse(l.Pattern, ss)
	} else {
		if loc == nil {
			loc = time.UTC
		}
		t, err = time.ParseInLocation(l.Pattern, ss, loc)
	}
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LayoutFor returns the first layout in table order that parses every value
// of values. Empty input never matches.
func LayoutFor(values []string, loc *time.Location) (Layout, bool) {
	if len(values) == 0 {
		return Layout{}, false
	}
	for _, l := range layouts {
		all := true
		for _, v := range values {
			if _, ok := l.Parse(v, loc); !ok {
				all = false
				break
			}
		}
		if all {
			return l, true
		}
	}
	return Layout{}, false
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
