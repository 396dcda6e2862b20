package prayer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/jadwal-waybar/internal/api"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrDayUnavailable is returned when the effective day is not part of the
// cached month, e.g. after isya on the last day of the month.
var ErrDayUnavailable = errors.New("schedule for the requested day is not cached")

// Prayer represents a single prayer with its name and time.
type Prayer struct {
	Name string
	Time time.Time
}

// Names lists the eight daily times in chronological order.
// The order is also the tie-break order of NextPrayer.
var Names = []string{
	"imsak", "subuh", "terbit", "dhuha", "dzuhur", "ashar", "maghrib", "isya",
}

// Location describes where a schedule applies.
type Location struct {
	Name      string
	Region    string
	Lat       float64
	Lon       float64
	Latitude  string // e.g. "6° 10' LS"
	Longitude string // e.g. "106° 49' BT"
}

// Day is one day's schedule, ready to be displayed.
type Day struct {
	Index    int    // 0-based day of month within the cached schedule
	Date     string // API date label, e.g. "Senin, 01/01/2024"
	Location Location
	Prayers  []Prayer
	Tomorrow bool
}

// Title returns a prayer name in title case, e.g. "dzuhur" -> "Dzuhur".
// A Caser keeps state, so each call gets its own.
func Title(name string) string {
	return cases.Title(language.Und).String(name)
}

// rawTimes returns the day's HH:MM strings in Names order.
func rawTimes(d api.DayTimes) []string {
	return []string{d.Imsak, d.Subuh, d.Terbit, d.Dhuha, d.Dzuhur, d.Ashar, d.Maghrib, d.Isya}
}

// ParseTimings converts one day of API times into Prayers on the given date.
func ParseTimings(d api.DayTimes, date time.Time, loc *time.Location) ([]Prayer, error) {
	raw := rawTimes(d)
	prayers := make([]Prayer, 0, len(Names))
	for i, name := range Names {
		t, err := parseTimeStr(raw[i], date, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s (%q): %w", name, raw[i], err)
		}
		prayers = append(prayers, Prayer{Name: name, Time: t})
	}
	return prayers, nil
}

// NextPrayer returns the earliest prayer at or after now. When several share
// that time the first in order wins. When every prayer has passed it returns
// prayers[0]; choosing the next day's schedule is the caller's job.
// prayers must not be empty.
func NextPrayer(prayers []Prayer, now time.Time) Prayer {
	best := -1
	for i := range prayers {
		if prayers[i].Time.Before(now) {
			continue
		}
		if best == -1 || prayers[i].Time.Before(prayers[best].Time) {
			best = i
		}
	}
	if best == -1 {
		best = 0
	}
	return prayers[best]
}

// SelectEffectiveDay picks today's schedule from the month, or tomorrow's
// once now is at or after today's isya.
func SelectEffectiveDay(m *api.MonthlySchedule, now time.Time) (Day, error) {
	idx := now.Day() - 1
	if idx >= len(m.Days) {
		return Day{}, fmt.Errorf("%w: day %d of %d", ErrDayUnavailable, idx+1, len(m.Days))
	}

	date := now
	prayers, err := ParseTimings(m.Days[idx], date, now.Location())
	if err != nil {
		return Day{}, err
	}

	tomorrow := false
	if isya := prayers[len(prayers)-1]; !now.Before(isya.Time) {
		idx++
		if idx >= len(m.Days) {
			return Day{}, fmt.Errorf("%w: day %d of %d", ErrDayUnavailable, idx+1, len(m.Days))
		}
		date = now.AddDate(0, 0, 1)
		prayers, err = ParseTimings(m.Days[idx], date, now.Location())
		if err != nil {
			return Day{}, err
		}
		tomorrow = true
	}

	return Day{
		Index: idx,
		Date:  m.Days[idx].Label,
		Location: Location{
			Name:      m.Location,
			Region:    m.Region,
			Lat:       float64(m.Coordinat.Lat),
			Lon:       float64(m.Coordinat.Lon),
			Latitude:  m.Coordinat.Latitude,
			Longitude: m.Coordinat.Longitude,
		},
		Prayers:  prayers,
		Tomorrow: tomorrow,
	}, nil
}

// TimeRemaining returns the duration until the given prayer time.
func TimeRemaining(prayer Prayer, now time.Time) time.Duration {
	return prayer.Time.Sub(now)
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// parseTimeStr parses "HH:MM" into a time.Time on the given date in loc.
func parseTimeStr(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", raw)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc), nil
}
