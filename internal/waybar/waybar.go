// Package waybar renders the widget payload for Waybar's custom module:
// a single JSON line holding the bar text and the hover tooltip.
package waybar

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/jadwal-waybar/internal/prayer"
)

// Tooltip languages.
const (
	LangEnglish    = "en"
	LangIndonesian = "id"
)

// Nerd Font glyphs used in the tooltip.
const (
	glyphMosque   = "\uf678"
	glyphCalendar = "\uf783"
	glyphLocation = "\uf124"
	glyphGlobe    = "\uf601"
)

var separator = strings.Repeat("-", 54)

// labels holds the translatable parts of the tooltip.
type labels struct {
	title     string
	today     string
	tomorrow  string
	province  string
	latitude  string
	longitude string
}

var tooltipLabels = map[string]labels{
	LangEnglish: {
		title:     "Prayer Times",
		today:     "Today",
		tomorrow:  "Tomorrow",
		province:  "PROVINCE",
		latitude:  "Latitude",
		longitude: "Longitude",
	},
	LangIndonesian: {
		title:     "Jadwal Sholat",
		today:     "Hari Ini",
		tomorrow:  "Besok",
		province:  "PROVINSI",
		latitude:  "Lintang",
		longitude: "Bujur",
	},
}

// ValidLang reports whether lang has tooltip labels.
func ValidLang(lang string) bool {
	_, ok := tooltipLabels[lang]
	return ok
}

// Output is the JSON object Waybar reads from the module's stdout.
type Output struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
}

// ShortText returns the bar text, e.g. "Dzuhur, 11:59".
func ShortText(name string, t time.Time) string {
	return fmt.Sprintf("%s, %s", prayer.Title(name), t.Format("15:04"))
}

// Tooltip renders the day's schedule block. Unknown languages fall back to English.
func Tooltip(day prayer.Day, lang string) string {
	l, ok := tooltipLabels[lang]
	if !ok {
		l = tooltipLabels[LangEnglish]
	}

	when := l.today
	if day.Tomorrow {
		when = l.tomorrow
	}

	loc := day.Location
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\n", glyphMosque, l.title, when)
	fmt.Fprintf(&sb, "%s %s\n", glyphCalendar, day.Date)
	fmt.Fprintf(&sb, "%s %s - %s %s\n", glyphLocation, loc.Name, l.province, loc.Region)
	fmt.Fprintf(&sb, "%s Lat: %s - Lon: %s\n", glyphGlobe, formatCoord(loc.Lat), formatCoord(loc.Lon))
	fmt.Fprintf(&sb, "%s %s: %s - %s: %s\n", glyphGlobe, l.latitude, loc.Latitude, l.longitude, loc.Longitude)
	sb.WriteString(separator)

	for _, p := range day.Prayers {
		fmt.Fprintf(&sb, "\n%s\t: %s", prayer.Title(p.Name), p.Time.Format("15:04"))
	}

	return sb.String()
}

// Emit writes out as one JSON line.
func Emit(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write widget output: %w", err)
	}
	return nil
}

// formatCoord prints a coordinate with the shortest exact representation.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
