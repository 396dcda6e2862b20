package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Format constants for the widget text.
const (
	FormatNameAndTime      = "name-and-time"
	FormatTimeRemaining    = "time-remaining"
	FormatNextPrayerTime   = "next-prayer-time"
	FormatNameAndRemaining = "name-and-remaining"
	FormatFull             = "full"
)

// Formats lists the named format modes.
var Formats = []string{
	FormatNameAndTime, FormatTimeRemaining, FormatNextPrayerTime, FormatNameAndRemaining, FormatFull,
}

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Title-cased prayer name, e.g. "Ashar"
	Time      string // e.g. "15:25"
	Remaining string // e.g. "2h 15m"
	Hours     int    // Whole hours remaining
	Minutes   int    // Remaining minutes after hours
}

// FormatOutput renders the widget text for the next prayer.
//
// If mode contains "{{", it is treated as a custom Go template string.
// Available template fields: .Name, .Time, .Remaining, .Hours, .Minutes
//
// Example: "{{.Name}} in {{.Remaining}}" -> "Ashar in 2h 15m"
func FormatOutput(p Prayer, now time.Time, mode string) string {
	d := TimeRemaining(p, now)
	remaining := FormatRemaining(d)
	name := Title(p.Name)
	timeStr := p.Time.Format("15:04")

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Name:      name,
			Time:      timeStr,
			Remaining: remaining,
			Hours:     int(d.Hours()),
			Minutes:   int(d.Minutes()) % 60,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s in %s", name, remaining)
	case FormatFull:
		return fmt.Sprintf("%s, %s (%s)", name, timeStr, remaining)
	default:
		return fmt.Sprintf("%s, %s", name, timeStr)
	}
}

// ValidFormat reports whether mode is a named format or a template.
func ValidFormat(mode string) bool {
	if strings.Contains(mode, "{{") {
		return true
	}
	for _, f := range Formats {
		if f == mode {
			return true
		}
	}
	return false
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
