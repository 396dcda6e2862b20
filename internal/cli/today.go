package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/smokyabdulrahman/jadwal-waybar/internal/display"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/jadwal"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/prayer"
	"github.com/spf13/cobra"
)

var flagJSON bool

func newTodayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show the effective day's schedule in the terminal",
		Long: "Display the schedule the widget would show, with the next prayer highlighted.\n" +
			"After isya this is tomorrow's schedule.",
		Args: cobra.NoArgs,
		RunE: runToday,
	}

	cmd.Flags().BoolVar(&flagJSON, "json", false, "Output as JSON")

	return cmd
}

func runToday(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	if err := validateWidgetConfig(cfg); err != nil {
		return err
	}

	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	res := r.Run(cmd.Context(), jadwal.Request{
		City:      cfg.City,
		CityIndex: cfg.CityIndexOrDefault(jadwal.NoIndex),
		Lang:      cfg.Lang,
	})
	if res.Status != jadwal.StatusReady {
		return fmt.Errorf("%s: %s", res.Output.Text, res.Output.Tooltip)
	}

	t := res.Now
	if flagJSON {
		return printTodayJSON(cmd.OutOrStdout(), *res.Day, res.Next, t)
	}
	printTodayRich(cmd.OutOrStdout(), *res.Day, res.Next, t)
	return nil
}

// printTodayRich renders the styled terminal view of one day.
func printTodayRich(w io.Writer, day prayer.Day, next prayer.Prayer, now time.Time) {
	title := "Prayer Times Today"
	if day.Tomorrow {
		title = "Prayer Times Tomorrow"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(title))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s, %s\n", day.Location.Name, day.Location.Region)
	fmt.Fprintf(w, "  %s\n", day.Date)
	fmt.Fprintln(w)

	maxNameLen := 0
	for _, p := range day.Prayers {
		if n := len(prayer.Title(p.Name)); n > maxNameLen {
			maxNameLen = n
		}
	}

	for _, p := range day.Prayers {
		line := fmt.Sprintf("  %-*s  %s", maxNameLen, prayer.Title(p.Name), p.Time.Format("15:04"))

		switch {
		case p.Name == next.Name:
			remaining := prayer.FormatRemaining(prayer.TimeRemaining(p, now))
			fmt.Fprintln(w, display.Accent(line)+display.Accent(fmt.Sprintf("  <- next in %s", remaining)))
		case p.Time.Before(now):
			fmt.Fprintln(w, display.Dim(line))
		default:
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintln(w)
}

// todayJSON is the JSON output structure for the today command.
type todayJSON struct {
	Location todayJSONLocation `json:"location"`
	Date     string            `json:"date"`
	Tomorrow bool              `json:"tomorrow"`
	Timings  map[string]string `json:"timings"`
	Next     todayJSONNext     `json:"next"`
}

type todayJSONLocation struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
}

// printTodayJSON renders structured JSON output.
func printTodayJSON(w io.Writer, day prayer.Day, next prayer.Prayer, now time.Time) error {
	timings := make(map[string]string, len(day.Prayers))
	for _, p := range day.Prayers {
		timings[p.Name] = p.Time.Format("15:04")
	}

	out := todayJSON{
		Location: todayJSONLocation{
			Name:      day.Location.Name,
			Region:    day.Location.Region,
			Latitude:  day.Location.Lat,
			Longitude: day.Location.Lon,
		},
		Date:     day.Date,
		Tomorrow: day.Tomorrow,
		Timings:  timings,
		Next: todayJSONNext{
			Prayer:    next.Name,
			Time:      next.Time.Format("15:04"),
			Remaining: prayer.FormatRemaining(prayer.TimeRemaining(next, now)),
		},
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
