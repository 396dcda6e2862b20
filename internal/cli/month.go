package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/smokyabdulrahman/jadwal-waybar/internal/api"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/cache"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/display"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/prayer"
	"github.com/spf13/cobra"
)

var errNoSchedule = errors.New("no cached schedule: run 'jadwal-waybar --city NAME' first")

func newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show the cached month as a table",
		Long:  "Display every day of the cached schedule. The effective day and its next prayer are highlighted.",
		Args:  cobra.NoArgs,
		RunE:  runMonth,
	}
}

func runMonth(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	c, err := newCache(cfg)
	if err != nil {
		return err
	}

	m, err := readSchedule(c)
	if err != nil {
		return err
	}

	t := now()
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Boldf("%s, %s", m.Location, m.Region))
	if !c.IsFresh(t) {
		fmt.Fprintf(w, "  %s\n", display.Yellow("Cache is from a previous month, run 'jadwal-waybar cache clear' to refresh"))
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, monthTable(m, t).Render())
	fmt.Fprintln(w)
	return nil
}

// readSchedule loads the cached month, failing when the cache holds a
// city list or nothing at all.
func readSchedule(c *cache.Cache) (*api.MonthlySchedule, error) {
	entry, err := c.Read()
	if err != nil {
		if errors.Is(err, cache.ErrNotExist) {
			return nil, errNoSchedule
		}
		return nil, err
	}
	if entry.Kind != cache.KindSchedule {
		return nil, fmt.Errorf("cache holds a city list for %q, pick one with --cityid first", entry.City)
	}
	return entry.MonthlySchedule()
}

// monthTable lays out one row per day. The effective day is highlighted
// when it is part of the month, and marked with "> " when styling is off.
func monthTable(m *api.MonthlySchedule, now time.Time) *display.Table {
	headers := []string{"Date"}
	for _, name := range prayer.Names {
		headers = append(headers, prayer.Title(name))
	}

	day, err := prayer.SelectEffectiveDay(m, now)
	current := -1
	if err == nil {
		current = day.Index
	}

	tbl := display.NewTable(headers)
	for i, d := range m.Days {
		label := d.Label
		if i == current && !display.Enabled() {
			label = "> " + label
		}
		tbl.AddRow([]string{label, d.Imsak, d.Subuh, d.Terbit, d.Dhuha, d.Dzuhur, d.Ashar, d.Maghrib, d.Isya})
	}
	if current < 0 {
		return tbl
	}

	next := prayer.NextPrayer(day.Prayers, now)
	for i, name := range prayer.Names {
		if name == next.Name {
			// Column 0 is the date.
			tbl.SetHighlightCell(current, i+1)
			return tbl
		}
	}
	tbl.SetHighlightRow(current)
	return tbl
}
