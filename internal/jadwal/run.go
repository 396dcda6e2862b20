// Package jadwal drives one widget run: it checks the cache, resolves the
// city and fetches the month when needed, and renders the next prayer.
package jadwal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/api"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/cache"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/prayer"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/waybar"
)

// NoIndex means no city index was given on the command line.
const NoIndex = -1

// Source is the subset of the API client a run needs.
type Source interface {
	FindCity(ctx context.Context, name string) ([]api.City, error)
	FetchMonthlySchedule(ctx context.Context, cityID api.CityID, year int, month time.Month) (*api.MonthlySchedule, error)
}

// Request describes one widget run.
type Request struct {
	City      string
	CityIndex int    // NoIndex when not given
	Lang      string // tooltip language, see waybar.LangEnglish
}

// Result is what a run produced. Output is always populated.
type Result struct {
	Status Status
	Output waybar.Output
	Day    *prayer.Day   // set when Status is StatusReady
	Next   prayer.Prayer // set when Status is StatusReady
	Err    error
	// Now is the instant the run was evaluated at.
	Now time.Time
}

// Runner ties the API, the cache and the clock together.
type Runner struct {
	Source Source
	Cache  *cache.Cache
	// Now defaults to time.Now.
	Now func() time.Time
	// Format selects the bar text, see prayer.Formats. Empty means
	// prayer.FormatNameAndTime.
	Format string
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run executes the widget flow. It never returns an error: every failure
// is reported through Result.Status and rendered into Result.Output.
func (r *Runner) Run(ctx context.Context, req Request) Result {
	now := r.now()
	var res Result
	status, count, err := r.prepare(ctx, req, now)
	if status != StatusReady {
		res = r.fail(status, req, count, err)
	} else {
		res = r.render(req, now)
	}
	res.Now = now
	return res
}

// prepare makes sure the cache holds a usable schedule. The count return is
// the number of matched cities, used in the invalid index message.
func (r *Runner) prepare(ctx context.Context, req Request, now time.Time) (Status, int, error) {
	if !r.Cache.Exists() {
		log.Debug().Str("path", r.Cache.Path()).Msg("no cache file, fetching schedule")
		return r.resolveAndFetch(ctx, req, now)
	}

	if !r.Cache.IsFresh(now) {
		log.Info().Str("path", r.Cache.Path()).Msg("cache file is from a previous month")
		return StatusFileOutdated, 0, nil
	}

	entry, err := r.Cache.Read()
	if err != nil {
		return StatusCacheError, 0, err
	}

	switch entry.Kind {
	case cache.KindCities:
		if !sameCity(entry.City, req.City) {
			log.Info().Str("cached", entry.City).Str("requested", req.City).
				Msg("city list was written for another city, searching again")
			return r.resolveAndFetch(ctx, req, now)
		}
		if req.CityIndex == NoIndex {
			return StatusMultipleCities, len(entry.Cities), nil
		}
		return r.resolveAndFetch(ctx, req, now)
	default:
		if !sameCity(entry.City, req.City) {
			log.Warn().Str("cached", entry.City).Str("requested", req.City).
				Msg("cached schedule is for another city, clear the cache to switch")
		}
		return StatusReady, 0, nil
	}
}

// resolveAndFetch searches the city, picks one match and caches its month.
func (r *Runner) resolveAndFetch(ctx context.Context, req Request, now time.Time) (Status, int, error) {
	cities, err := r.Source.FindCity(ctx, req.City)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return StatusCityNotFound, 0, err
		}
		return StatusAPIFailed, 0, err
	}

	city := cities[0]
	if len(cities) > 1 {
		switch {
		case req.CityIndex == NoIndex:
			if err := r.Cache.WriteCities(req.City, cities); err != nil {
				return StatusCacheError, len(cities), err
			}
			log.Info().Int("matches", len(cities)).Str("path", r.Cache.Path()).Msg("city list written")
			return StatusMultipleCities, len(cities), nil
		case req.CityIndex < 0 || req.CityIndex >= len(cities):
			return StatusInvalidCityIndex, len(cities), nil
		}
		city = cities[req.CityIndex]
	}

	log.Debug().Int("id", int(city.ID)).Str("name", city.Name).Msg("fetching monthly schedule")
	m, err := r.Source.FetchMonthlySchedule(ctx, city.ID, now.Year(), now.Month())
	if err != nil {
		if errors.Is(err, api.ErrNoData) {
			return StatusScheduleNotFound, 0, err
		}
		return StatusAPIFailed, 0, err
	}

	if err := r.Cache.WriteSchedule(req.City, now.Year(), now.Month(), m.Raw); err != nil {
		return StatusCacheError, 0, err
	}
	return StatusReady, 0, nil
}

// render reads the cached month and builds the bar text and tooltip.
func (r *Runner) render(req Request, now time.Time) Result {
	entry, err := r.Cache.Read()
	if err != nil {
		return r.fail(StatusCacheError, req, 0, err)
	}
	m, err := entry.MonthlySchedule()
	if err != nil {
		return r.fail(StatusCacheError, req, 0, err)
	}

	day, err := prayer.SelectEffectiveDay(m, now)
	if err != nil {
		if errors.Is(err, prayer.ErrDayUnavailable) {
			return r.fail(StatusDayUnavailable, req, 0, err)
		}
		return r.fail(StatusCacheError, req, 0, err)
	}

	next := prayer.NextPrayer(day.Prayers, now)
	text := waybar.ShortText(next.Name, next.Time)
	if r.Format != "" {
		text = prayer.FormatOutput(next, now, r.Format)
	}

	return Result{
		Status: StatusReady,
		Output: waybar.Output{Text: text, Tooltip: waybar.Tooltip(day, req.Lang)},
		Day:    &day,
		Next:   next,
	}
}

func (r *Runner) fail(s Status, req Request, count int, err error) Result {
	ev := log.Warn().Str("status", s.String())
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("widget run did not produce a schedule")

	return Result{
		Status: s,
		Output: message(s, req.City, r.Cache.Path(), count, err),
		Err:    err,
	}
}

func sameCity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
