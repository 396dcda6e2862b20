package jadwal

import (
	"fmt"

	"github.com/smokyabdulrahman/jadwal-waybar/internal/waybar"
)

// Status is the outcome of a widget run.
type Status int

const (
	StatusReady Status = iota
	StatusAPIFailed
	StatusCityNotFound
	StatusMultipleCities
	StatusFileOutdated
	StatusScheduleNotFound
	StatusInvalidCityIndex
	StatusDayUnavailable
	StatusCacheError
	StatusConfigError
)

var statusNames = map[Status]string{
	StatusReady:            "ready",
	StatusAPIFailed:        "api-failed",
	StatusCityNotFound:     "city-not-found",
	StatusMultipleCities:   "multiple-cities",
	StatusFileOutdated:     "file-outdated",
	StatusScheduleNotFound: "schedule-not-found",
	StatusInvalidCityIndex: "invalid-city-index",
	StatusDayUnavailable:   "day-unavailable",
	StatusCacheError:       "cache-error",
	StatusConfigError:      "config-error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

const multipleCitiesHelp = "Multiple cities are detected!\n" +
	"1. Run 'jadwal-waybar cities %[1]s' or open '%[2]s' to list the matching cities.\n" +
	"2. Record the selected city 'ID'.\n" +
	"3. Put 'ID' with '-i' argument in the 'exec' section of the Waybar module config.\n" +
	"4. Restart Waybar."

// ErrorOutput renders err as a cache error, for failures before a run starts.
func ErrorOutput(err error) waybar.Output {
	return message(StatusCacheError, "", "", 0, err)
}

// ConfigErrorOutput renders a config file or environment failure.
func ConfigErrorOutput(err error) waybar.Output {
	return message(StatusConfigError, "", "", 0, err)
}

// message renders the widget payload for a non-ready status.
func message(s Status, city, cachePath string, cityCount int, err error) waybar.Output {
	switch s {
	case StatusAPIFailed:
		return waybar.Output{Text: "API Failed!", Tooltip: "API Not working, please check your connection"}
	case StatusCityNotFound:
		return waybar.Output{Text: "City Not Found", Tooltip: "City Not Available, change your city name argument"}
	case StatusMultipleCities:
		return waybar.Output{
			Text:    "Multiple cities are Detected!",
			Tooltip: fmt.Sprintf(multipleCitiesHelp, city, cachePath),
		}
	case StatusFileOutdated:
		return waybar.Output{
			Text: "File Outdated",
			Tooltip: "Please delete the cache file (jadwal-waybar cache clear) and new data " +
				"for this month will be fetched automatically",
		}
	case StatusScheduleNotFound:
		return waybar.Output{Text: "Schedule Not Found", Tooltip: "NULL"}
	case StatusInvalidCityIndex:
		return waybar.Output{
			Text:    "Invalid City ID",
			Tooltip: fmt.Sprintf("City ID must be between 0 and %d, run 'jadwal-waybar cities %s' to list them", cityCount-1, city),
		}
	case StatusDayUnavailable:
		return waybar.Output{
			Text:    "Schedule Unavailable",
			Tooltip: "Tomorrow's schedule belongs to next month, run 'jadwal-waybar cache clear' after midnight to fetch it",
		}
	case StatusConfigError:
		return waybar.Output{
			Text:    "Config Error",
			Tooltip: fmt.Sprintf("%v\nFix it or run 'jadwal-waybar config reset'", err),
		}
	default:
		tooltip := "Unknown error"
		if err != nil {
			tooltip = err.Error()
		}
		return waybar.Output{Text: "Cache Error", Tooltip: tooltip}
	}
}
