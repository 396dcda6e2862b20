package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/api"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/cache"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/config"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/jadwal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flags shared across all subcommands.
var (
	FlagCity      string
	FlagCityIndex int
	FlagLang      string
	FlagFormat    string
	FlagCacheFile string
	FlagAPIURL    string
	FlagTimeout   time.Duration
	FlagLogLevel  string
)

// loadedConfig holds the config loaded during PersistentPreRunE.
// Available to all subcommand handlers.
var loadedConfig *config.Config

// setupErr holds a config or logging failure for the default widget action.
var setupErr error

// now is the clock used by every command. Tests replace it.
var now = time.Now

// NewRootCmd creates the root command for the jadwal-waybar CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jadwal-waybar",
		Short: "Indonesian prayer times for Waybar",
		Long: "Prints the next prayer and today's schedule as a Waybar custom module JSON line,\n" +
			"using the myquran.com API and a monthly local cache.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupErr = nil
			err := loadAndSetup(cmd)
			if err != nil && cmd == cmd.Root() {
				// The widget reports this on stdout.
				setupErr = err
				return nil
			}
			return err
		},
		// Default action: print the widget JSON line.
		RunE:          runWidget,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&FlagCity, "city", "c", "", "City name to search on myquran.com")
	pf.IntVarP(&FlagCityIndex, "cityid", "i", jadwal.NoIndex, "Index of the city when the name matches several")
	pf.StringVar(&FlagLang, "lang", "", "Tooltip language: en or id")
	pf.StringVar(&FlagFormat, "format", "", "Bar text format: name-and-time, time-remaining, next-prayer-time, name-and-remaining, full, or a Go template")
	pf.StringVar(&FlagCacheFile, "cache-file", "", "Cache file (default: ~/.cache/jadwal-waybar/jadwal.json)")
	pf.StringVar(&FlagAPIURL, "api-url", "", "API base URL (default: "+api.DefaultBaseURL+")")
	pf.DurationVar(&FlagTimeout, "timeout", 0, "HTTP request timeout (default: 10s)")
	pf.StringVar(&FlagLogLevel, "log-level", "", "Log level written to stderr: debug, info, warn, error, disabled")

	rootCmd.AddCommand(newTodayCmd())
	rootCmd.AddCommand(newMonthCmd())
	rootCmd.AddCommand(newCitiesCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadAndSetup loads the config file and environment, then configures
// logging from the merged settings.
func loadAndSetup(cmd *cobra.Command) error {
	loadedConfig = nil
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	loadedConfig = cfg
	return setupLogging(effectiveConfig(cmd).LogLevel, cmd.ErrOrStderr())
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > environment > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) *config.Config {
	var cfg config.Config
	if loadedConfig != nil {
		cfg = *loadedConfig
	}

	defaults := config.Defaults()
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if flagWasSet(flags, root, "city") {
		cfg.City = FlagCity
	}
	if flagWasSet(flags, root, "cityid") {
		idx := FlagCityIndex
		cfg.CityIndex = &idx
	} else if cfg.CityIndex == nil {
		cfg.CityIndex = defaults.CityIndex
	}
	if flagWasSet(flags, root, "lang") {
		cfg.Lang = FlagLang
	}
	if cfg.Lang == "" {
		cfg.Lang = defaults.Lang
	}
	if flagWasSet(flags, root, "format") {
		cfg.Format = FlagFormat
	}
	if cfg.Format == "" {
		cfg.Format = defaults.Format
	}
	if flagWasSet(flags, root, "cache-file") {
		cfg.CacheFile = FlagCacheFile
	}
	if flagWasSet(flags, root, "api-url") {
		cfg.APIURL = FlagAPIURL
	}
	if flagWasSet(flags, root, "timeout") {
		cfg.Timeout = FlagTimeout.String()
	}
	if cfg.Timeout == "" {
		cfg.Timeout = defaults.Timeout
	}
	if flagWasSet(flags, root, "log-level") {
		cfg.LogLevel = FlagLogLevel
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}

	return &cfg
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// setupLogging points the global zerolog logger at w. Stdout carries the
// widget JSON, so logs never go there.
func setupLogging(level string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	return nil
}

// newCache opens the cache file named by the config.
func newCache(cfg *config.Config) (*cache.Cache, error) {
	c, err := cache.New(cfg.CacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return c, nil
}

// newClient builds an API client from the config.
func newClient(cfg *config.Config) *api.Client {
	return api.NewClient(
		api.WithBaseURL(cfg.APIURL),
		api.WithTimeout(cfg.TimeoutDuration(api.DefaultTimeout)),
	)
}

// newRunner wires the API client, the cache and the clock for a widget run.
func newRunner(cfg *config.Config) (*jadwal.Runner, error) {
	c, err := newCache(cfg)
	if err != nil {
		return nil, err
	}
	return &jadwal.Runner{
		Source: newClient(cfg),
		Cache:  c,
		Now:    now,
		Format: cfg.Format,
	}, nil
}
