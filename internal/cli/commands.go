package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/smokyabdulrahman/jadwal-waybar/internal/api"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/config"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/display"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/jadwal"
	"github.com/spf13/cobra"
)

func newCitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities <name>",
		Short: "List the cities matching a name",
		Long: "Search myquran.com for a city name and print every match with its index.\n" +
			"Pass the index with --cityid when a name matches several cities.",
		Args: cobra.ExactArgs(1),
		RunE: runCities,
	}
}

func runCities(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	name := args[0]

	cities, err := newClient(cfg).FindCity(cmd.Context(), name)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("no city matches %q", name)
		}
		return err
	}

	tbl := display.NewTable([]string{"Index", "ID", "Name"})
	for i, c := range cities {
		tbl.AddRow([]string{strconv.Itoa(i), strconv.Itoa(int(c.ID)), c.Name})
	}
	selected := cfg.CityIndexOrDefault(jadwal.NoIndex)
	if selected >= len(cities) {
		selected = jadwal.NoIndex
	}
	if selected >= 0 {
		tbl.SetHighlightRow(selected)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	if selected >= 0 {
		fmt.Fprintf(w, "  Selected: %s\n\n", display.Green(cities[selected].Name))
	} else if len(cities) > 1 {
		fmt.Fprintf(w, "  Use --cityid <Index> to pick one, e.g. jadwal-waybar --city %q --cityid 0\n\n", name)
	}
	return nil
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the schedule cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print cache file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCache(effectiveConfig(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the cache file",
		Long:  "Delete the cache file. The next widget run fetches the current month again.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCache(effectiveConfig(cmd))
			if err != nil {
				return err
			}
			if err := c.Remove(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), display.Green("Removed "+c.Path()))
			return nil
		},
	})

	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long:  "Display current configuration, or use subcommands to modify it.\nWhen run without subcommands, shows the current configuration.",
		RunE:  runConfigShow,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// reset and path work on a broken config file.
			if cmd.Name() == "reset" || cmd.Name() == "path" {
				return nil
			}
			return loadAndSetup(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n  jadwal-waybar config set city Bogor\n  jadwal-waybar config set city_index 1\n  jadwal-waybar config set lang id\n  jadwal-waybar config set format \"{{.Name}} in {{.Remaining}}\"",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset config to defaults",
		Long:  "Delete the config file and restore all settings to defaults.",
		RunE:  runConfigReset,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		RunE:  runConfigPath,
	})

	return cmd
}

// runConfigShow displays the configuration from the file and environment.
func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	cfg := loadedConfig
	if cfg == nil {
		cfg = &config.Config{}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  Configuration (%s)\n\n", path)

	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		if val == "" {
			val = "(not set)"
		}
		fmt.Fprintf(w, "  %-12s %s\n", key, val)
	}
	return nil
}

// runConfigSet sets a config key to the given value. Environment overrides
// are not written back.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	path, err := config.Path()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), display.Green(fmt.Sprintf("Set %s = %s", key, value)))
	return nil
}

// runConfigReset deletes the config file.
func runConfigReset(cmd *cobra.Command, args []string) error {
	if err := config.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
	return nil
}

// runConfigPath prints the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
