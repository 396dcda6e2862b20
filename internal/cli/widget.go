package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/config"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/jadwal"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/prayer"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/waybar"
	"github.com/spf13/cobra"
)

var errNoCity = errors.New("no city given: use --city NAME or 'jadwal-waybar config set city NAME'")

// runWidget prints exactly one JSON line for Waybar. Widget failures,
// including a broken config file or environment, are part of that line and
// exit 0; only usage errors return an error.
func runWidget(cmd *cobra.Command, args []string) error {
	if setupErr != nil {
		return waybar.Emit(cmd.OutOrStdout(), jadwal.ConfigErrorOutput(setupErr))
	}

	cfg := effectiveConfig(cmd)
	if err := validateWidgetConfig(cfg); err != nil {
		return err
	}

	r, err := newRunner(cfg)
	if err != nil {
		return waybar.Emit(cmd.OutOrStdout(), jadwal.ErrorOutput(err))
	}

	res := r.Run(cmd.Context(), jadwal.Request{
		City:      cfg.City,
		CityIndex: cfg.CityIndexOrDefault(jadwal.NoIndex),
		Lang:      cfg.Lang,
	})
	log.Debug().Str("status", res.Status.String()).Str("text", res.Output.Text).Msg("widget run finished")

	return waybar.Emit(cmd.OutOrStdout(), res.Output)
}

func validateWidgetConfig(cfg *config.Config) error {
	if cfg.City == "" {
		return errNoCity
	}
	if !waybar.ValidLang(cfg.Lang) {
		return fmt.Errorf("invalid --lang %q: must be %q or %q", cfg.Lang, waybar.LangEnglish, waybar.LangIndonesian)
	}
	if !prayer.ValidFormat(cfg.Format) {
		return fmt.Errorf("invalid --format %q", cfg.Format)
	}
	return nil
}
