package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/playperu/fingergame/internal/readiness"
)

type Config struct {
	server     string
	db         string
	catalogDir string
	hold       time.Duration
	verbose    bool
	configFile string
}

func (c *Config) validate() error {
	if c.hold <= 0 {
		return fmt.Errorf("invalid hold threshold (must be positive): %s", c.hold)
	}
	if c.db == "" {
		return errors.New("--db must not be empty")
	}
	return nil
}

func newCmd(cfg *Config, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FINGERGAME")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "fingergame",
		Short: "Play the finger elimination party game from a terminal.",
		Args:  cobra.ExactArgs(0),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyConfigFile(v, cmd.Flags(), cfg.configFile); err != nil {
				return err
			}
			return cfg.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.server, "server", "s", "", "base URL of a fingergame server; empty plays offline (env: FINGERGAME_SERVER)")
	fs.StringVar(&cfg.db, "db", "fingergame.db", "libSQL file for win stats (env: FINGERGAME_DB)")
	fs.StringVar(&cfg.catalogDir, "catalog-dir", "", "directory with tasks, memes and badwords files for offline play (env: FINGERGAME_CATALOG_DIR)")
	fs.DurationVar(&cfg.hold, "hold", readiness.DefaultThreshold, "how long a player must hold to be ready (env: FINGERGAME_HOLD)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display debug logs (env: FINGERGAME_VERBOSE)")
	fs.StringVarP(&cfg.configFile, "config", "c", "", "optional YAML or TOML config file (env: FINGERGAME_CONFIG)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// applyConfigFile fills every flag the command line and environment left
// unset from the config file.
func applyConfigFile(v *viper.Viper, fs *pflag.FlagSet, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "config" || !v.InConfig(f.Name) {
			return
		}
		if setErr := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); setErr != nil && err == nil {
			err = fmt.Errorf("config file %s: %w", f.Name, setErr)
		}
	})
	return err
}
