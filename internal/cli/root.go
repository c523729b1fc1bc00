// Package cli implements the setpace command line.
package cli

import (
	"fmt"

	"setpace/internal/log"
	"setpace/internal/preferences"
	"setpace/internal/storage"

	"github.com/spf13/cobra"
)

const appName = "setpace"

var version = "dev"

var (
	configPath string
	logLevel   string

	// settings is loaded before every command runs.
	settings = preferences.DefaultSettings()
)

var rootCmd = &cobra.Command{
	Use:   "setpace",
	Short: "Rest countdowns and tempo-guided sets",
	Long: `setpace times the parts of a workout: the rest between sets and the
tempo of each repetition. Run it interactively or host sessions over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default is the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides the settings file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	loaded, err := storage.LoadSettingsFile(path)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	settings = loaded

	level := settings.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log.Reconfigure(log.Config{Level: level, Output: cmd.ErrOrStderr()})
	return nil
}

// settingsPath resolves --config, falling back to the per-user location.
func settingsPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	path, err := storage.SettingsPath(appName)
	if err != nil {
		return "", fmt.Errorf("failed to locate settings: %w", err)
	}
	return path, nil
}
