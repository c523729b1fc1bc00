package cli

import (
	"errors"
	"fmt"
	"os"

	"setpace/internal/storage"

	"github.com/spf13/cobra"
)

var settingsForce bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage setpace settings",
	RunE:  runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the current values",
	RunE:  runSettingsInit,
}

func init() {
	settingsInitCmd.Flags().BoolVar(&settingsForce, "force", false, "overwrite an existing file")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsInitCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("  File: %s\n", path)
	cmd.Println()
	cmd.Println("[Workout]")
	cmd.Printf("  Rest: %ds\n", settings.RestSeconds)
	cmd.Printf("  Tempo: %s\n", settings.Tempo)
	cmd.Printf("  Reps: %d\n", settings.Reps)
	cmd.Println()
	cmd.Println("[Server]")
	cmd.Printf("  Listen: %s\n", settings.ListenAddr)
	cmd.Printf("  Rate limit: %d/min\n", settings.RateLimit)
	cmd.Printf("  Session TTL: %s\n", settings.SessionTTL)
	cmd.Printf("  Subscriber buffer: %d\n", settings.SubscriberBuffer)
	cmd.Println()
	cmd.Println("[Logging]")
	cmd.Printf("  Level: %s\n", settings.LogLevel)
	return nil
}

func runSettingsInit(cmd *cobra.Command, _ []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !settingsForce {
		return fmt.Errorf("settings file %s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check settings file: %w", err)
	}

	if err := storage.SaveSettingsFile(path, settings); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	cmd.Printf("Settings written to %s\n", path)
	return nil
}
