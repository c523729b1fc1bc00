package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"setpace/internal/core/tempo"
	"setpace/internal/preferences"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	RestSeconds       int    `yaml:"rest_seconds"`
	Tempo             string `yaml:"tempo"`
	Reps              int    `yaml:"reps"`
	ListenAddr        string `yaml:"listen_addr"`
	LogLevel          string `yaml:"log_level"`
	SubscriberBuffer  int    `yaml:"subscriber_buffer"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
	RateLimit         int    `yaml:"rate_limit_per_minute"`
}

// LoadSettings reads user preferences from YAML in the user config directory.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (preferences.Settings, error) {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return preferences.DefaultSettings(), err
	}
	return LoadSettingsFile(configPath)
}

// LoadSettingsFile reads user preferences from the YAML file at configPath.
// A missing file yields default settings.
func LoadSettingsFile(configPath string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML in the user config directory.
func SaveSettings(appName string, settings preferences.Settings) error {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return err
	}
	return SaveSettingsFile(configPath, settings)
}

// SaveSettingsFile writes user preferences to the YAML file at configPath.
func SaveSettingsFile(configPath string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		RestSeconds:       settings.RestSeconds,
		Tempo:             settings.Tempo,
		Reps:              settings.Reps,
		ListenAddr:        settings.ListenAddr,
		LogLevel:          settings.LogLevel,
		SubscriberBuffer:  settings.SubscriberBuffer,
		SessionTTLMinutes: int(settings.SessionTTL / time.Minute),
		RateLimit:         settings.RateLimit,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// SettingsPath returns where settings for appName live.
func SettingsPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.RestSeconds > 0 {
		settings.RestSeconds = fileData.RestSeconds
	}
	if tempo.Valid(fileData.Tempo) {
		settings.Tempo = fileData.Tempo
	}
	if fileData.Reps > 0 {
		settings.Reps = fileData.Reps
	}
	if fileData.ListenAddr != "" {
		settings.ListenAddr = fileData.ListenAddr
	}
	if fileData.LogLevel != "" {
		settings.LogLevel = fileData.LogLevel
	}
	if fileData.SubscriberBuffer > 0 {
		settings.SubscriberBuffer = fileData.SubscriberBuffer
	}
	if fileData.SessionTTLMinutes > 0 {
		settings.SessionTTL = time.Duration(fileData.SessionTTLMinutes) * time.Minute
	}
	if fileData.RateLimit > 0 {
		settings.RateLimit = fileData.RateLimit
	}
}
