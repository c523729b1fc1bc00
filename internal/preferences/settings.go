package preferences

import (
	"time"

	"setpace/internal/core/rest"
	"setpace/internal/core/tempo"
)

// Settings defines editable user preferences.
type Settings struct {
	RestSeconds int
	Tempo       string
	Reps        int

	ListenAddr       string
	LogLevel         string
	SubscriberBuffer int
	SessionTTL       time.Duration
	RateLimit        int
	TickInterval     time.Duration
}

// DefaultSettings returns default settings for setpace.
func DefaultSettings() Settings {
	return Settings{
		RestSeconds:      90,
		Tempo:            "3-0-1-0",
		Reps:             10,
		ListenAddr:       ":8080",
		LogLevel:         "info",
		SubscriberBuffer: 16,
		SessionTTL:       time.Hour,
		RateLimit:        120,
		TickInterval:     time.Second,
	}
}

// RestConfig converts settings to a rest engine config.
func (settings Settings) RestConfig() rest.Config {
	return rest.Config{TickInterval: settings.TickInterval}
}

// TempoConfig converts settings to a tempo engine config.
func (settings Settings) TempoConfig() tempo.Config {
	return tempo.Config{TickInterval: settings.TickInterval}
}
