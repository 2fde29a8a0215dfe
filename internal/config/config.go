// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for optional settings.
const (
	DefaultSourceURL     = "https://testcisia.it/calendario.php?tolc=cents&l=gb&lingua=inglese"
	DefaultBookingURL    = "https://testcisia.it/studenti_tolc/login_sso.php"
	DefaultCheckInterval = 60 * time.Second
	DefaultSendInterval  = 50 * time.Millisecond
	DefaultPollBackoff   = 5 * time.Second
	DefaultDatabasePath  = ""
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	SourceURL        string
	BookingURL       string
	CheckInterval    time.Duration
	SendInterval     time.Duration
	PollBackoff      time.Duration
	HTTPAddr         string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	checkInterval, err := durationEnv("CHECK_INTERVAL", DefaultCheckInterval)
	if err != nil {
		return nil, err
	}
	sendInterval, err := durationEnv("SEND_INTERVAL", DefaultSendInterval)
	if err != nil {
		return nil, err
	}
	pollBackoff, err := durationEnv("POLL_BACKOFF", DefaultPollBackoff)
	if err != nil {
		return nil, err
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "5000"
		}
		httpAddr = ":" + port
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	return &Config{
		TelegramBotToken: token,
		SourceURL:        envOrDefault("SOURCE_URL", DefaultSourceURL),
		BookingURL:       envOrDefault("BOOKING_URL", DefaultBookingURL),
		CheckInterval:    checkInterval,
		SendInterval:     sendInterval,
		PollBackoff:      pollBackoff,
		HTTPAddr:         httpAddr,
		DatabasePath:     envOrDefault("DATABASE_PATH", DefaultDatabasePath),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		AllowedUsers:     allowedUsers,
	}, nil
}

// IsUserAllowed checks whether a chat ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(chatID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == chatID {
			return true
		}
	}
	return false
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// durationEnv accepts a Go duration ("90s", "1m") or a bare number of seconds.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
		}
		d = time.Duration(secs) * time.Second
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, raw)
	}
	return d, nil
}
