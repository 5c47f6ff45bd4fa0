package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Monitor  MonitorConfig
	Dedup    DedupConfig
	Dispatch DispatchConfig
	Channels ChannelsConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
}

type MonitorConfig struct {
	Interval         time.Duration
	RecoveryInterval time.Duration
	Lookback         time.Duration
	ThresholdsPath   string // optional YAML override of the built-in table
}

type DedupConfig struct {
	Cooldown time.Duration
}

type DispatchConfig struct {
	MaxConcurrentSends int
	RecipientsPath     string // optional YAML file seeding the registry
}

// ChannelsConfig carries per-channel delivery settings. An empty value
// disables the channel.
type ChannelsConfig struct {
	SMTPURL          string // shoutrrr smtp:// service URL
	NtfyHost         string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 10),
		},
		Monitor: MonitorConfig{
			Interval:         getEnvDuration("MONITOR_INTERVAL", 300*time.Second),
			RecoveryInterval: getEnvDuration("MONITOR_RECOVERY_INTERVAL", 60*time.Second),
			Lookback:         getEnvDuration("MONITOR_LOOKBACK", time.Hour),
			ThresholdsPath:   getEnv("THRESHOLDS_PATH", ""),
		},
		Dedup: DedupConfig{
			Cooldown: getEnvDuration("DEDUP_COOLDOWN", 24*time.Hour),
		},
		Dispatch: DispatchConfig{
			MaxConcurrentSends: getEnvInt("MAX_CONCURRENT_SENDS", 8),
			RecipientsPath:     getEnv("RECIPIENTS_PATH", ""),
		},
		Channels: ChannelsConfig{
			SMTPURL:          getEnv("SMTP_URL", ""),
			NtfyHost:         getEnv("NTFY_HOST", ""),
			TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/hazard-alerts.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per second")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Monitor.Interval < 10*time.Second {
		return fmt.Errorf("monitor interval must be at least 10 seconds")
	}
	if c.Monitor.RecoveryInterval < time.Second {
		return fmt.Errorf("monitor recovery interval must be at least 1 second")
	}
	if c.Monitor.Lookback < c.Monitor.Interval {
		return fmt.Errorf("monitor lookback (%s) must cover at least one interval (%s)",
			c.Monitor.Lookback, c.Monitor.Interval)
	}

	if c.Dedup.Cooldown < time.Minute {
		return fmt.Errorf("dedup cooldown must be at least 1 minute")
	}
	if c.Dispatch.MaxConcurrentSends < 1 {
		return fmt.Errorf("max concurrent sends must be at least 1")
	}

	// Twilio settings come as a set or not at all.
	sid, token, from := c.Channels.TwilioAccountSID, c.Channels.TwilioAuthToken, c.Channels.TwilioFromNumber
	if (sid != "" || token != "" || from != "") && (sid == "" || token == "" || from == "") {
		return fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER must be set together")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
