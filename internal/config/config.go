package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	getEnv := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
		return fallback
	}
	getInt := func(key string, fallback int) int {
		raw := getEnv(key, "")
		if raw == "" {
			return fallback
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			log.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
			return fallback
		}
		return v
	}
	getBool := func(key string, fallback bool) bool {
		raw := getEnv(key, "")
		if raw == "" {
			return fallback
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			log.Warn("Invalid boolean in environment, using default", "key", key, "value", raw, "default", fallback)
			return fallback
		}
		return v
	}

	timeout, err := time.ParseDuration(getEnv("PLAYTOMIC_TIMEOUT", "10s"))
	if err != nil {
		timeout = 10 * time.Second
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		DBPath:        getEnv("DB_PATH", ""),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		Turso: TursoConfig{
			PrimaryURL: getEnv("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnv("TURSO_AUTH_TOKEN", ""),
		},
		JWTSecret:  getEnv("JWT_SECRET", ""),
		Timezone:   getEnv("TIMEZONE", "Europe/Madrid"),
		WeeksAhead: getInt("WEEKS_AHEAD", 4),
		SideEffects: SideEffectsConfig{
			Backend: getEnv("SIDE_EFFECTS", BackendLocal),
			Workers: getInt("SIDE_EFFECT_WORKERS", 2),
			Topic:   getEnv("PUBSUB_TOPIC", "padel-side-effects"),
		},
		ProjectID: getEnv("GCP_PROJECT", ""),
		Inngest: InngestConfig{
			AppID:      getEnv("INNGEST_APP_ID", "padel-weekly"),
			SigningKey: getEnv("INNGEST_SIGNING_KEY", ""),
			EventKey:   getEnv("INNGEST_EVENT_KEY", ""),
			Dev:        getBool("INNGEST_DEV", false),
		},
		Slack: SlackConfig{
			Token:         getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID:     getEnv("SLACK_CHANNEL", ""),
			SigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		},
		Playtomic: PlaytomicConfig{
			TenantID: getEnv("PLAYTOMIC_TENANT_ID", ""),
			Timeout:  timeout,
		},
		Scheduler: SchedulerConfig{
			Enabled: getBool("SCHEDULER_ENABLED", true),
		},
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		DryRun:      getBool("DRY_RUN", false),
	}
	return cfg
}

// DemoMode reports whether no persistence credentials are configured. The
// server then answers the demo group from fixed sample data.
func (c Config) DemoMode() bool {
	return c.DBPath == "" && c.Turso.PrimaryURL == ""
}

// SlackEnabled reports whether notifications can be posted.
func (c Config) SlackEnabled() bool {
	return c.Slack.Token != "" && c.Slack.ChannelID != ""
}

// PlaytomicEnabled reports whether booking sync is configured.
func (c Config) PlaytomicEnabled() bool {
	return c.Playtomic.TenantID != ""
}

// Location resolves the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn("Unknown timezone, using UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
