package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	Port          string
	LogLevel      string
	LogFormat     string
	DBPath        string
	MigrationsDir string
	Turso         TursoConfig
	JWTSecret     string
	Timezone      string
	WeeksAhead    int
	SideEffects   SideEffectsConfig
	ProjectID     string
	Inngest       InngestConfig
	Slack         SlackConfig
	Playtomic     PlaytomicConfig
	Scheduler     SchedulerConfig
	CORSOrigins   []string
	DryRun        bool
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

// SideEffectsConfig selects the backend running best-effort tasks.
type SideEffectsConfig struct {
	Backend string // local, pubsub or inngest
	Workers int
	Topic   string
}

type InngestConfig struct {
	AppID      string
	SigningKey string
	EventKey   string
	Dev        bool
}

type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}

type PlaytomicConfig struct {
	TenantID string
	Timeout  time.Duration
}

type SchedulerConfig struct {
	Enabled bool
}

const (
	BackendLocal   = "local"
	BackendPubSub  = "pubsub"
	BackendInngest = "inngest"
)
