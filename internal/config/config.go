package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseDriver     string
	DatabaseURL        string
	AutoMigrate        bool
	RedisURL           string
	NATSURL            string
	RealtimeChannel    string
	JWTSecret          string
	JWTRefreshSecret   string
	AllowOrigins       string
	ProblemCacheTTL    time.Duration
	SessionTTL         time.Duration
	SessionLockTTL     time.Duration
	CompileDelay       time.Duration
	CaseDelay          time.Duration
	StreamKeepAlive    time.Duration
	SeedEnabled        bool
	SeedToken          string
	RunRateLimit       int
	RunRateLimitWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA IDE API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("realtime.channel", "gema:ide")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("problems.cache_ttl", "5m")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.lock_ttl", "2m")
	v.SetDefault("execution.compile_delay", "1500ms")
	v.SetDefault("execution.case_delay", "300ms")
	v.SetDefault("stream.keepalive", "15s")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("ratelimit.run_per_minute", 30)

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"problems.cache_ttl",
		"session.ttl",
		"session.lock_ttl",
		"execution.compile_delay",
		"execution.case_delay",
		"stream.keepalive",
	} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed < 0 {
			return Config{}, fmt.Errorf("invalid %s: must not be negative", key)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseDriver:     strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:        v.GetString("database.url"),
		AutoMigrate:        v.GetBool("database.auto_migrate"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		RealtimeChannel:    v.GetString("realtime.channel"),
		JWTSecret:          v.GetString("jwt.secret"),
		JWTRefreshSecret:   v.GetString("jwt.refresh_secret"),
		AllowOrigins:       v.GetString("cors.allow_origins"),
		ProblemCacheTTL:    durations["problems.cache_ttl"],
		SessionTTL:         durations["session.ttl"],
		SessionLockTTL:     durations["session.lock_ttl"],
		CompileDelay:       durations["execution.compile_delay"],
		CaseDelay:          durations["execution.case_delay"],
		StreamKeepAlive:    durations["stream.keepalive"],
		SeedEnabled:        v.GetBool("seed.enabled"),
		SeedToken:          v.GetString("seed.token"),
		RunRateLimit:       v.GetInt("ratelimit.run_per_minute"),
		RunRateLimitWindow: time.Minute,
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.SeedEnabled && cfg.SeedToken == "" {
		return Config{}, fmt.Errorf("seed token must be provided when seeding is enabled")
	}

	if cfg.RunRateLimit <= 0 {
		cfg.RunRateLimit = 30
	}

	return cfg, nil
}
