package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	JWTSecret         string `mapstructure:"JWT_SECRET"` // optional; enables bearer identity on submissions
	TrustedProxies    string `mapstructure:"TRUSTED_PROXIES"` // comma-separated IPs or CIDRs allowed to set X-Forwarded-For

	// MongoDB submission audit log. Empty URL disables it.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration. Empty address keeps everything in process.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Availability cache.
	CacheBackend             string `mapstructure:"CACHE_BACKEND"` // memory | redis
	CacheMaxEntries          int    `mapstructure:"CACHE_MAX_ENTRIES"`
	DefaultMaxBookingsPerDay int    `mapstructure:"DEFAULT_MAX_BOOKINGS_PER_DAY"`

	// Backing booking store.
	RecordStoreURL            string `mapstructure:"RECORD_STORE_URL"`
	RecordStoreTimeoutSeconds int    `mapstructure:"RECORD_STORE_TIMEOUT_SECONDS"`
	HealthProbeSpec           string `mapstructure:"HEALTH_PROBE_SPEC"` // cron spec, empty disables the probe

	// Submission workflow.
	SubmitTimeoutSeconds             int    `mapstructure:"SUBMIT_TIMEOUT_SECONDS"`
	SessionTTLMinutes                int    `mapstructure:"SESSION_TTL_MINUTES"`
	InconclusiveAvailabilityProceeds bool   `mapstructure:"INCONCLUSIVE_AVAILABILITY_PROCEEDS"`
	VerifyDelaySeconds               int    `mapstructure:"VERIFY_DELAY_SECONDS"`
	VerifySweepSpec                  string `mapstructure:"VERIFY_SWEEP_SPEC"` // cron spec, empty disables the sweep
	VerifySweepLimit                 int    `mapstructure:"VERIFY_SWEEP_LIMIT"`
	SupportContact                   string `mapstructure:"SUPPORT_CONTACT"`
}

var AppConfig Config

func LoadConfig() {
	// .env is a convenience for local runs; real environments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// setDefaults also registers every key, so AutomaticEnv picks them up on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TRUSTED_PROXIES", "127.0.0.1,::1")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_NAME", "wedbook")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_SESSION_DB", 1)
	v.SetDefault("REDIS_QUEUE_DB", 2)
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_MAX_ENTRIES", 5000)
	v.SetDefault("DEFAULT_MAX_BOOKINGS_PER_DAY", 1)
	v.SetDefault("RECORD_STORE_URL", "http://localhost:3001/api")
	v.SetDefault("RECORD_STORE_TIMEOUT_SECONDS", 10)
	v.SetDefault("HEALTH_PROBE_SPEC", "@every 30s")
	v.SetDefault("SUBMIT_TIMEOUT_SECONDS", 8)
	v.SetDefault("SESSION_TTL_MINUTES", 15)
	v.SetDefault("INCONCLUSIVE_AVAILABILITY_PROCEEDS", true)
	v.SetDefault("VERIFY_DELAY_SECONDS", 60)
	v.SetDefault("VERIFY_SWEEP_SPEC", "@every 10m")
	v.SetDefault("VERIFY_SWEEP_LIMIT", 100)
	v.SetDefault("SUPPORT_CONTACT", "support@wedbook.example")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// RedisEnabled reports whether sessions and the task queue live in Redis.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c Config) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutSeconds) * time.Second
}

func (c Config) RecordStoreTimeout() time.Duration {
	return time.Duration(c.RecordStoreTimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) VerifyDelay() time.Duration {
	return time.Duration(c.VerifyDelaySeconds) * time.Second
}

// TrustedProxyList splits TRUSTED_PROXIES, dropping blanks.
func (c Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
