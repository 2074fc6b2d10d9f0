// Package config loads runtime settings from the environment.  A .env
// file in the working directory is read first when present; real
// environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration values.
type Config struct {
	Env            string // application environment (dev, prod)
	Port           string // HTTP port to listen on
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string
	AccessTTLMin   int // access token lifetime in minutes
	RefreshTTLDays int // refresh token lifetime in days
	BcryptCost     int
	SeatLock       string        // "strict" or "off"
	SessionTTL     time.Duration // idle lifetime of a selection session
	VenueFile      string        // optional YAML replacing the built-in venue
	RabbitURL      string        // empty disables booking events
	BookingQueue   string
	BookingLogPath string // where the consumer appends confirmations

	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return FromViper(v)
}

// FromViper builds a Config from v.  Required keys missing from v are
// reported together.
func FromViper(v *viper.Viper) (Config, error) {
	setDefaults(v)

	var missing []string
	must := func(key string) string {
		s := strings.TrimSpace(v.GetString(key))
		if s == "" {
			missing = append(missing, key)
		}
		return s
	}

	cfg := Config{
		Env:            v.GetString("APP_ENV"),
		Port:           v.GetString("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         v.GetString("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   v.GetInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: v.GetInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		SeatLock:       strings.ToLower(v.GetString("SEAT_LOCK")),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		VenueFile:      v.GetString("VENUE_FILE"),
		RabbitURL:      v.GetString("RABBITMQ_URL"),
		BookingQueue:   v.GetString("BOOKING_QUEUE"),
		BookingLogPath: v.GetString("BOOKING_LOG_PATH"),
		Redis:          loadRedisConfig(v),
		Cache:          loadCacheConfig(v),
		RateLimit:      loadRateLimitConfig(v),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if cfg.SeatLock != "strict" && cfg.SeatLock != "off" {
		return Config{}, fmt.Errorf("SEAT_LOCK must be strict or off, got %q", cfg.SeatLock)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 15)
	v.SetDefault("REFRESH_TOKEN_TTL_DAYS", 7)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SEAT_LOCK", "strict")
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("BOOKING_QUEUE", "booking.confirmed")
	v.SetDefault("BOOKING_LOG_PATH", "logs/booking.log")
}

// IsProduction reports whether Env names a production deployment.
func (c Config) IsProduction() bool {
	e := strings.ToLower(c.Env)
	return e == "prod" || e == "production"
}
