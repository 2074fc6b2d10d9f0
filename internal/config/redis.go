package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// RedisConfig locates the Redis server used for sessions, response
// caching and rate limiting.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

func loadRedisConfig(v *viper.Viper) RedisConfig {
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	addr := v.GetString("REDIS_ADDR")
	// REDIS_HOST and REDIS_PORT together take precedence over REDIS_ADDR.
	if host, port := v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:     addr,
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		TLS:      v.GetBool("REDIS_TLS"),
	}
}

// NewRedisClient connects to Redis and pings it with a short timeout.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}
