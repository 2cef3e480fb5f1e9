package cache

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds Redis options for the shared rate-limit window store.
type Config struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	UseTLS       bool
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	// ConnectTimeout bounds retries of the first PING. Defaults to 15s.
	ConnectTimeout time.Duration
}

// New returns a configured redis.Client once PING succeeds.
// The returned func closes the client.
func New(ctx context.Context, logger *zap.Logger, cfg Config) (*redis.Client, func(), error) {
	opts := &redis.Options{
		Addr:            cfg.Addr,
		Username:        cfg.Username,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     defaultDuration(cfg.DialTimeout, 3*time.Second),
		ReadTimeout:     defaultDuration(cfg.ReadTimeout, 500*time.Millisecond),
		WriteTimeout:    defaultDuration(cfg.WriteTimeout, 500*time.Millisecond),
		PoolSize:        defaultInt(cfg.PoolSize, 10),
		MinIdleConns:    defaultInt(cfg.MinIdleConns, 2),
		MaxRetries:      2,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = defaultDuration(cfg.ConnectTimeout, 15*time.Second)
	ping := func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis_ping_failed_retrying", zap.String("addr", cfg.Addr), zap.Error(err))
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("redis_connection_established", zap.String("addr", cfg.Addr))

	closer := func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis_close_failed", zap.Error(err))
		}
	}
	return client, closer, nil
}

func defaultDuration(v, d time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return d
}

func defaultInt(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
