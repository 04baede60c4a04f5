package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-exchange/internal/config"
)

// Redis carries the client plus the pub/sub channel the audit trail fans out
// on. Redis is optional: an unreachable server only disables the channel.
type Redis struct {
	Client       *redis.Client
	AuditChannel string
}

// NewRedis connects using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis; audit channel degraded", zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("audit_channel", cfg.AuditChannel))
	}

	return &Redis{Client: client, AuditChannel: cfg.AuditChannel}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
