package audit

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ZapSink logs every record through the structured logger.
func ZapSink(logger *zap.Logger) Handler {
	return func(_ context.Context, record Record) error {
		logger.Info("audit",
			zap.String("record_id", record.ID),
			zap.String("type", string(record.Type)),
			zap.Int64("event_id", record.EventID),
			zap.String("actor", string(record.Actor)),
			zap.Time("at", record.At),
			zap.Any("fields", record.Fields),
		)
		return nil
	}
}

// RedisSink publishes records as JSON to a Redis channel for external
// observers.
func RedisSink(client *redis.Client, channel string) Handler {
	return func(ctx context.Context, record Record) error {
		if client == nil {
			return nil
		}
		payload, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return client.Publish(ctx, channel, payload).Err()
	}
}
