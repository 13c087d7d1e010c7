package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/redis/go-redis/v9"
)

const channel = "fcbb:notifications"

// RedisSink publishes notifications as JSON on a Redis channel so live
// admin sessions can pick them up without polling the notifications table.
// It is a best-effort sink like any other: a failed publish is logged by
// the engine and swallowed.
type RedisSink struct {
	client *redis.Client
}

func NewRedisSink(addr string) *RedisSink {
	return &RedisSink{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (s *RedisSink) Notify(n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", n.ID, err)
	}
	if err := s.client.Publish(context.Background(), channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
