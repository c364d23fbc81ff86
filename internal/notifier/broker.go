package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// natsPublisher is the subset of *nats.Conn used for publishing
type natsPublisher interface {
	Publish(subj string, data []byte) error
}

// NATSNotifier publishes events to a NATS subject
type NATSNotifier struct {
	conn    natsPublisher
	subject string
}

// NewNATSNotifier creates a NATSNotifier
func NewNATSNotifier(conn natsPublisher, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject}
}

// Notify publishes the JSON-encoded event
func (n *NATSNotifier) Notify(_ context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish to nats subject %s: %w", n.subject, err)
	}
	return nil
}

// ConnectNATS dials the NATS server with reconnects enabled
func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("subscription-checkout"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

// redisPublisher is the subset of redis.UniversalClient used for publishing
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes events to a Redis pub/sub channel
type RedisNotifier struct {
	client  redisPublisher
	channel string
}

// NewRedisNotifier creates a RedisNotifier
func NewRedisNotifier(client redisPublisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Notify publishes the JSON-encoded event
func (n *RedisNotifier) Notify(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("publish to redis channel %s: %w", n.channel, err)
	}
	return nil
}

// ConnectRedis creates a client and verifies the server is reachable
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}
