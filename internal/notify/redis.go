package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cryo_booking_bot/pkg/metrics"
)

// RedisPublisher публикует события в канал Redis как JSON
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher создает публикатор для канала channel
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// NewRedisClient создает клиента Redis по адресу
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Notify публикует событие
func (p *RedisPublisher) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		metrics.RecordNotification("redis", "error")
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.RecordNotification("redis", "success")
	return nil
}

// Ping проверяет доступность Redis
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close закрывает клиента Redis
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
