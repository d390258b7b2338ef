package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/afi-report/backend/internal/metrics"
	"github.com/afi-report/backend/internal/reconcile"
	"github.com/afi-report/backend/pkg/circuitbreaker"
	"github.com/afi-report/backend/pkg/logger"
)

// Client caches reconciled state mappings. Every call runs behind a circuit
// breaker so an unreachable redis degrades to cache misses.
type Client struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	breaker := circuitbreaker.New("redis", circuitbreaker.Config{
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
		Logger:           logger.Named("circuitbreaker"),
		OnStateChange: func(name string, _, to circuitbreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &Client{client: client, breaker: breaker}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetMapping(ctx context.Context, key string, m *reconcile.Mapping, ttl time.Duration) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set mapping cache: %w", err)
	}

	logger.Debug("Mapping cached", zap.String("key", key), zap.Int("districts", m.Len()), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetMapping(ctx context.Context, key string) (*reconcile.Mapping, bool, error) {
	var data []byte
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get mapping cache: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}

	var m reconcile.Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal mapping: %w", err)
	}

	logger.Debug("Mapping cache hit", zap.String("key", key), zap.Int("districts", m.Len()))
	return &m, true, nil
}
