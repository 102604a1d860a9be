package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verdictfx/verdict/internal/domain"
)

const redisKeyPrefix = "verdict:signal:"

// Redis is the shared registry for multi-process deployments. Results are
// stored as JSON under a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Put(ctx context.Context, res domain.EvaluationResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+res.SignalID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store signal: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, signalID string) (domain.EvaluationResult, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+signalID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.EvaluationResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownSignal, signalID)
	}
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("fetch signal: %w", err)
	}
	var res domain.EvaluationResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("decode signal: %w", err)
	}
	return res, nil
}

// Ping verifies connectivity at startup.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
