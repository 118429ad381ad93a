package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/murder-mystery/internal/domain"
)

const (
	roundKey     = "mystery:round"
	roundChannel = "mystery:round:changed"
)

// GetRound returns the cached round state, or domain.ErrRoundStateNotFound
// on a miss
func (c *Cache) GetRound(ctx context.Context) (*domain.RoundState, error) {
	result, err := c.client.HGetAll(ctx, roundKey).Result()
	if err != nil {
		return nil, fmt.Errorf("getting round: %w", err)
	}
	if len(result) == 0 {
		return nil, domain.ErrRoundStateNotFound
	}

	round, err := strconv.Atoi(result["round"])
	if err != nil {
		return nil, fmt.Errorf("parsing cached round: %w", err)
	}
	version, _ := strconv.ParseInt(result["version"], 10, 64)
	updatedAt, _ := time.Parse(time.RFC3339Nano, result["updated_at"])

	return &domain.RoundState{
		Round:     round,
		Version:   version,
		UpdatedBy: result["updated_by"],
		UpdatedAt: updatedAt,
	}, nil
}

// setRoundScript writes the round hash unless the cached version is newer.
// KEYS[1] round key; ARGV round, version, updated_by, updated_at, ttl ms.
var setRoundScript = redis.NewScript(`
local cached = redis.call('HGET', KEYS[1], 'version')
if cached and tonumber(cached) > tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'round', ARGV[1], 'version', ARGV[2], 'updated_by', ARGV[3], 'updated_at', ARGV[4])
if tonumber(ARGV[5]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[5])
end
return 1
`)

// SetRound caches a round state unless a newer version is already cached.
// The version check and the write run as one script.
func (c *Cache) SetRound(ctx context.Context, state domain.RoundState) error {
	err := setRoundScript.Run(ctx, c.client, []string{roundKey},
		state.Round,
		state.Version,
		state.UpdatedBy,
		state.UpdatedAt.Format(time.RFC3339Nano),
		c.roundTTL.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("setting round: %w", err)
	}
	return nil
}

// PublishRound announces a round change to every subscribed instance
func (c *Cache) PublishRound(ctx context.Context, state domain.RoundState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding round: %w", err)
	}
	if err := c.client.Publish(ctx, roundChannel, payload).Err(); err != nil {
		return fmt.Errorf("publishing round: %w", err)
	}
	return nil
}

// SubscribeRounds calls handle for every published round change until ctx
// is cancelled
func (c *Cache) SubscribeRounds(ctx context.Context, handle func(domain.RoundState)) error {
	pubsub := c.client.Subscribe(ctx, roundChannel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to rounds: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var state domain.RoundState
			if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
				c.logger.Error("failed to decode round message", "error", err)
				continue
			}
			handle(state)
		}
	}
}
