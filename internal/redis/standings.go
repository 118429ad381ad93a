package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/murder-mystery/internal/domain"
)

// standingsKey returns the Redis key for a board's sorted set
func standingsKey(board string) string {
	return fmt.Sprintf("mystery:standings:%s", board)
}

// SetScore sets a character's score on a board
func (c *Cache) SetScore(ctx context.Context, board, characterID string, score int64) error {
	err := c.client.ZAdd(ctx, standingsKey(board), redis.Z{
		Score:  float64(score),
		Member: characterID,
	}).Err()
	if err != nil {
		return fmt.Errorf("setting score: %w", err)
	}
	return nil
}

// IncrementScore increments a character's score by the given delta
func (c *Cache) IncrementScore(ctx context.Context, board, characterID string, delta int64) (int64, error) {
	newScore, err := c.client.ZIncrBy(ctx, standingsKey(board), float64(delta), characterID).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing score: %w", err)
	}
	return int64(newScore), nil
}

// GetTopN returns the top N characters of a board (descending order)
func (c *Cache) GetTopN(ctx context.Context, board string, n int) ([]domain.StandingEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, standingsKey(board), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}

	entries := make([]domain.StandingEntry, len(results))
	for i, result := range results {
		entries[i] = domain.StandingEntry{
			Rank:        int64(i + 1),
			CharacterID: result.Member.(string),
			Score:       int64(result.Score),
		}
	}
	return entries, nil
}

// ReplaceScores atomically swaps the content of a board
func (c *Cache) ReplaceScores(ctx context.Context, board string, scores map[string]int64) error {
	key := standingsKey(board)
	pipe := c.client.TxPipeline()

	pipe.Del(ctx, key)
	for characterID, score := range scores {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(score),
			Member: characterID,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replacing scores: %w", err)
	}
	return nil
}
