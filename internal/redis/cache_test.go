package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/murder-mystery/internal/domain"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheFromClient(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestRoundCache(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, err := c.GetRound(ctx); !errors.Is(err, domain.ErrRoundStateNotFound) {
		t.Fatalf("expected miss got %v", err)
	}

	now := time.Date(2026, 10, 31, 21, 0, 0, 0, time.UTC)
	if err := c.SetRound(ctx, domain.RoundState{Round: 2, Version: 5, UpdatedBy: "host", UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	got, err := c.GetRound(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Round != 2 || got.Version != 5 || got.UpdatedBy != "host" || !got.UpdatedAt.Equal(now) {
		t.Errorf("unexpected state %+v", got)
	}

	// an older version never replaces a newer one
	if err := c.SetRound(ctx, domain.RoundState{Round: 0, Version: 4}); err != nil {
		t.Fatal(err)
	}
	got, _ = c.GetRound(ctx)
	if got.Round != 2 {
		t.Errorf("stale write applied: %+v", got)
	}

	if ttl := mr.TTL(roundKey); ttl != time.Minute {
		t.Errorf("expected ttl 1m got %s", ttl)
	}
}

func TestRoundCacheConcurrentWritersKeepNewest(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for v := int64(1); v <= 40; v++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			if err := c.SetRound(ctx, domain.RoundState{Round: int(v % 4), Version: v}); err != nil {
				t.Error(err)
			}
		}(v)
	}
	wg.Wait()

	got, err := c.GetRound(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 40 || got.Round != 0 {
		t.Errorf("expected version 40 round 0 got %+v", got)
	}

	// a reconciliation carrying an older version cannot roll the cache back
	if err := c.SetRound(ctx, domain.RoundState{Round: 3, Version: 39}); err != nil {
		t.Fatal(err)
	}
	got, _ = c.GetRound(ctx)
	if got.Version != 40 {
		t.Errorf("expected version 40 kept got %+v", got)
	}
}

func TestRoundPubSub(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.RoundState, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.SubscribeRounds(ctx, func(state domain.RoundState) { received <- state })
	}()

	// publish until the subscriber is attached
	deadline := time.After(2 * time.Second)
	for {
		if err := c.PublishRound(context.Background(), domain.RoundState{Round: 3, Version: 9}); err != nil {
			t.Fatal(err)
		}
		select {
		case state := <-received:
			if state.Round != 3 || state.Version != 9 {
				t.Errorf("unexpected state %+v", state)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("unexpected subscribe error: %v", err)
			}
			return
		case <-deadline:
			t.Fatal("round message never received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestStandings(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, err := c.IncrementScore(ctx, "3", "c1", 3); err != nil {
		t.Fatal(err)
	}
	total, err := c.IncrementScore(ctx, "3", "c1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("expected 5 got %d", total)
	}
	if err := c.SetScore(ctx, "3", "c2", 7); err != nil {
		t.Fatal(err)
	}

	top, err := c.GetTopN(ctx, "3", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].CharacterID != "c2" || top[0].Rank != 1 || top[1].Score != 5 {
		t.Errorf("unexpected standings %+v", top)
	}

	if err := c.ReplaceScores(ctx, "3", map[string]int64{"c3": 1}); err != nil {
		t.Fatal(err)
	}
	top, _ = c.GetTopN(ctx, "3", 10)
	if len(top) != 1 || top[0].CharacterID != "c3" {
		t.Errorf("expected replaced board got %+v", top)
	}

	if mr.Exists(standingsKey("2")) {
		t.Error("expected untouched board to stay empty")
	}
}
