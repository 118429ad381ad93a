package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/murder-mystery/internal/config"
	"github.com/murder-mystery/internal/domain"
)

type recordingHandler struct {
	mu      sync.Mutex
	batches [][]domain.Submission
}

func (h *recordingHandler) SubmitBatch(ctx context.Context, subs []domain.Submission) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, append([]domain.Submission(nil), subs...))
	return len(subs)
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.batches)
}

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32 { return nil }
func (s *fakeSession) MemberID() string { return "member" }
func (s *fakeSession) GenerationID() int32 { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string) {}
func (s *fakeSession) Commit() {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string { return "answer-submissions" }
func (c *fakeClaim) Partition() int32 { return 0 }
func (c *fakeClaim) InitialOffset() int64 { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64 { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func newGroupHandler(batchSize int, timeout time.Duration) (*consumerGroupHandler, *recordingHandler) {
	rec := &recordingHandler{}
	return &consumerGroupHandler{
		config:  &config.KafkaConfig{BatchSize: batchSize, BatchTimeout: timeout},
		handler: rec,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}, rec
}

func encode(t *testing.T, sub domain.Submission) []byte {
	t.Helper()
	data, err := EncodeSubmission(sub)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestConsumeClaimBatchesBySize(t *testing.T) {
	t.Parallel()
	h, rec := newGroupHandler(2, time.Hour)
	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 3)}

	claim.messages <- &sarama.ConsumerMessage{Offset: 1, Value: encode(t, domain.Submission{CharacterID: "c1", Category: domain.CategoryQR, Answer: "lantern"})}
	claim.messages <- &sarama.ConsumerMessage{Offset: 2, Value: []byte("not json")}
	claim.messages <- &sarama.ConsumerMessage{Offset: 3, Value: encode(t, domain.Submission{CharacterID: "c2", Category: domain.CategoryQR, Index: 1, Answer: "rope"})}
	close(claim.messages)

	if err := h.ConsumeClaim(session, claim); err != nil {
		t.Fatal(err)
	}

	if len(rec.batches) != 1 || len(rec.batches[0]) != 2 {
		t.Fatalf("expected one batch of two got %+v", rec.batches)
	}
	if rec.batches[0][1].Answer != "rope" || rec.batches[0][1].Index != 1 {
		t.Errorf("unexpected submission %+v", rec.batches[0][1])
	}
	if len(session.marked) != 1 || session.marked[0] != 3 {
		t.Errorf("expected offset 3 marked got %v", session.marked)
	}
}

func TestConsumeClaimFlushesOnTimeout(t *testing.T) {
	t.Parallel()
	h, rec := newGroupHandler(100, 10*time.Millisecond)
	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 1)}

	done := make(chan error, 1)
	go func() { done <- h.ConsumeClaim(session, claim) }()

	claim.messages <- &sarama.ConsumerMessage{Offset: 7, Value: encode(t, domain.Submission{CharacterID: "c1", Category: domain.CategoryRumor, Answer: "the butler"})}

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("batch was not flushed by the timer")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(claim.messages)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestDecodeSubmission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"valid", `{"character_id":"c1","category":"sentence","answer":"a b c"}`, nil},
		{"missing character", `{"category":"qr","answer":"rope"}`, domain.ErrInvalidRequest},
		{"unknown category", `{"character_id":"c1","category":"riddle","answer":"x"}`, domain.ErrInvalidCategory},
	}

	for _, tt := range tests {
		_, err := DecodeSubmission([]byte(tt.data))
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v got %v", tt.name, tt.wantErr, err)
		}
	}

	if _, err := DecodeSubmission([]byte("{")); err == nil {
		t.Error("expected error for malformed json")
	}
}

// fakeGroup runs consume for every Consume call
type fakeGroup struct {
	consume func(ctx context.Context, handler sarama.ConsumerGroupHandler) error
	calls   atomic.Int32
	closed  atomic.Bool
	errs    chan error
}

func newFakeGroup(consume func(ctx context.Context, handler sarama.ConsumerGroupHandler) error) *fakeGroup {
	return &fakeGroup{consume: consume, errs: make(chan error)}
}

func (g *fakeGroup) Consume(ctx context.Context, _ []string, handler sarama.ConsumerGroupHandler) error {
	g.calls.Add(1)
	return g.consume(ctx, handler)
}

func (g *fakeGroup) Errors() <-chan error { return g.errs }
func (g *fakeGroup) Close() error {
	g.closed.Store(true)
	return nil
}
func (g *fakeGroup) Pause(map[string][]int32) {}
func (g *fakeGroup) Resume(map[string][]int32) {}
func (g *fakeGroup) PauseAll() {}
func (g *fakeGroup) ResumeAll() {}

func newTestConsumer(group sarama.ConsumerGroup) *Consumer {
	c := newConsumer(
		&config.KafkaConfig{Topic: "answer-submissions", BatchSize: 1, BatchTimeout: time.Second},
		group,
		&recordingHandler{},
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
	)
	c.startTimeout = time.Second
	c.retryBackoff = 5 * time.Millisecond
	return c
}

func startWithin(t *testing.T, c *Consumer, limit time.Duration) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- c.Start() }()
	select {
	case err := <-done:
		return err
	case <-time.After(limit):
		t.Fatalf("Start did not return within %s", limit)
		return nil
	}
}

func TestStartFailsWhenConsumeFails(t *testing.T) {
	t.Parallel()
	group := newFakeGroup(func(ctx context.Context, _ sarama.ConsumerGroupHandler) error {
		return errors.New("kafka: topic not found")
	})
	c := newTestConsumer(group)

	err := startWithin(t, c, 2*time.Second)
	if err == nil {
		t.Fatal("expected start error when every Consume fails")
	}
	if !group.closed.Load() {
		t.Error("expected consumer group to be closed after failed start")
	}
	calls := group.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if group.calls.Load() != calls {
		t.Errorf("expected no retries after failed start got %d more", group.calls.Load()-calls)
	}
}

func TestStartTimesOutWithoutSession(t *testing.T) {
	t.Parallel()
	group := newFakeGroup(func(ctx context.Context, _ sarama.ConsumerGroupHandler) error {
		<-ctx.Done()
		return nil
	})
	c := newTestConsumer(group)
	c.startTimeout = 20 * time.Millisecond

	if err := startWithin(t, c, 2*time.Second); err == nil {
		t.Fatal("expected start timeout")
	}
	if !group.closed.Load() {
		t.Error("expected consumer group to be closed after timeout")
	}
}

func TestStartReadyThenRetriesWithBackoff(t *testing.T) {
	t.Parallel()
	group := newFakeGroup(func(ctx context.Context, handler sarama.ConsumerGroupHandler) error {
		if err := handler.Setup(nil); err != nil {
			return err
		}
		return errors.New("kafka: broker went away")
	})
	c := newTestConsumer(group)
	c.retryBackoff = 10 * time.Millisecond

	if err := startWithin(t, c, 2*time.Second); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	calls := group.calls.Load()
	if calls < 2 {
		t.Errorf("expected Consume to be retried got %d calls", calls)
	}
	// 10ms doubling over 100ms allows only a handful of attempts
	if calls > 6 {
		t.Errorf("expected backoff between attempts got %d calls", calls)
	}

	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	if !group.closed.Load() {
		t.Error("expected consumer group to be closed on stop")
	}
}
