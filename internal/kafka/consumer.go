package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/murder-mystery/internal/config"
	"github.com/murder-mystery/internal/domain"
)

// SubmissionHandler scores kiosk answer submissions
type SubmissionHandler interface {
	SubmitBatch(ctx context.Context, subs []domain.Submission) int
}

const (
	defaultStartTimeout = 30 * time.Second
	defaultRetryBackoff = time.Second
	maxRetryBackoff     = 30 * time.Second
)

// Consumer consumes kiosk answer submissions from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	handler       SubmissionHandler
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup

	startTimeout time.Duration
	retryBackoff time.Duration
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, handler SubmissionHandler, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	// Kiosk scans made while the server was down must still score
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating consumer group: %w", err)
	}

	return newConsumer(cfg, consumerGroup, handler, logger), nil
}

func newConsumer(cfg *config.KafkaConfig, group sarama.ConsumerGroup, handler SubmissionHandler, logger *slog.Logger) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		handler:       handler,
		logger:        logger,
		consumerGroup: group,
		ctx:           ctx,
		cancel:        cancel,
		startTimeout:  defaultStartTimeout,
		retryBackoff:  defaultRetryBackoff,
	}
}

// Start joins the consumer group and returns once the first session is set
// up. A failure before that point, or no session within the start timeout,
// stops the consumer and returns an error so the caller can run without it.
func (c *Consumer) Start() error {
	c.logger.Info("starting kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	ready := make(chan struct{})
	failed := make(chan error, 1)

	c.wg.Add(1)
	go c.consume(ready, failed)

	timer := time.NewTimer(c.startTimeout)
	defer timer.Stop()

	select {
	case <-ready:
		c.logger.Info("kafka consumer ready")
	case err := <-failed:
		c.abort()
		return fmt.Errorf("joining consumer group: %w", err)
	case <-timer.C:
		c.abort()
		return fmt.Errorf("joining consumer group: no session after %s", c.startTimeout)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// consume runs consumer group sessions until the consumer is stopped.
// Errors before the first session are reported on failed; later ones are
// retried with exponential backoff.
func (c *Consumer) consume(ready chan struct{}, failed chan<- error) {
	defer c.wg.Done()

	var once sync.Once
	backoff := c.retryBackoff

	for {
		handler := &consumerGroupHandler{
			config:  c.config,
			handler: c.handler,
			logger:  c.logger,
			ready:   ready,
			once:    &once,
		}

		err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) || c.ctx.Err() != nil {
			return
		}
		if err == nil {
			// Rebalance; rejoin immediately
			backoff = c.retryBackoff
			continue
		}

		select {
		case <-ready:
			c.logger.Error("error from consumer", "error", err, "retry_in", backoff)
		default:
			select {
			case failed <- err:
			default:
			}
		}

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

// abort tears down a consumer whose start failed
func (c *Consumer) abort() {
	c.cancel()
	c.wg.Wait()
	if err := c.consumerGroup.Close(); err != nil {
		c.logger.Warn("closing consumer group", "error", err)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	config  *config.KafkaConfig
	handler SubmissionHandler
	logger  *slog.Logger
	ready   chan struct{}
	once    *sync.Once
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	if h.ready != nil {
		h.once.Do(func() { close(h.ready) })
	}
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim batches submissions of a partition by size and timeout.
// Offsets are marked once a batch has been handed to the service.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	batchSize := h.config.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	timeout := h.config.BatchTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	batch := make([]domain.Submission, 0, batchSize)
	var last *sarama.ConsumerMessage

	batchTimer := time.NewTimer(timeout)
	defer batchTimer.Stop()

	processBatch := func() {
		if len(batch) > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			accepted := h.handler.SubmitBatch(ctx, batch)
			cancel()
			h.logger.Debug("processed submission batch",
				"batch_size", len(batch),
				"accepted", accepted,
			)
			batch = batch[:0]
		}
		if last != nil {
			session.MarkMessage(last, "")
			last = nil
		}
	}

	for {
		select {
		case <-session.Context().Done():
			processBatch()
			return nil

		case <-batchTimer.C:
			processBatch()
			batchTimer.Reset(timeout)

		case message, ok := <-claim.Messages():
			if !ok {
				processBatch()
				return nil
			}
			last = message

			submission, err := DecodeSubmission(message.Value)
			if err != nil {
				h.logger.Warn("dropping kiosk message",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				continue
			}

			batch = append(batch, submission)
			if len(batch) >= batchSize {
				processBatch()
				batchTimer.Reset(timeout)
			}
		}
	}
}

// Message is the wire format of a kiosk submission
type Message struct {
	CharacterID string `json:"character_id"`
	Category    string `json:"category"`
	Index       int    `json:"index"`
	Answer      string `json:"answer"`
}

// EncodeSubmission serializes a submission for the topic
func EncodeSubmission(sub domain.Submission) ([]byte, error) {
	return json.Marshal(Message{
		CharacterID: sub.CharacterID,
		Category:    string(sub.Category),
		Index:       sub.Index,
		Answer:      sub.Answer,
	})
}

// DecodeSubmission parses a kiosk message, rejecting ones that can never
// be scored
func DecodeSubmission(data []byte) (domain.Submission, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.Submission{}, fmt.Errorf("decoding submission: %w", err)
	}

	sub := domain.Submission{
		CharacterID: msg.CharacterID,
		Category:    domain.AnswerCategory(msg.Category),
		Index:       msg.Index,
		Answer:      msg.Answer,
	}
	if sub.CharacterID == "" {
		return sub, fmt.Errorf("%w: missing character_id", domain.ErrInvalidRequest)
	}
	if !sub.Category.Valid() {
		return sub, domain.ErrInvalidCategory
	}
	return sub, nil
}
