package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/spf13/cobra"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/kafka"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}

func run(ctx context.Context, cfg *Config, args []string, in io.Reader, out io.Writer) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Timeout = cfg.timeout
	saramaConfig.Net.DialTimeout = cfg.timeout

	producer, err := sarama.NewSyncProducer(cfg.brokers, saramaConfig)
	if err != nil {
		return fmt.Errorf("creating producer: %w", err)
	}
	defer producer.Close()

	p := &publisher{producer: producer, topic: cfg.topic, logger: logger}

	if len(args) > 0 {
		return p.publish(domain.Submission{
			CharacterID: cfg.characterID,
			Category:    domain.AnswerCategory(cfg.category),
			Index:       cfg.index,
			Answer:      strings.Join(args, " "),
		}, out)
	}

	return p.publishLines(ctx, cfg, in, out)
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// publish sends one submission keyed by character so a character's answers
// stay ordered on one partition
func (p *publisher) publish(sub domain.Submission, out io.Writer) error {
	data, err := kafka.EncodeSubmission(sub)
	if err != nil {
		return fmt.Errorf("encoding submission: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(sub.CharacterID),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		return fmt.Errorf("publishing submission: %w", err)
	}

	p.logger.Debug("published submission",
		"character_id", sub.CharacterID,
		"category", sub.Category,
		"partition", partition,
		"offset", offset,
	)
	fmt.Fprintf(out, "sent %s answer for %s\n", sub.Category, sub.CharacterID)
	return nil
}

// publishLines sends each scanned line as an answer until input ends.
// Publish failures are reported and the kiosk keeps scanning.
func (p *publisher) publishLines(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	failed := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			continue
		}
		err := p.publish(domain.Submission{
			CharacterID: cfg.characterID,
			Category:    domain.AnswerCategory(cfg.category),
			Index:       cfg.index,
			Answer:      answer,
		}, out)
		if err != nil {
			failed++
			p.logger.Error("failed to publish answer", "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading answers: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d answers were not published", failed)
	}
	return nil
}
