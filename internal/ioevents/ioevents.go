// Package ioevents publishes results of harvests for downstream
// services, for example to start processing of a provider.
package ioevents

import (
	"context"
	"log/slog"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventHarvestFinished is the type of events sent after every harvest.
const EventHarvestFinished = "harvest.finished"

// Publisher sends harvest events. Failures are logged, a harvest does
// not fail because its event was lost.
type Publisher interface {
	HarvestFinished(ctx context.Context, info *harvest.Info)
	Close() error
}

// Event is the value of a published message.
type Event struct {
	EventID   string        `json:"eventId"`
	EventType string        `json:"eventType"`
	Timestamp time.Time     `json:"timestamp"`
	Harvest   *harvest.Info `json:"harvest"`
}

// NewEvent creates the event of a finished harvest.
func NewEvent(info *harvest.Info) Event {
	return Event{
		EventID:   uuid.NewString(),
		EventType: EventHarvestFinished,
		Timestamp: time.Now().UTC(),
		Harvest:   info,
	}
}

// New returns a kafka publisher if brokers are configured, otherwise a
// publisher that does nothing.
func New(cfg *config.Config) Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return NewNoop()
	}
	return NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

type kafkaPublisher struct {
	writer *kafka.Writer
	enc    gnfmt.GNjson
}

// NewKafka creates a publisher that writes to topic. Messages are keyed
// by provider identifier, so events of one provider keep their order.
func NewKafka(brokers []string, topic string) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 10 * time.Second,
			MaxAttempts:  3,
		},
	}
}

func (k *kafkaPublisher) HarvestFinished(
	ctx context.Context,
	info *harvest.Info,
) {
	ev := NewEvent(info)
	value, err := k.enc.Encode(ev)
	if err != nil {
		slog.Error("Cannot encode harvest event", "provider", info.ID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(info.ID),
		Value: value,
		Time:  ev.Timestamp,
	}
	if err = k.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Cannot publish harvest event",
			"provider", info.ID,
			"topic", k.writer.Topic,
			"error", err,
		)
		return
	}
	slog.Info("Harvest event published",
		"provider", info.ID, "status", info.Status.String())
}

func (k *kafkaPublisher) Close() error {
	return k.writer.Close()
}

type noop struct{}

// NewNoop creates a publisher that drops events.
func NewNoop() Publisher { return noop{} }

func (noop) HarvestFinished(context.Context, *harvest.Info) {}

func (noop) Close() error { return nil }
