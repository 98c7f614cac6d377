package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/metrics"
)

const publishTimeout = 2 * time.Second

type KafkaPublisher struct {
	writer *kafkago.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher writes every event to topic, keyed by Event.Key so
// events of one ride or match keep their order.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}

	msgs := make([]kafkago.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			p.logger.Error().Err(err).Str("event_type", string(e.Type)).Msg("failed to encode event")
			metrics.EventsPublishedTotal.WithLabelValues(string(e.Type), "error").Inc()
			continue
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(e.Key),
			Value: value,
			Headers: []kafkago.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}

	// The request may be finished by the time the broker answers.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	outcome := "ok"
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		outcome = "error"
		p.logger.Error().Err(err).Int("count", len(msgs)).Msg("failed to publish events")
	}
	for _, m := range msgs {
		metrics.EventsPublishedTotal.WithLabelValues(string(m.Headers[0].Value), outcome).Inc()
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
