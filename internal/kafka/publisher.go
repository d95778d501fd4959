package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"escalation-service/internal/events"
	"escalation-service/internal/utils"
)

// Publisher writes engine events to the events topic. Messages are keyed by
// escalation id so one escalation's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

func NewPublisher(broker, topic string, logger *logrus.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(broker),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		logger: logger,
	}
}

// Publish sends the event, retrying transient broker errors. Event delivery
// must never block or fail a committed transition, so errors are logged and
// swallowed.
func (p *Publisher) Publish(ev events.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Errorf("Marshal event %s failed: %v", ev.Name, err)
		return
	}

	err = utils.Retry(p.logger, 3, time.Second, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(ev.Escalation.ID),
			Value: payload,
		})
	})
	if err != nil {
		p.logger.Errorf("Publish event %s for escalation %s failed: %v", ev.Name, ev.Escalation.ID, err)
	}
}

func (p *Publisher) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Errorf("Close kafka writer failed: %v", err)
	}
}
