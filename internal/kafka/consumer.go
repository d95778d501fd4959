package kafka

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"escalation-service/internal/engine"
	"escalation-service/internal/models"
)

// Consumer reads externally raised escalation intents (client complaints,
// quality issues flagged by the CRM side) off the intake topic and opens
// escalations through the engine.
type Consumer struct {
	reader *kafka.Reader
	engine *engine.Engine
	logger *logrus.Logger
}

func NewConsumer(broker, topic, groupID string, eng *engine.Engine, logger *logrus.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: []string{broker},
			Topic:   topic,
			GroupID: groupID,
		}),
		engine: eng,
		logger: logger,
	}
}

type intakeMessage struct {
	ServiceRequestID string `json:"service_request_id"`
	ClientID         string `json:"client_id"`
	Type             string `json:"type"`
	Reason           string `json:"reason"`
	ReportedBy       string `json:"reported_by"`
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka intake consumer started")
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Infof("Kafka intake consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}

			var intake intakeMessage
			if err := json.Unmarshal(msg.Value, &intake); err != nil {
				c.logger.Errorf("Unmarshal intake message failed: %v", err)
				continue
			}

			if intake.ServiceRequestID == "" || intake.Reason == "" {
				c.logger.Errorf("Invalid intake message: missing service_request_id or reason")
				continue
			}
			escType := models.EscalationType(intake.Type)
			if !escType.Valid() || escType == models.TypeSLABreach {
				// Breaches come from the scanner only, never from intake.
				c.logger.Errorf("Invalid intake type %q for request %s", intake.Type, intake.ServiceRequestID)
				continue
			}

			actor := intake.ReportedBy
			if actor == "" {
				actor = "system:intake"
			}
			esc, err := c.engine.Create(ctx, engine.CreateRequest{
				ServiceRequestID: intake.ServiceRequestID,
				ClientID:         intake.ClientID,
				Type:             escType,
				Reason:           intake.Reason,
				Actor:            actor,
			})
			if err != nil {
				c.logger.Errorf("Create escalation from intake failed: %v", err)
				continue
			}
			c.logger.Infof("Escalation %s opened from intake (request %s)", esc.ID, intake.ServiceRequestID)
		}
	}()
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Close kafka reader failed: %v", err)
	}
}
