package notification

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
)

const DefaultAlertTopic = "ees.alerts"

// MessageWriter is the part of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// KafkaSink publishes alerts as JSON so an out-of-process mailer can deliver
// them.
type KafkaSink struct {
	writer MessageWriter
	topic  string
}

func NewKafkaSink(writer MessageWriter, topic string) *KafkaSink {
	if topic == "" {
		topic = DefaultAlertTopic
	}
	return &KafkaSink{writer: writer, topic: topic}
}

func (s *KafkaSink) SendAlert(ctx context.Context, alert Alert) error {
	msg, err := alertMessage(s.topic, alert)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

func alertMessage(topic string, alert Alert) (kafkago.Message, error) {
	payload, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal alert: %w", err)
	}

	return kafkago.Message{
		Topic: topic,
		Key:   []byte(alert.RequestID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte("critical_alert")},
		},
	}, nil
}
