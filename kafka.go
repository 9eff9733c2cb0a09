package hns

import (
	"context"
	"encoding/json"

	"github.com/hotdogs-ns/hns/schema"
	"github.com/segmentio/kafka-go"
)

const (
	ActivityTopic = "hns_activity"
)

type KWriter struct {
	w *kafka.Writer
}

func NewKWriter(topic string, uri string) *KWriter {
	w := &kafka.Writer{
		Addr:     kafka.TCP(uri),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return &KWriter{w: w}
}

// PublishActivity writes one message per event keyed by tld, so a tld's events stay ordered.
func (kw *KWriter) PublishActivity(ctx context.Context, manager string, events []schema.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		body, err := json.Marshal(schema.KafkaActivity{ActivityEvent: ev, Manager: manager})
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(ev.Tld), Value: body})
	}
	return kw.w.WriteMessages(ctx, msgs...)
}

func (kw *KWriter) Close() {
	kw.w.Close()
}
