package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/srgjo27/car_rental/internal/core/domain"
)

const (
	HeaderEventType = "event-type"
	HeaderSource    = "source"

	EventTypeCarBooked = "car.booked"
	source             = "car-rental"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher emits booking events keyed by car id, so all events for one car
// land on the same partition.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string, topic string, logger *log.Entry) *Publisher {
	return NewPublisherWithWriter(&kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafkago.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  kafkago.LoggerFunc(logger.Errorf),
	})
}

func NewPublisherWithWriter(w messageWriter) *Publisher {
	return &Publisher{writer: w}
}

func (p *Publisher) PublishCarBooked(ctx context.Context, event domain.CarBookedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "encode car booked event")
	}

	msg := kafkago.Message{
		Key:   []byte(event.CarID),
		Value: value,
		Time:  event.BookedAt,
		Headers: []kafkago.Header{
			{Key: HeaderEventType, Value: []byte(EventTypeCarBooked)},
			{Key: HeaderSource, Value: []byte(source)},
		},
	}

	return errors.Wrap(p.writer.WriteMessages(ctx, msg), "publish car booked event")
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
