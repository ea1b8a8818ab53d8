package eventreader

import (
	"context"

	marketdatav1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/marketdata/v1"
	"github.com/muhammadchandra19/orderbook-recon/pkg/config"
	"github.com/muhammadchandra19/orderbook-recon/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Reader represents a Kafka Reader for consuming MBO event records.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      logger.Interface
}

// NewReader creates a new Kafka reader for consuming messages from the MBO
// event topic. Events are published one CSV record per message.
// It returns an implementation of the EventReader interface.
func NewReader(cfg config.KafkaConfig, log logger.Interface) Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// logError is a helper method to log errors consistently
func (r Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset sets the offset for the Kafka reader.
func (r Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads a message from the Kafka topic and decodes it as an MBO
// event. Decode and validation failures are hard errors: they indicate
// upstream corruption, not a sequencing artifact.
func (r Reader) ReadMessage(ctx context.Context) (kafka.Message, *marketdatav1.Event, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{Offset: 0}, nil, err
	}

	event, err := marketdatav1.ParseCSV(string(msg.Value))
	if err != nil {
		r.logError(err, "DecodeEvent")
		return msg, nil, err
	}

	if err := event.Validate(); err != nil {
		r.logError(err, "ValidateEvent")
		return msg, nil, err
	}

	r.logger.Debug("ReadMessage",
		logger.Field{Key: "symbol", Value: event.Symbol},
		logger.Field{Key: "action", Value: string(event.Action)},
		logger.Field{Key: "orderID", Value: event.OrderID},
		logger.Field{Key: "sequence", Value: event.Sequence},
	)

	return msg, event, nil
}

// Close properly closes the Kafka reader.
func (r Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}

// CommitMessages commits the messages to Kafka after processing. The reader
// consumes a single partition without a consumer group, so offsets are
// tracked by the engine instead of the broker and this is a no-op.
func (r Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return nil
}
