package eventreaderv1

import (
	"context"

	marketdatav1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/marketdata/v1"
	"github.com/segmentio/kafka-go"
)

// EventReader defines the interface for reading MBO events from a source.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=eventreaderv1_mock
type EventReader interface {
	// ReadMessage reads a message and returns the decoded, validated event
	ReadMessage(ctx context.Context) (kafka.Message, *marketdatav1.Event, error)
	// SetOffset sets the offset for the reader
	SetOffset(offset int64) error
	// Close closes the reader
	Close() error

	// CommitMessages commits the messages to Kafka after processing
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}
