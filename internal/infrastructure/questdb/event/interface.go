package event

import "context"

// Archive is the interface for the applied-event archive.
//
//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=mock
type Archive interface {
	Store(ctx context.Context, record *Record) error
	StoreBatch(ctx context.Context, records []*Record) error
	GetByFilter(ctx context.Context, filter Filter) ([]*Record, error)
}
