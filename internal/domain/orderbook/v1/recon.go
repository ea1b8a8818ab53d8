package orderbookv1

import (
	marketdatav1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/marketdata/v1"
)

// ReconBuffer holds events that reference an order id the book has not seen
// yet, usually a Cancel racing ahead of its Add across transport hops. At
// most one event is held per id; a later reference overwrites the earlier
// one.
type ReconBuffer struct {
	pending map[uint64]marketdatav1.Event
}

// NewReconBuffer creates an empty reconciliation buffer.
func NewReconBuffer() *ReconBuffer {
	return &ReconBuffer{
		pending: make(map[uint64]marketdatav1.Event),
	}
}

// Defer stores an event for an unseen order id, overwriting any previously
// deferred event for that id.
func (b *ReconBuffer) Defer(orderID uint64, event marketdatav1.Event) {
	b.pending[orderID] = event
}

// TryReplay removes and returns the deferred event for an id if one exists.
func (b *ReconBuffer) TryReplay(orderID uint64) (marketdatav1.Event, bool) {
	event, exists := b.pending[orderID]
	if exists {
		delete(b.pending, orderID)
	}
	return event, exists
}

// Len returns the number of deferred events.
func (b *ReconBuffer) Len() int {
	return len(b.pending)
}

// Purge drops every deferred event.
func (b *ReconBuffer) Purge() {
	b.pending = make(map[uint64]marketdatav1.Event)
}
