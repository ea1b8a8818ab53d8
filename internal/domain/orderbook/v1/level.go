package orderbookv1

import "fmt"

// PriceLevel holds the FIFO queue of order ids resting at one price. The
// queue order is arrival time priority; ids are appended at the tail and may
// be removed from any position on cancel.
type PriceLevel struct {
	PriceTicks    int64
	AggregateSize uint64

	orderIDs []uint64
}

// NewPriceLevel creates an empty price level.
func NewPriceLevel(priceTicks int64) *PriceLevel {
	return &PriceLevel{
		PriceTicks: priceTicks,
	}
}

// Append adds an order id to the FIFO tail and grows the aggregate size.
func (l *PriceLevel) Append(orderID uint64, size uint32) {
	l.orderIDs = append(l.orderIDs, orderID)
	l.AggregateSize += uint64(size)
}

// Remove deletes an order id from the FIFO, from any position, and shrinks
// the aggregate size.
func (l *PriceLevel) Remove(orderID uint64, size uint32) error {
	for i, id := range l.orderIDs {
		if id == orderID {
			l.orderIDs = append(l.orderIDs[:i], l.orderIDs[i+1:]...)
			l.AggregateSize -= uint64(size)
			return nil
		}
	}

	return fmt.Errorf("%w: id %d at price %d", ErrUnknownOrder, orderID, l.PriceTicks)
}

// IsEmpty checks if the level has no resting orders.
func (l *PriceLevel) IsEmpty() bool {
	return len(l.orderIDs) == 0
}

// Len returns the number of orders at this level.
func (l *PriceLevel) Len() int {
	return len(l.orderIDs)
}

// OrderIDs returns a copy of the FIFO queue, head first.
func (l *PriceLevel) OrderIDs() []uint64 {
	ids := make([]uint64, len(l.orderIDs))
	copy(ids, l.orderIDs)
	return ids
}
