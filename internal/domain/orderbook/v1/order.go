package orderbookv1

import "errors"

var (
	// ErrDuplicateOrder is returned when an order id is already resting in the book.
	ErrDuplicateOrder = errors.New("order id already exists in book")
	// ErrUnknownOrder is returned when an order id is not resting in the book.
	ErrUnknownOrder = errors.New("order not found in book")
	// ErrLevelNotFound is returned when a price level does not exist on a side.
	ErrLevelNotFound = errors.New("price level not found")
	// ErrInvalidSize is returned when an order size is zero.
	ErrInvalidSize = errors.New("size must be positive")
	// ErrInvalidPrice is returned when a price is not positive.
	ErrInvalidPrice = errors.New("price must be positive")
)

// LiveOrder is one resting order owned by the OrderIndex. Price ladders only
// ever reference it by id.
type LiveOrder struct {
	OrderID    uint64 `json:"orderID"`
	Bid        bool   `json:"bid"`
	PriceTicks int64  `json:"priceTicks"`
	Size       uint32 `json:"size"`

	// ArrivalTs is the feed timestamp captured when the order was added.
	ArrivalTs string `json:"arrivalTs"`

	// ArrivalSeq is a book-local monotonic counter. A Modify reinserts the
	// order with a fresh ArrivalSeq, so queue priority is always lost.
	ArrivalSeq uint64 `json:"arrivalSeq"`
}

// NewLiveOrder creates a resting order.
func NewLiveOrder(orderID uint64, bid bool, priceTicks int64, size uint32, arrivalTs string, arrivalSeq uint64) *LiveOrder {
	return &LiveOrder{
		OrderID:    orderID,
		Bid:        bid,
		PriceTicks: priceTicks,
		Size:       size,
		ArrivalTs:  arrivalTs,
		ArrivalSeq: arrivalSeq,
	}
}

// IsBid checks if the order rests on the bid side.
func (o *LiveOrder) IsBid() bool {
	return o.Bid
}

// IsAsk checks if the order rests on the ask side.
func (o *LiveOrder) IsAsk() bool {
	return !o.Bid
}
