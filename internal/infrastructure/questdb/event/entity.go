package event

import "time"

// Record is one applied MBO event as written to the archive table.
type Record struct {
	Timestamp time.Time
	Symbol    string
	Action    string
	Side      string
	Price     float64
	Size      int64
	OrderID   int64
	Sequence  int64
}

// Filter represents the filter criteria for archived events.
type Filter struct {
	Symbol string
	From   *time.Time
	To     *time.Time
	Limit  int
}
