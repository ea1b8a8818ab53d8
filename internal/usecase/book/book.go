package book

import (
	"fmt"
	"math"

	marketdatav1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/marketdata/v1"
	orderbookv1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/orderbook/v1"
	snapshotv1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/orderbook-recon/pkg/logger"
)

// Stats counts what happened to the events a book has seen.
type Stats struct {
	Adds       uint64
	Cancels    uint64
	Modifies   uint64
	Trades     uint64
	Duplicates uint64
	Deferred   uint64
	Replayed   uint64
	Dropped    uint64
}

// Book reconstructs one symbol's limit order book from its MBO event stream.
// All mutation happens through Apply; the order index owns every live order
// and the ladders reference orders by id only, so the two structures move in
// lock-step. Book is not safe for concurrent use: the caller owns it.
type Book struct {
	symbol string
	scale  int64

	index *orderbookv1.OrderIndex
	bids  *orderbookv1.Ladder
	asks  *orderbookv1.Ladder
	recon *orderbookv1.ReconBuffer

	lastSequence uint32
	arrivalSeq   uint64

	logger *logger.Logger
	stats  Stats
}

// NewBook creates an empty book for a symbol. scale is the number of price
// ticks per currency unit (100 keeps 2 decimal places).
func NewBook(symbol string, scale int64, log *logger.Logger) *Book {
	if scale <= 0 {
		scale = 100
	}

	return &Book{
		symbol: symbol,
		scale:  scale,
		index:  orderbookv1.NewOrderIndex(),
		bids:   orderbookv1.NewLadder(true),
		asks:   orderbookv1.NewLadder(false),
		recon:  orderbookv1.NewReconBuffer(),
		logger: log,
	}
}

// Apply dispatches one event into the book. Protocol violations (duplicate
// Add, references to unknown orders) are recovered locally and never corrupt
// the book; only an internal inconsistency returns an error.
func (b *Book) Apply(event *marketdatav1.Event) error {
	return b.apply(event, 0)
}

func (b *Book) apply(event *marketdatav1.Event, depth int) error {
	if event.Sequence > b.lastSequence {
		b.lastSequence = event.Sequence
	}

	switch event.Action {
	case marketdatav1.ActionAdd:
		return b.handleAdd(event, depth)
	case marketdatav1.ActionCancel:
		return b.handleCancel(event)
	case marketdatav1.ActionModify, marketdatav1.ActionReplace:
		return b.handleModify(event)
	case marketdatav1.ActionTrade:
		return b.handleTrade(event)
	default:
		b.logger.Warn("Unknown action skipped",
			logger.Field{Key: "symbol", Value: b.symbol},
			logger.Field{Key: "action", Value: string(event.Action)},
			logger.Field{Key: "orderID", Value: event.OrderID},
		)
		return nil
	}
}

func (b *Book) handleAdd(event *marketdatav1.Event, depth int) error {
	if _, exists := b.index.Get(event.OrderID); exists {
		// Duplicate adds are a protocol violation, not a crash.
		b.stats.Duplicates++
		b.logger.Warn("Duplicate add ignored",
			logger.Field{Key: "symbol", Value: b.symbol},
			logger.Field{Key: "orderID", Value: event.OrderID},
			logger.Field{Key: "code", Value: "duplicate_order"},
		)
		return nil
	}

	order := orderbookv1.NewLiveOrder(
		event.OrderID,
		event.Side.IsBuy(),
		b.toTicks(event.Price),
		event.Size,
		event.TsEvent,
		b.nextArrivalSeq(),
	)

	if err := b.index.Insert(order); err != nil {
		return err
	}
	b.ladder(order.Bid).AddOrder(order.PriceTicks, order.OrderID, order.Size)
	b.stats.Adds++

	// A Cancel/Modify/Trade may have raced ahead of this Add. At most one
	// deferred event exists per id, so recursion is bounded to one level.
	if depth == 0 {
		if pending, ok := b.recon.TryReplay(event.OrderID); ok {
			b.stats.Replayed++
			return b.apply(&pending, depth+1)
		}
	}

	return nil
}

func (b *Book) handleCancel(event *marketdatav1.Event) error {
	order, exists := b.index.Get(event.OrderID)
	if !exists {
		// Out-of-order arrival: hold the cancel until the add shows up.
		b.recon.Defer(event.OrderID, *event)
		b.stats.Deferred++
		b.logger.Debug("Cancel deferred for unseen order",
			logger.Field{Key: "symbol", Value: b.symbol},
			logger.Field{Key: "orderID", Value: event.OrderID},
		)
		return nil
	}

	if err := b.removeOrder(order); err != nil {
		return err
	}
	b.stats.Cancels++
	return nil
}

func (b *Book) handleModify(event *marketdatav1.Event) error {
	order, exists := b.index.Get(event.OrderID)
	if !exists {
		// Unknown modify is a no-op, unlike cancel it is not deferred.
		b.stats.Dropped++
		b.logger.Debug("Modify for unknown order dropped",
			logger.Field{Key: "symbol", Value: b.symbol},
			logger.Field{Key: "orderID", Value: event.OrderID},
			logger.Field{Key: "code", Value: "unknown_order"},
		)
		return nil
	}

	// A modify is always remove-then-reinsert so the level FIFO stays equal
	// to arrival order. The reinserted order keeps the side of the resting
	// order and takes a fresh arrival sequence: queue priority is lost even
	// when the price is unchanged.
	bid := order.Bid
	if err := b.removeOrder(order); err != nil {
		return err
	}

	replacement := orderbookv1.NewLiveOrder(
		event.OrderID,
		bid,
		b.toTicks(event.Price),
		event.Size,
		event.TsEvent,
		b.nextArrivalSeq(),
	)

	if err := b.index.Insert(replacement); err != nil {
		return err
	}
	b.ladder(bid).AddOrder(replacement.PriceTicks, replacement.OrderID, replacement.Size)
	b.stats.Modifies++
	return nil
}

func (b *Book) handleTrade(event *marketdatav1.Event) error {
	order, exists := b.index.Get(event.OrderID)
	if !exists {
		b.stats.Dropped++
		b.logger.Debug("Trade for unknown order dropped",
			logger.Field{Key: "symbol", Value: b.symbol},
			logger.Field{Key: "orderID", Value: event.OrderID},
			logger.Field{Key: "code", Value: "unknown_order"},
		)
		return nil
	}

	// Trade is a notification only: the resting size is not reduced here,
	// the feed sends the size change as its own event.
	b.stats.Trades++
	b.logger.Debug("Trade against resting order",
		logger.Field{Key: "symbol", Value: b.symbol},
		logger.Field{Key: "orderID", Value: order.OrderID},
		logger.Field{Key: "tradeSize", Value: event.Size},
		logger.Field{Key: "restingSize", Value: order.Size},
	)
	return nil
}

// removeOrder takes an order out of its ladder and the index together.
func (b *Book) removeOrder(order *orderbookv1.LiveOrder) error {
	if err := b.ladder(order.Bid).RemoveOrder(order.PriceTicks, order.OrderID, order.Size); err != nil {
		return fmt.Errorf("ladder out of sync with index: %w", err)
	}
	if _, err := b.index.Remove(order.OrderID); err != nil {
		return fmt.Errorf("index out of sync with ladder: %w", err)
	}
	return nil
}

// Snapshot renders the order-level depth view: entries ordered by price
// priority, then by FIFO position within a price.
func (b *Book) Snapshot(opts snapshotv1.Options) *snapshotv1.Snapshot {
	sides := opts.Sides
	if sides == "" {
		sides = snapshotv1.SidesBoth
	}

	snapshot := &snapshotv1.Snapshot{
		Symbol:   b.symbol,
		Sequence: b.lastSequence,
		Bids:     []snapshotv1.Entry{},
		Asks:     []snapshotv1.Entry{},
	}

	if sides == snapshotv1.SidesBoth || sides == snapshotv1.SidesBids {
		snapshot.Bids = b.renderSide(b.bids, opts.Depth)
	}
	if sides == snapshotv1.SidesBoth || sides == snapshotv1.SidesAsks {
		snapshot.Asks = b.renderSide(b.asks, opts.Depth)
	}

	return snapshot
}

func (b *Book) renderSide(ladder *orderbookv1.Ladder, depth int) []snapshotv1.Entry {
	entries := []snapshotv1.Entry{}

	for _, level := range ladder.TopN(depth) {
		for _, orderID := range level.OrderIDs() {
			order, exists := b.index.Get(orderID)
			if !exists {
				continue
			}
			entries = append(entries, snapshotv1.Entry{
				OrderID:   order.OrderID,
				Timestamp: order.ArrivalTs,
				Price:     snapshotv1.Price{Ticks: order.PriceTicks, Scale: b.scale},
				Quantity:  order.Size,
			})
		}
	}

	return entries
}

// Validate checks the book invariants: the index and the ladders hold
// exactly the same order ids, level aggregates equal the sum of their
// orders, and each ladder's prices are strictly ordered best-first.
func (b *Book) Validate() error {
	seen := make(map[uint64]bool, b.index.Len())

	for _, ladder := range []*orderbookv1.Ladder{b.bids, b.asks} {
		var walkErr error
		prev := int64(0)
		first := true

		ladder.Walk(func(level *orderbookv1.PriceLevel) bool {
			if !first {
				if ladder.IsBid() && level.PriceTicks >= prev {
					walkErr = fmt.Errorf("bid ladder not strictly decreasing: %d after %d", level.PriceTicks, prev)
					return false
				}
				if !ladder.IsBid() && level.PriceTicks <= prev {
					walkErr = fmt.Errorf("ask ladder not strictly increasing: %d after %d", level.PriceTicks, prev)
					return false
				}
			}
			prev = level.PriceTicks
			first = false

			var levelSize uint64
			for _, orderID := range level.OrderIDs() {
				if seen[orderID] {
					walkErr = fmt.Errorf("order %d appears twice in ladders", orderID)
					return false
				}
				seen[orderID] = true

				order, exists := b.index.Get(orderID)
				if !exists {
					walkErr = fmt.Errorf("order %d in ladder but not in index", orderID)
					return false
				}
				if order.PriceTicks != level.PriceTicks {
					walkErr = fmt.Errorf("order %d price %d does not match level %d", orderID, order.PriceTicks, level.PriceTicks)
					return false
				}
				levelSize += uint64(order.Size)
			}

			if levelSize != level.AggregateSize {
				walkErr = fmt.Errorf("level %d aggregate %d, orders sum to %d", level.PriceTicks, level.AggregateSize, levelSize)
				return false
			}
			return true
		})

		if walkErr != nil {
			return walkErr
		}
	}

	if len(seen) != b.index.Len() {
		return fmt.Errorf("index holds %d orders, ladders hold %d", b.index.Len(), len(seen))
	}

	return nil
}

// Symbol returns the symbol this book reconstructs.
func (b *Book) Symbol() string {
	return b.symbol
}

// LastSequence returns the highest sequence number applied so far.
func (b *Book) LastSequence() uint32 {
	return b.lastSequence
}

// OrderCount returns the number of live orders.
func (b *Book) OrderCount() int {
	return b.index.Len()
}

// PendingCount returns the number of deferred out-of-order events.
func (b *Book) PendingCount() int {
	return b.recon.Len()
}

// Stats returns the book's event counters.
func (b *Book) Stats() Stats {
	return b.stats
}

func (b *Book) ladder(bid bool) *orderbookv1.Ladder {
	if bid {
		return b.bids
	}
	return b.asks
}

func (b *Book) toTicks(price float64) int64 {
	return int64(math.Round(price * float64(b.scale)))
}

func (b *Book) nextArrivalSeq() uint64 {
	b.arrivalSeq++
	return b.arrivalSeq
}
