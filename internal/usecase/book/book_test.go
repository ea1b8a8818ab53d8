package book

import (
	"testing"

	marketdatav1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/marketdata/v1"
	snapshotv1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/orderbook-recon/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a book with a real logger
func newTestBook(t *testing.T) *Book {
	log, err := logger.NewLogger()
	require.NoError(t, err)
	return NewBook("ARL", 100, log)
}

// Helper functions to build MBO events
func addEvent(orderID uint64, side marketdatav1.Side, price float64, size uint32, seq uint32) *marketdatav1.Event {
	return &marketdatav1.Event{
		TsEvent:  "2025-07-17T08:05:03.360677248Z",
		Action:   marketdatav1.ActionAdd,
		Side:     side,
		Price:    price,
		Size:     size,
		OrderID:  orderID,
		Sequence: seq,
		Symbol:   "ARL",
	}
}

func cancelEvent(orderID uint64, seq uint32) *marketdatav1.Event {
	return &marketdatav1.Event{
		TsEvent:  "2025-07-17T08:05:03.360677248Z",
		Action:   marketdatav1.ActionCancel,
		OrderID:  orderID,
		Sequence: seq,
		Symbol:   "ARL",
	}
}

func modifyEvent(orderID uint64, side marketdatav1.Side, price float64, size uint32, seq uint32) *marketdatav1.Event {
	return &marketdatav1.Event{
		TsEvent:  "2025-07-17T08:05:03.360677248Z",
		Action:   marketdatav1.ActionModify,
		Side:     side,
		Price:    price,
		Size:     size,
		OrderID:  orderID,
		Sequence: seq,
		Symbol:   "ARL",
	}
}

func tradeEvent(orderID uint64, size uint32, seq uint32) *marketdatav1.Event {
	return &marketdatav1.Event{
		TsEvent:  "2025-07-17T08:05:03.360677248Z",
		Action:   marketdatav1.ActionTrade,
		Side:     marketdatav1.SideAsk,
		Size:     size,
		OrderID:  orderID,
		Sequence: seq,
		Symbol:   "ARL",
	}
}

func fullSnapshot(b *Book) *snapshotv1.Snapshot {
	return b.Snapshot(snapshotv1.Options{Depth: 0, Sides: snapshotv1.SidesBoth})
}

// Test 1: Basic constructor
func TestNewBook(t *testing.T) {
	b := newTestBook(t)

	assert.Equal(t, "ARL", b.Symbol())
	assert.Equal(t, 0, b.OrderCount())
	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, uint32(0), b.LastSequence())
	require.NoError(t, b.Validate())
}

// Test 2: Apply a single add
func TestBook_Apply_Add(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 1)))

	assert.Equal(t, 1, b.OrderCount())
	assert.Equal(t, uint32(1), b.LastSequence())
	assert.Equal(t, uint64(1), b.Stats().Adds)

	snap := fullSnapshot(b)
	require.Len(t, snap.Bids, 1)
	assert.Empty(t, snap.Asks)
	assert.Equal(t, uint64(1), snap.Bids[0].OrderID)
	assert.Equal(t, "100.00", snap.Bids[0].Price.String())
	assert.Equal(t, uint32(10), snap.Bids[0].Quantity)

	require.NoError(t, b.Validate())
}

// Test 3: Duplicate add is ignored, the resting order is untouched
func TestBook_DuplicateAddIgnored(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 1)))
	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 105.00, 99, 2)))

	assert.Equal(t, 1, b.OrderCount())
	assert.Equal(t, uint64(1), b.Stats().Duplicates)

	// The original order still rests at its original price and size
	snap := fullSnapshot(b)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, "100.00", snap.Bids[0].Price.String())
	assert.Equal(t, uint32(10), snap.Bids[0].Quantity)

	require.NoError(t, b.Validate())
}

// Test 4: Three order scenario, bids descending and asks ascending
func TestBook_ThreeOrderScenario(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 1)))
	require.NoError(t, b.Apply(addEvent(2, marketdatav1.SideAsk, 101.00, 5, 2)))
	require.NoError(t, b.Apply(addEvent(3, marketdatav1.SideBuy, 100.50, 7, 3)))

	snap := fullSnapshot(b)

	// Bids best-first: 100.50 before 100.00
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, uint64(3), snap.Bids[0].OrderID)
	assert.Equal(t, "100.50", snap.Bids[0].Price.String())
	assert.Equal(t, uint32(7), snap.Bids[0].Quantity)
	assert.Equal(t, uint64(1), snap.Bids[1].OrderID)
	assert.Equal(t, "100.00", snap.Bids[1].Price.String())
	assert.Equal(t, uint32(10), snap.Bids[1].Quantity)

	require.Len(t, snap.Asks, 1)
	assert.Equal(t, uint64(2), snap.Asks[0].OrderID)
	assert.Equal(t, "101.00", snap.Asks[0].Price.String())
	assert.Equal(t, uint32(5), snap.Asks[0].Quantity)

	assert.Equal(t, uint32(3), snap.Sequence)
	require.NoError(t, b.Validate())
}

// Test 5: Cancel removes the order and its empty level
func TestBook_CancelRemovesOrder(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 1)))
	require.NoError(t, b.Apply(cancelEvent(1, 2)))

	assert.Equal(t, 0, b.OrderCount())
	assert.Equal(t, uint64(1), b.Stats().Cancels)

	snap := fullSnapshot(b)
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
	assert.NotNil(t, snap.Bids)
	assert.NotNil(t, snap.Asks)

	require.NoError(t, b.Validate())
}

// Test 6: FIFO order within a price level
func TestBook_FIFOWithinLevel(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 1)))
	require.NoError(t, b.Apply(addEvent(2, marketdatav1.SideBuy, 100.00, 5, 2)))
	require.NoError(t, b.Apply(addEvent(3, marketdatav1.SideBuy, 100.00, 7, 3)))

	snap := fullSnapshot(b)
	require.Len(t, snap.Bids, 3)
	assert.Equal(t, uint64(1), snap.Bids[0].OrderID)
	assert.Equal(t, uint64(2), snap.Bids[1].OrderID)
	assert.Equal(t, uint64(3), snap.Bids[2].OrderID)

	// Cancel the middle order, FIFO order of the rest is preserved
	require.NoError(t, b.Apply(cancelEvent(2, 4)))
	snap = fullSnapshot(b)
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, uint64(1), snap.Bids[0].OrderID)
	assert.Equal(t, uint64(3), snap.Bids[1].OrderID)

	require.NoError(t, b.Validate())
}

// Test 7: Cancel arriving before its add is deferred and replayed
func TestBook_CancelBeforeAdd(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(cancelEvent(7, 1)))
	assert.Equal(t, 1, b.PendingCount())
	assert.Equal(t, uint64(1), b.Stats().Deferred)
	assert.Equal(t, 0, b.OrderCount())

	// The add arrives, the deferred cancel replays against it immediately
	require.NoError(t, b.Apply(addEvent(7, marketdatav1.SideBuy, 100.00, 10, 2)))
	assert.Equal(t, 0, b.OrderCount())
	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, uint64(1), b.Stats().Replayed)
	assert.Equal(t, uint64(1), b.Stats().Cancels)

	snap := fullSnapshot(b)
	assert.Empty(t, snap.Bids)
	require.NoError(t, b.Validate())
}

// Test 8: A later deferred event overwrites an earlier one for the same id
func TestBook_DeferredLastWriteWins(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(cancelEvent(9, 1)))
	require.NoError(t, b.Apply(cancelEvent(9, 2)))
	assert.Equal(t, 1, b.PendingCount())
	assert.Equal(t, uint64(2), b.Stats().Deferred)

	require.NoError(t, b.Apply(addEvent(9, marketdatav1.SideAsk, 101.00, 5, 3)))
	assert.Equal(t, 0, b.OrderCount())
	assert.Equal(t, 0, b.PendingCount())
	require.NoError(t, b.Validate())
}

// Test 9: Modify moves the order to a new price
func TestBook_ModifyChangesPrice(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 1)))
	require.NoError(t, b.Apply(modifyEvent(1, marketdatav1.SideBuy, 100.50, 4, 2)))

	assert.Equal(t, 1, b.OrderCount())
	assert.Equal(t, uint64(1), b.Stats().Modifies)

	snap := fullSnapshot(b)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, "100.50", snap.Bids[0].Price.String())
	assert.Equal(t, uint32(4), snap.Bids[0].Quantity)

	require.NoError(t, b.Validate())
}

// Test 10: Modify loses queue priority even at the same price
func TestBook_ModifyLosesPriority(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 1)))
	require.NoError(t, b.Apply(addEvent(2, marketdatav1.SideBuy, 100.00, 5, 2)))

	// Order 1 is at the head before the modify
	snap := fullSnapshot(b)
	assert.Equal(t, uint64(1), snap.Bids[0].OrderID)

	require.NoError(t, b.Apply(modifyEvent(1, marketdatav1.SideBuy, 100.00, 8, 3)))

	snap = fullSnapshot(b)
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, uint64(2), snap.Bids[0].OrderID)
	assert.Equal(t, uint64(1), snap.Bids[1].OrderID)
	assert.Equal(t, uint32(8), snap.Bids[1].Quantity)

	require.NoError(t, b.Validate())
}

// Test 11: Modify for an order the book never saw is dropped
func TestBook_ModifyUnknownDropped(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(modifyEvent(42, marketdatav1.SideBuy, 100.00, 10, 1)))

	assert.Equal(t, 0, b.OrderCount())
	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, uint64(1), b.Stats().Dropped)
	require.NoError(t, b.Validate())
}

// Test 12: Trade does not mutate the resting order
func TestBook_TradeNoMutation(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideAsk, 101.00, 5, 1)))
	require.NoError(t, b.Apply(tradeEvent(1, 3, 2)))

	assert.Equal(t, uint64(1), b.Stats().Trades)

	snap := fullSnapshot(b)
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, uint32(5), snap.Asks[0].Quantity)

	// Trade against an unknown order is dropped
	require.NoError(t, b.Apply(tradeEvent(99, 1, 3)))
	assert.Equal(t, uint64(1), b.Stats().Dropped)
	require.NoError(t, b.Validate())
}

// Test 13: Snapshot depth limits levels, not orders
func TestBook_SnapshotDepth(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 1)))
	require.NoError(t, b.Apply(addEvent(2, marketdatav1.SideBuy, 100.50, 5, 2)))
	require.NoError(t, b.Apply(addEvent(3, marketdatav1.SideBuy, 100.50, 7, 3)))
	require.NoError(t, b.Apply(addEvent(4, marketdatav1.SideBuy, 99.00, 2, 4)))

	snap := b.Snapshot(snapshotv1.Options{Depth: 1, Sides: snapshotv1.SidesBoth})

	// Best bid level only, both of its orders
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, uint64(2), snap.Bids[0].OrderID)
	assert.Equal(t, uint64(3), snap.Bids[1].OrderID)
}

// Test 14: Snapshot side selection
func TestBook_SnapshotSides(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 1)))
	require.NoError(t, b.Apply(addEvent(2, marketdatav1.SideAsk, 101.00, 5, 2)))

	bidsOnly := b.Snapshot(snapshotv1.Options{Sides: snapshotv1.SidesBids})
	assert.Len(t, bidsOnly.Bids, 1)
	assert.Empty(t, bidsOnly.Asks)
	assert.NotNil(t, bidsOnly.Asks)

	asksOnly := b.Snapshot(snapshotv1.Options{Sides: snapshotv1.SidesAsks})
	assert.Empty(t, asksOnly.Bids)
	assert.Len(t, asksOnly.Asks, 1)
}

// Test 15: Sequence tracks the maximum seen, not the last
func TestBook_LastSequenceIsMax(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.00, 10, 5)))
	require.NoError(t, b.Apply(addEvent(2, marketdatav1.SideBuy, 99.00, 10, 3)))

	assert.Equal(t, uint32(5), b.LastSequence())
}

// Test 16: Sell side aliases map to the ask ladder
func TestBook_SellSideAlias(t *testing.T) {
	b := newTestBook(t)

	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideSell, 101.00, 5, 1)))

	snap := fullSnapshot(b)
	assert.Empty(t, snap.Bids)
	require.Len(t, snap.Asks, 1)
	require.NoError(t, b.Validate())
}

// Test 17: Invariants hold through a longer mixed sequence
func TestBook_ValidateAfterMixedSequence(t *testing.T) {
	b := newTestBook(t)

	events := []*marketdatav1.Event{
		cancelEvent(50, 1), // deferred
		addEvent(10, marketdatav1.SideBuy, 100.00, 10, 2),
		addEvent(11, marketdatav1.SideBuy, 100.00, 4, 3),
		addEvent(12, marketdatav1.SideAsk, 101.00, 6, 4),
		addEvent(13, marketdatav1.SideAsk, 102.25, 9, 5),
		modifyEvent(10, marketdatav1.SideBuy, 99.75, 10, 6),
		addEvent(50, marketdatav1.SideAsk, 103.00, 1, 7), // replays the deferred cancel
		tradeEvent(12, 2, 8),
		cancelEvent(13, 9),
		addEvent(14, marketdatav1.SideBuy, 100.25, 3, 10),
	}

	for _, ev := range events {
		require.NoError(t, b.Apply(ev))
		require.NoError(t, b.Validate())
	}

	assert.Equal(t, 4, b.OrderCount())
	assert.Equal(t, 0, b.PendingCount())

	snap := fullSnapshot(b)
	require.Len(t, snap.Bids, 3)
	assert.Equal(t, "100.25", snap.Bids[0].Price.String())
	assert.Equal(t, "100.00", snap.Bids[1].Price.String())
	assert.Equal(t, "99.75", snap.Bids[2].Price.String())
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, "101.00", snap.Asks[0].Price.String())
}

// Test 18: Scale defaults when constructed with a nonsense value
func TestNewBook_DefaultScale(t *testing.T) {
	log, err := logger.NewLogger()
	require.NoError(t, err)

	b := NewBook("ARL", 0, log)
	require.NoError(t, b.Apply(addEvent(1, marketdatav1.SideBuy, 100.50, 1, 1)))

	snap := fullSnapshot(b)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, "100.50", snap.Bids[0].Price.String())
}
