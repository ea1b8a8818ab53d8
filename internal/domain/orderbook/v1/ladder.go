package orderbookv1

import (
	"fmt"

	"github.com/google/btree"
)

// priceLevelsBTreeDegree is the btree degree for the per-side level tree.
const priceLevelsBTreeDegree = 32

// Ladder is one side of the book: price levels kept in a btree so level
// insert/erase is O(log P) and best-first iteration is ordered. Bids iterate
// descending, asks ascending.
type Ladder struct {
	bid    bool
	levels *btree.BTreeG[*PriceLevel]
}

// NewLadder creates an empty ladder for one side.
func NewLadder(bid bool) *Ladder {
	return &Ladder{
		bid: bid,
		levels: btree.NewG(priceLevelsBTreeDegree, func(a, b *PriceLevel) bool {
			return a.PriceTicks < b.PriceTicks
		}),
	}
}

// IsBid reports whether this is the bid side.
func (l *Ladder) IsBid() bool {
	return l.bid
}

// AddOrder appends an order to the FIFO tail of the level at priceTicks,
// creating the level if it does not exist yet.
func (l *Ladder) AddOrder(priceTicks int64, orderID uint64, size uint32) {
	level, exists := l.levels.Get(&PriceLevel{PriceTicks: priceTicks})
	if !exists {
		level = NewPriceLevel(priceTicks)
		l.levels.ReplaceOrInsert(level)
	}

	level.Append(orderID, size)
}

// RemoveOrder removes an order id from the level at priceTicks and erases the
// level once its FIFO is empty.
func (l *Ladder) RemoveOrder(priceTicks int64, orderID uint64, size uint32) error {
	level, exists := l.levels.Get(&PriceLevel{PriceTicks: priceTicks})
	if !exists {
		return fmt.Errorf("%w: price %d", ErrLevelNotFound, priceTicks)
	}

	if err := level.Remove(orderID, size); err != nil {
		return err
	}

	if level.IsEmpty() {
		l.levels.Delete(level)
	}

	return nil
}

// Walk visits levels in price priority order (bids high to low, asks low to
// high) until fn returns false. The walk restarts from the best level on
// every call.
func (l *Ladder) Walk(fn func(level *PriceLevel) bool) {
	if l.bid {
		l.levels.Descend(func(level *PriceLevel) bool {
			return fn(level)
		})
		return
	}

	l.levels.Ascend(func(level *PriceLevel) bool {
		return fn(level)
	})
}

// TopN returns up to n best levels in price priority order. n <= 0 returns
// every level.
func (l *Ladder) TopN(n int) []*PriceLevel {
	if n <= 0 {
		n = l.levels.Len()
	}

	levels := make([]*PriceLevel, 0, n)
	l.Walk(func(level *PriceLevel) bool {
		levels = append(levels, level)
		return len(levels) < n
	})
	return levels
}

// Best returns the best level of the side, or nil when the side is empty.
func (l *Ladder) Best() *PriceLevel {
	var best *PriceLevel
	l.Walk(func(level *PriceLevel) bool {
		best = level
		return false
	})
	return best
}

// Levels returns the number of price levels on this side.
func (l *Ladder) Levels() int {
	return l.levels.Len()
}
