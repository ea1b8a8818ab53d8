package snapshotv1

import (
	"fmt"
	"strconv"
	"strings"
)

// Sides selects which ladder sides a snapshot includes.
type Sides string

const (
	// SidesBoth renders bids and asks.
	SidesBoth Sides = "both"
	// SidesBids renders the bid side only.
	SidesBids Sides = "bids"
	// SidesAsks renders the ask side only.
	SidesAsks Sides = "asks"
)

// Options controls how a depth snapshot is rendered.
type Options struct {
	// Depth is the number of price levels per side. 0 means all levels.
	Depth int
	// Sides selects which sides are included. Empty means both.
	Sides Sides
}

// Price is a fixed-point price that marshals as a fixed-decimal JSON number,
// e.g. 100.50 at the default scale of 100. Formatting is integer based so the
// rendering is exact.
type Price struct {
	Ticks int64
	Scale int64
}

// String formats the price with the number of decimals implied by the scale.
func (p Price) String() string {
	scale := p.Scale
	if scale <= 1 {
		return strconv.FormatInt(p.Ticks, 10)
	}

	decimals := 0
	for s := scale; s > 1; s /= 10 {
		decimals++
	}

	ticks := p.Ticks
	negative := ticks < 0
	if negative {
		ticks = -ticks
	}

	out := fmt.Sprintf("%d.%0*d", ticks/scale, decimals, ticks%scale)
	if negative {
		out = "-" + out
	}
	return out
}

// Float64 returns the price in currency units.
func (p Price) Float64() float64 {
	if p.Scale <= 1 {
		return float64(p.Ticks)
	}
	return float64(p.Ticks) / float64(p.Scale)
}

// MarshalJSON renders the price as an unquoted fixed-decimal number.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON parses a fixed-decimal number back into ticks, inferring the
// scale from the number of decimal places.
func (p *Price) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)

	whole, frac, found := strings.Cut(raw, ".")
	if !found {
		ticks, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", raw, err)
		}
		p.Ticks = ticks
		p.Scale = 1
		return nil
	}

	scale := int64(1)
	for range frac {
		scale *= 10
	}

	wholePart, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", raw, err)
	}
	fracPart, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", raw, err)
	}

	negative := strings.HasPrefix(whole, "-")
	if wholePart < 0 {
		wholePart = -wholePart
	}

	ticks := wholePart*scale + fracPart
	if negative {
		ticks = -ticks
	}

	p.Ticks = ticks
	p.Scale = scale
	return nil
}

// Entry is one resting order in a rendered snapshot.
type Entry struct {
	OrderID   uint64 `json:"order_id"`
	Timestamp string `json:"timestamp"`
	Price     Price  `json:"price"`
	Quantity  uint32 `json:"quantity"`
}

// Snapshot is a point-in-time, order-level rendering of one book. Entries are
// ordered by price priority (bids descending, asks ascending) and by FIFO
// position within a price. Field order and the fixed-decimal price format are
// the compatibility contract with downstream consumers.
type Snapshot struct {
	Symbol   string  `json:"symbol"`
	Sequence uint32  `json:"sequence"`
	Bids     []Entry `json:"bids"`
	Asks     []Entry `json:"asks"`

	// ID is assigned by the store when the snapshot is persisted.
	ID string `json:"id,omitempty"`
}
