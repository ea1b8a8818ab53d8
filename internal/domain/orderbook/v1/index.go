package orderbookv1

import "fmt"

// OrderIndex owns every live order in a book, keyed by the exchange-assigned
// order id. Lookup, insert and removal are O(1).
type OrderIndex struct {
	orders map[uint64]*LiveOrder
}

// NewOrderIndex creates an empty order index.
func NewOrderIndex() *OrderIndex {
	return &OrderIndex{
		orders: make(map[uint64]*LiveOrder),
	}
}

// Insert adds a live order to the index.
func (idx *OrderIndex) Insert(order *LiveOrder) error {
	if order == nil {
		return fmt.Errorf("order cannot be nil")
	}
	if _, exists := idx.orders[order.OrderID]; exists {
		return fmt.Errorf("%w: id %d", ErrDuplicateOrder, order.OrderID)
	}

	idx.orders[order.OrderID] = order
	return nil
}

// Remove deletes an order from the index and returns it.
func (idx *OrderIndex) Remove(orderID uint64) (*LiveOrder, error) {
	order, exists := idx.orders[orderID]
	if !exists {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownOrder, orderID)
	}

	delete(idx.orders, orderID)
	return order, nil
}

// Get returns the order for an id if present.
func (idx *OrderIndex) Get(orderID uint64) (*LiveOrder, bool) {
	order, exists := idx.orders[orderID]
	return order, exists
}

// Len returns the number of live orders.
func (idx *OrderIndex) Len() int {
	return len(idx.orders)
}

// Walk visits every live order. Iteration order is unspecified.
func (idx *OrderIndex) Walk(fn func(order *LiveOrder) bool) {
	for _, order := range idx.orders {
		if !fn(order) {
			return
		}
	}
}
