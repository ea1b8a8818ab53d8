package orderbookv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: Insert and lookup
func TestOrderIndex_InsertAndGet(t *testing.T) {
	idx := NewOrderIndex()
	order := NewLiveOrder(1, true, 10000, 10, "2025-07-17T08:05:03Z", 1)

	require.NoError(t, idx.Insert(order))
	assert.Equal(t, 1, idx.Len())

	got, exists := idx.Get(1)
	require.True(t, exists)
	assert.Equal(t, order, got)

	_, exists = idx.Get(2)
	assert.False(t, exists)
}

// Test 2: Duplicate insert is rejected
func TestOrderIndex_DuplicateInsert(t *testing.T) {
	idx := NewOrderIndex()
	require.NoError(t, idx.Insert(NewLiveOrder(1, true, 10000, 10, "", 1)))

	err := idx.Insert(NewLiveOrder(1, false, 10100, 5, "", 2))
	assert.ErrorIs(t, err, ErrDuplicateOrder)
	assert.Equal(t, 1, idx.Len())
}

// Test 3: Nil insert is rejected
func TestOrderIndex_NilInsert(t *testing.T) {
	idx := NewOrderIndex()
	assert.Error(t, idx.Insert(nil))
}

// Test 4: Remove returns the order and unknown remove errors
func TestOrderIndex_Remove(t *testing.T) {
	idx := NewOrderIndex()
	order := NewLiveOrder(1, true, 10000, 10, "", 1)
	require.NoError(t, idx.Insert(order))

	removed, err := idx.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, order, removed)
	assert.Equal(t, 0, idx.Len())

	_, err = idx.Remove(1)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

// Test 5: Walk visits every order and stops on false
func TestOrderIndex_Walk(t *testing.T) {
	idx := NewOrderIndex()
	require.NoError(t, idx.Insert(NewLiveOrder(1, true, 10000, 10, "", 1)))
	require.NoError(t, idx.Insert(NewLiveOrder(2, false, 10100, 5, "", 2)))
	require.NoError(t, idx.Insert(NewLiveOrder(3, true, 9900, 7, "", 3)))

	visited := 0
	idx.Walk(func(order *LiveOrder) bool {
		visited++
		return true
	})
	assert.Equal(t, 3, visited)

	visited = 0
	idx.Walk(func(order *LiveOrder) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}
