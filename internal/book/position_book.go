package book

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// PositionBook tracks open broker positions and in-flight orders. It is
// rebuilt from upstream snapshots and execution streams on restart; nothing
// here persists.
type PositionBook struct {
	mu        sync.RWMutex
	orders    map[int64]model.Order
	positions map[int64]model.Position
}

// NewPositionBook creates an empty position book.
func NewPositionBook() *PositionBook {
	return &PositionBook{
		orders:    make(map[int64]model.Order),
		positions: make(map[int64]model.Position),
	}
}

// AddOrder upserts an open order, or removes it once its status is terminal.
func (b *PositionBook) AddOrder(order model.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if order.Status.Done() {
		delete(b.orders, order.ID)
		return
	}
	b.orders[order.ID] = order
}

// AddPosition upserts a position, or removes it when the quantity is zero.
// A flat position is never stored as zero.
func (b *PositionBook) AddPosition(position model.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if position.Quantity.IsZero() {
		delete(b.positions, position.ContractID)
		return
	}
	b.positions[position.ContractID] = position
}

// Order returns the open order with the given broker order ID.
func (b *PositionBook) Order(id int64) (model.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	order, ok := b.orders[id]
	return order, ok
}

// Position returns the open position for the given contract ID.
func (b *PositionBook) Position(contractID int64) (model.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	position, ok := b.positions[contractID]
	return position, ok
}

// HasContract reports whether any open order or position references the
// given contract.
func (b *PositionBook) HasContract(contractID int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.positions[contractID]; ok {
		return true
	}
	for _, order := range b.orders {
		if order.ContractID == contractID {
			return true
		}
	}
	return false
}

// HasUnderlying reports whether anything open references the underlying
// symbol, including derivatives on it. Linear over the open book; a single
// desk's book stays small.
func (b *PositionBook) HasUnderlying(symbol string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, position := range b.positions {
		if position.Underlying == symbol {
			return true
		}
	}
	for _, order := range b.orders {
		if order.Underlying == symbol {
			return true
		}
	}
	return false
}

// Inventory returns the signed sum of position quantities for an underlying.
// This is the quoting model's balance input.
func (b *PositionBook) Inventory(symbol string) decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := decimal.Zero
	for _, position := range b.positions {
		if position.Underlying == symbol {
			total = total.Add(position.Quantity)
		}
	}
	return total
}

// Positions returns the open positions sorted by contract ID.
func (b *PositionBook) Positions() []model.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()

	positions := make([]model.Position, 0, len(b.positions))
	for _, position := range b.positions {
		positions = append(positions, position)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].ContractID < positions[j].ContractID
	})
	return positions
}

// OpenOrders returns the number of in-flight orders.
func (b *PositionBook) OpenOrders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.orders)
}
