// internal/circulation/ledger.go
package circulation

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// InventoryLedger is the single owner of per-item available copy counts.
// Available copies change only through TryReserve and Release, which keeps
// 0 <= available <= total at all times. Total copies belong to the catalog;
// Register syncs them in.
type InventoryLedger struct {
	mu    sync.Mutex
	items map[uuid.UUID]*copyCount
}

type copyCount struct {
	total     int
	available int
}

// NewInventoryLedger creates an empty ledger.
func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{items: make(map[uuid.UUID]*copyCount)}
}

// Register records the catalog-owned total for an item. On re-registration
// the available count moves by the change in total, clamped to zero, so
// copies out on loan stay accounted for.
func (l *InventoryLedger) Register(itemID uuid.UUID, totalCopies int) {
	if totalCopies < 0 {
		totalCopies = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.items[itemID]
	if !ok {
		l.items[itemID] = &copyCount{total: totalCopies, available: totalCopies}
		return
	}
	c.available += totalCopies - c.total
	if c.available < 0 {
		c.available = 0
	}
	if c.available > totalCopies {
		c.available = totalCopies
	}
	c.total = totalCopies
}

// Known reports whether the item has been registered.
func (l *InventoryLedger) Known(itemID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.items[itemID]
	return ok
}

// TryReserve takes one copy out of circulation. It returns false without
// changing anything when no copy is available or the item is unknown.
func (l *InventoryLedger) TryReserve(itemID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.items[itemID]
	if !ok || c.available <= 0 {
		return false
	}
	c.available--
	return true
}

// Release puts one copy back. Releasing beyond the catalog total means the
// ledger and loan store have diverged, which is reported rather than fixed.
func (l *InventoryLedger) Release(itemID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.items[itemID]
	if !ok {
		return fmt.Errorf("release of unregistered item %s: %w", itemID, ErrInconsistentState)
	}
	if c.available >= c.total {
		return fmt.Errorf("release would exceed %d total copies of item %s: %w", c.total, itemID, ErrInconsistentState)
	}
	c.available++
	return nil
}

// AvailableCopies returns the number of copies that can be lent right now.
// Unknown items report zero.
func (l *InventoryLedger) AvailableCopies(itemID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.items[itemID]; ok {
		return c.available
	}
	return 0
}

// TotalCopies returns the catalog total last registered for the item.
func (l *InventoryLedger) TotalCopies(itemID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.items[itemID]; ok {
		return c.total
	}
	return 0
}
