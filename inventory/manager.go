// Copyright (c) 2025 BVK Chaitanya

package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bvk/barterbot/economy"
)

// Manager holds the bot's own inventory. The current snapshot is replaced on
// each refresh; readers always see one consistent snapshot. Manager owns the
// snapshots, so Release on the manager itself is a no-op.
type Manager struct {
	source economy.InventorySource
	trader economy.TraderID

	mu      sync.Mutex
	current *Snapshot
}

func NewManager(source economy.InventorySource, trader economy.TraderID) *Manager {
	return &Manager{
		source:  source,
		trader:  trader,
		current: NewStatic(nil),
	}
}

// Refresh replaces the current snapshot with a fresh fetch.
func (m *Manager) Refresh(ctx context.Context) error {
	inv, err := m.source.Fetch(ctx, m.trader)
	if err != nil {
		return fmt.Errorf("could not refresh own inventory: %w", err)
	}
	snap, ok := inv.(*Snapshot)
	if !ok {
		return fmt.Errorf("unexpected inventory snapshot type %T", inv)
	}

	m.mu.Lock()
	old := m.current
	m.current = snap
	m.mu.Unlock()

	old.Release()
	return nil
}

func (m *Manager) snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// FindBySKU implements economy.Inventory.
func (m *Manager) FindBySKU(sku economy.SKU, tradableOnly bool) []economy.InstanceID {
	return m.snapshot().FindBySKU(sku, tradableOnly)
}

// CurrencyHoldings implements economy.Inventory.
func (m *Manager) CurrencyHoldings(weapons []economy.SKU, exclude []economy.SKU) map[economy.SKU][]economy.InstanceID {
	return m.snapshot().CurrencyHoldings(weapons, exclude)
}

// Instance implements economy.Inventory.
func (m *Manager) Instance(id economy.InstanceID) (*economy.InstanceRecord, bool) {
	return m.snapshot().Instance(id)
}

// TotalItemCount implements economy.Inventory.
func (m *Manager) TotalItemCount() int {
	return m.snapshot().TotalItemCount()
}

// Release implements economy.Inventory. The manager owns its snapshots, so
// this is a no-op.
func (m *Manager) Release() {}

// Count reports the tradable stock of an item type.
func (m *Manager) Count(sku economy.SKU) int {
	return m.snapshot().Count(sku)
}
