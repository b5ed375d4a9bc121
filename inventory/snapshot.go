// Copyright (c) 2025 BVK Chaitanya

// Package inventory fetches and holds trader inventory snapshots. A snapshot
// is immutable once built; offer construction works against one snapshot and
// releases it when done.
package inventory

import (
	"sync"

	"github.com/bvk/barterbot/currency"
	"github.com/bvk/barterbot/economy"
)

// Item is one inventory entry with its platform tradability flag.
type Item struct {
	economy.InstanceRecord

	Tradable bool
}

type Snapshot struct {
	mu sync.Mutex

	itemMap map[economy.InstanceID]*Item

	// skuMap preserves the service's item order per sku.
	skuMap map[economy.SKU][]economy.InstanceID

	total int
}

// NewStatic builds a snapshot from in-memory items.
func NewStatic(items []*Item) *Snapshot {
	s := &Snapshot{
		itemMap: make(map[economy.InstanceID]*Item),
		skuMap:  make(map[economy.SKU][]economy.InstanceID),
	}
	for _, item := range items {
		if _, ok := s.itemMap[item.ID]; ok {
			continue
		}
		s.itemMap[item.ID] = item
		s.skuMap[item.SKU] = append(s.skuMap[item.SKU], item.ID)
		s.total++
	}
	return s
}

// FindBySKU implements economy.Inventory.
func (s *Snapshot) FindBySKU(sku economy.SKU, tradableOnly bool) []economy.InstanceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []economy.InstanceID
	for _, id := range s.skuMap[sku] {
		if tradableOnly && !s.itemMap[id].Tradable {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// CurrencyHoldings implements economy.Inventory. Only tradable instances
// count as spendable currency.
func (s *Snapshot) CurrencyHoldings(weapons []economy.SKU, exclude []economy.SKU) map[economy.SKU][]economy.InstanceID {
	skus := []economy.SKU{currency.KeySKU, currency.RefinedSKU, currency.ReclaimedSKU, currency.ScrapSKU}
	skus = append(skus, weapons...)

	excluded := make(map[economy.SKU]bool)
	for _, sku := range exclude {
		excluded[sku] = true
	}

	holdings := make(map[economy.SKU][]economy.InstanceID)
	for _, sku := range skus {
		if excluded[sku] {
			continue
		}
		holdings[sku] = s.FindBySKU(sku, true)
	}
	return holdings
}

// Instance implements economy.Inventory.
func (s *Snapshot) Instance(id economy.InstanceID) (*economy.InstanceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.itemMap[id]
	if !ok {
		return nil, false
	}
	r := item.InstanceRecord
	return &r, true
}

// TotalItemCount implements economy.Inventory.
func (s *Snapshot) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Release implements economy.Inventory. Idempotent.
func (s *Snapshot) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemMap = nil
	s.skuMap = nil
	s.total = 0
}

// Count returns the number of tradable instances of an item type.
func (s *Snapshot) Count(sku economy.SKU) int {
	return len(s.FindBySKU(sku, true))
}
