// Copyright (c) 2025 BVK Chaitanya

// Package pricelist keeps the tradable item catalog in the key-value
// database. Every tradable item type has one entry with buy/sell prices in
// scrap units and stock bounds; uniquely identified instances may carry a
// price override. Items without an entry are untracked and never traded.
package pricelist

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"sync"
	"time"

	"github.com/bvk/barterbot/currency"
	"github.com/bvk/barterbot/economy"
	"github.com/bvk/barterbot/gobs"
	"github.com/bvk/barterbot/kvutil"
	"github.com/bvkgo/kv"
	"github.com/shopspring/decimal"
)

var (
	Keyspace     = "/pricelist/"
	itemsDir     = "/pricelist/items/"
	instancesDir = "/pricelist/instances/"
)

// EntryKey returns the db key holding the price entry for an item type.
func EntryKey(sku economy.SKU) string {
	return path.Join(itemsDir, string(sku))
}

// Stock reports how many units of an item type the bot currently owns.
type Stock interface {
	Count(sku economy.SKU) int
}

// Refresher receives item types whose listings need to be recreated.
type Refresher interface {
	RefreshListing(sku economy.SKU)
}

type Pricelist struct {
	db kv.Database

	stock     Stock
	refresher Refresher

	mu          sync.Mutex
	entryMap    map[economy.SKU]*gobs.PricelistEntry
	overrideMap map[economy.InstanceID]*gobs.InstanceOverride
	keyValue    decimal.Decimal
}

// Load reads all price entries and instance overrides into memory. The key
// currency entry is mandatory; without it no trade can be valued.
func Load(ctx context.Context, db kv.Database, stock Stock, refresher Refresher) (*Pricelist, error) {
	p := &Pricelist{
		db:          db,
		stock:       stock,
		refresher:   refresher,
		entryMap:    make(map[economy.SKU]*gobs.PricelistEntry),
		overrideMap: make(map[economy.InstanceID]*gobs.InstanceOverride),
	}

	begin, end := kvutil.PathRange(itemsDir)
	loadEntry := func(ctx context.Context, r kv.Reader, key string, v *gobs.PricelistEntry) error {
		if err := checkEntry(v); err != nil {
			return fmt.Errorf("invalid price entry at key %q: %w", key, err)
		}
		p.entryMap[economy.SKU(v.SKU)] = v
		return nil
	}
	if err := kvutil.AscendDB(ctx, db, begin, end, loadEntry); err != nil {
		return nil, fmt.Errorf("could not load price entries: %w", err)
	}

	begin, end = kvutil.PathRange(instancesDir)
	loadOverride := func(ctx context.Context, r kv.Reader, key string, v *gobs.InstanceOverride) error {
		p.overrideMap[economy.InstanceID(v.InstanceID)] = v
		return nil
	}
	if err := kvutil.AscendDB(ctx, db, begin, end, loadOverride); err != nil {
		return nil, fmt.Errorf("could not load instance overrides: %w", err)
	}

	kentry, ok := p.entryMap[currency.KeySKU]
	if !ok {
		return nil, fmt.Errorf("price list has no key entry %q: %w", currency.KeySKU, os.ErrNotExist)
	}
	p.keyValue = kentry.Sell
	return p, nil
}

func checkEntry(v *gobs.PricelistEntry) error {
	if len(v.SKU) == 0 {
		return fmt.Errorf("sku cannot be empty: %w", os.ErrInvalid)
	}
	if v.Buy.IsNegative() || v.Sell.IsNegative() {
		return fmt.Errorf("prices cannot be negative: %w", os.ErrInvalid)
	}
	if v.Sell.LessThan(v.Buy) {
		return fmt.Errorf("sell price cannot be below buy price: %w", os.ErrInvalid)
	}
	if v.Max >= 0 && v.Min > v.Max {
		return fmt.Errorf("min stock cannot exceed max stock: %w", os.ErrInvalid)
	}
	return nil
}

// Set creates or replaces a price entry.
func (p *Pricelist) Set(ctx context.Context, entry *gobs.PricelistEntry) error {
	if err := checkEntry(entry); err != nil {
		return err
	}
	v, err := gobs.Clone(entry)
	if err != nil {
		return err
	}
	v.UpdateTime = time.Now()

	key := path.Join(itemsDir, v.SKU)
	if err := kvutil.SetDB(ctx, p.db, key, v); err != nil {
		return fmt.Errorf("could not save price entry for %q: %w", v.SKU, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entryMap[economy.SKU(v.SKU)] = v
	if economy.SKU(v.SKU) == currency.KeySKU {
		p.keyValue = v.Sell
	}
	return nil
}

// Delete removes a price entry, making the item untracked. The key entry
// cannot be removed.
func (p *Pricelist) Delete(ctx context.Context, sku economy.SKU) error {
	if sku == currency.KeySKU {
		return fmt.Errorf("key price entry cannot be deleted: %w", os.ErrInvalid)
	}
	key := path.Join(itemsDir, string(sku))
	del := func(ctx context.Context, rw kv.ReadWriter) error {
		return rw.Delete(ctx, key)
	}
	if err := kv.WithReadWriter(ctx, p.db, del); err != nil {
		return fmt.Errorf("could not delete price entry for %q: %w", sku, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entryMap, sku)
	return nil
}

// Get returns a copy of the price entry for an item type.
func (p *Pricelist) Get(sku economy.SKU) (*gobs.PricelistEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entryMap[sku]
	if !ok {
		return nil, false
	}
	v, err := gobs.Clone(entry)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Entries returns copies of all price entries.
func (p *Pricelist) Entries() []*gobs.PricelistEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var vs []*gobs.PricelistEntry
	for _, entry := range p.entryMap {
		v, err := gobs.Clone(entry)
		if err != nil {
			continue
		}
		vs = append(vs, v)
	}
	return vs
}

// SetOverride creates or replaces a per-instance price override.
func (p *Pricelist) SetOverride(ctx context.Context, ov *gobs.InstanceOverride) error {
	if len(ov.InstanceID) == 0 {
		return fmt.Errorf("instance id cannot be empty: %w", os.ErrInvalid)
	}
	if ov.Buy.IsNegative() || ov.Sell.IsNegative() {
		return fmt.Errorf("prices cannot be negative: %w", os.ErrInvalid)
	}
	v, err := gobs.Clone(ov)
	if err != nil {
		return err
	}
	key := path.Join(instancesDir, v.InstanceID)
	if err := kvutil.SetDB(ctx, p.db, key, v); err != nil {
		return fmt.Errorf("could not save override for instance %q: %w", v.InstanceID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrideMap[economy.InstanceID(v.InstanceID)] = v
	return nil
}

// DeleteOverride removes a per-instance price override.
func (p *Pricelist) DeleteOverride(ctx context.Context, id economy.InstanceID) error {
	key := path.Join(instancesDir, string(id))
	del := func(ctx context.Context, rw kv.ReadWriter) error {
		return rw.Delete(ctx, key)
	}
	if err := kv.WithReadWriter(ctx, p.db, del); err != nil {
		return fmt.Errorf("could not delete override for instance %q: %w", id, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.overrideMap, id)
	return nil
}

// Price implements economy.PriceOracle.
func (p *Pricelist) Price(sku economy.SKU) (*economy.Price, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entryMap[sku]
	if !ok || !entry.Enabled {
		return nil, false
	}
	return &economy.Price{Buy: entry.Buy, Sell: entry.Sell}, true
}

// InstancePrice implements economy.PriceOracle.
func (p *Pricelist) InstancePrice(id economy.InstanceID) (*economy.Price, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ov, ok := p.overrideMap[id]
	if !ok {
		return nil, false
	}
	return &economy.Price{Buy: ov.Buy, Sell: ov.Sell}, true
}

// KeyValue implements economy.PriceOracle.
func (p *Pricelist) KeyValue() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keyValue
}

// Duplicable implements economy.PriceOracle.
func (p *Pricelist) Duplicable(sku economy.SKU) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entryMap[sku]
	return ok && entry.Duplicable
}

// MaxTradableAmount implements economy.TradePolicy. When buying, the bot
// takes items only up to the entry's max stock bound; when selling, it keeps
// at least the min stock bound.
func (p *Pricelist) MaxTradableAmount(sku economy.SKU, asBuyer bool) (int, string) {
	p.mu.Lock()
	entry, ok := p.entryMap[sku]
	p.mu.Unlock()
	if !ok || !entry.Enabled {
		return 0, string(sku)
	}

	stock := p.stock.Count(sku)
	if asBuyer {
		if entry.Max < 0 {
			return int(^uint(0) >> 1), entry.Name
		}
		if n := entry.Max - stock; n > 0 {
			return n, entry.Name
		}
		return 0, entry.Name
	}
	if n := stock - entry.Min; n > 0 {
		return n, entry.Name
	}
	return 0, entry.Name
}

// RefreshListing implements economy.TradePolicy.
func (p *Pricelist) RefreshListing(sku economy.SKU) {
	if p.refresher != nil {
		p.refresher.RefreshListing(sku)
		return
	}
	log.Printf("pricelist: listing refresh requested for %q", sku)
}
