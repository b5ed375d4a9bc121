// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/bvk/barterbot/currency"
	"github.com/bvk/barterbot/economy"
	"github.com/shopspring/decimal"
)

type fakeOracle struct {
	prices    map[economy.SKU]*economy.Price
	instances map[economy.InstanceID]*economy.Price
	key       decimal.Decimal
	duplicable map[economy.SKU]bool
}

func (f *fakeOracle) Price(sku economy.SKU) (*economy.Price, bool) {
	p, ok := f.prices[sku]
	return p, ok
}

func (f *fakeOracle) InstancePrice(id economy.InstanceID) (*economy.Price, bool) {
	p, ok := f.instances[id]
	return p, ok
}

func (f *fakeOracle) KeyValue() decimal.Decimal {
	return f.key
}

func (f *fakeOracle) Duplicable(sku economy.SKU) bool {
	return f.duplicable[sku]
}

type fakePolicy struct {
	limits    map[economy.SKU]int
	names     map[economy.SKU]string
	refreshed []economy.SKU
}

func (f *fakePolicy) MaxTradableAmount(sku economy.SKU, asBuyer bool) (int, string) {
	name := f.names[sku]
	if name == "" {
		name = string(sku)
	}
	if limit, ok := f.limits[sku]; ok {
		return limit, name
	}
	return 1000, name
}

func (f *fakePolicy) RefreshListing(sku economy.SKU) {
	f.refreshed = append(f.refreshed, sku)
}

type fakeInventory struct {
	mu       sync.Mutex
	items    map[economy.SKU][]economy.InstanceID
	records  map[economy.InstanceID]*economy.InstanceRecord
	weapons  []economy.SKU
	released int
}

func (f *fakeInventory) FindBySKU(sku economy.SKU, tradableOnly bool) []economy.InstanceID {
	return slices.Clone(f.items[sku])
}

func (f *fakeInventory) CurrencyHoldings(weapons []economy.SKU, exclude []economy.SKU) map[economy.SKU][]economy.InstanceID {
	skus := []economy.SKU{currency.KeySKU, currency.RefinedSKU, currency.ReclaimedSKU, currency.ScrapSKU}
	skus = append(skus, weapons...)
	out := make(map[economy.SKU][]economy.InstanceID)
	for _, sku := range skus {
		if slices.Contains(exclude, sku) {
			continue
		}
		if ids, ok := f.items[sku]; ok {
			out[sku] = slices.Clone(ids)
		}
	}
	return out
}

func (f *fakeInventory) Instance(id economy.InstanceID) (*economy.InstanceRecord, bool) {
	if rec, ok := f.records[id]; ok {
		return rec, true
	}
	return &economy.InstanceRecord{ID: id, FullUses: true}, true
}

func (f *fakeInventory) TotalItemCount() int {
	n := 0
	for _, ids := range f.items {
		n += len(ids)
	}
	return n
}

func (f *fakeInventory) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

func (f *fakeInventory) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

type fakeSource struct {
	inv     *fakeInventory
	err     error
	fetches int
}

func (f *fakeSource) Fetch(ctx context.Context, trader economy.TraderID) (economy.Inventory, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.inv, nil
}

type fakeTrust struct {
	banned    bool
	escrow    bool
	bannedErr error
	escrowErr error
	blocked   []economy.TraderID
	blockErr  error
}

func (f *fakeTrust) IsBanned(ctx context.Context, trader economy.TraderID) (bool, error) {
	return f.banned, f.bannedErr
}

func (f *fakeTrust) WouldEscrow(ctx context.Context, trader economy.TraderID, offer economy.Offer) (bool, error) {
	return f.escrow, f.escrowErr
}

func (f *fakeTrust) BlockTrader(ctx context.Context, trader economy.TraderID) error {
	f.blocked = append(f.blocked, trader)
	return f.blockErr
}

type fakeDupes struct {
	verdicts map[economy.InstanceID]economy.DupeVerdict
	err      error
	checked  []economy.InstanceID
}

func (f *fakeDupes) CheckDuplicate(ctx context.Context, id economy.InstanceID, contextID string) (economy.DupeVerdict, error) {
	f.checked = append(f.checked, id)
	if f.err != nil {
		return economy.DupeIndeterminate, f.err
	}
	return f.verdicts[id], nil
}

type fakeActive struct {
	inTrade map[economy.InstanceID]bool
}

func (f *fakeActive) IsInTrade(id economy.InstanceID) bool {
	return f.inTrade[id]
}

type fakeOffer struct {
	our, their []economy.ItemRef
	meta       map[string]any
	rejects    map[economy.InstanceID]bool
	submitted  bool
}

func (f *fakeOffer) AddItem(ours bool, ref economy.ItemRef) bool {
	if f.rejects[ref.InstanceID] {
		return false
	}
	if ours {
		f.our = append(f.our, ref)
	} else {
		f.their = append(f.their, ref)
	}
	return true
}

func (f *fakeOffer) AttachMetadata(key string, value any) {
	if f.meta == nil {
		f.meta = make(map[string]any)
	}
	f.meta[key] = value
}

func (f *fakeOffer) Submit(ctx context.Context) error {
	f.submitted = true
	return nil
}

func (f *fakeOffer) contains(ours bool, id economy.InstanceID) bool {
	refs := f.their
	if ours {
		refs = f.our
	}
	for _, ref := range refs {
		if ref.InstanceID == id {
			return true
		}
	}
	return false
}

type fakeTransport struct {
	offers []*fakeOffer
}

func (f *fakeTransport) CreateOffer(trader economy.TraderID) economy.Offer {
	offer := &fakeOffer{}
	f.offers = append(f.offers, offer)
	return offer
}

func price(buy, sell int64) *economy.Price {
	return &economy.Price{
		Buy:  decimal.NewFromInt(buy),
		Sell: decimal.NewFromInt(sell),
	}
}

// newUserFixture builds a user cart where we own one hat and a pile of
// currency, and the counterparty owns 3 keys, 1 refined, 2 reclaimed and 1
// scrap.
func newUserFixture() (*UserCart, *fakeTransport, *fakeInventory, *fakeSource) {
	ours := &fakeInventory{
		items: map[economy.SKU][]economy.InstanceID{
			"hat;1":               {"h1"},
			currency.RefinedSKU:   {"or1", "or2", "or3", "or4", "or5", "or6"},
			currency.ReclaimedSKU: {"oc1", "oc2"},
			currency.ScrapSKU:     {"os1", "os2"},
		},
	}
	theirs := &fakeInventory{
		items: map[economy.SKU][]economy.InstanceID{
			currency.KeySKU:       {"k1", "k2", "k3"},
			currency.RefinedSKU:   {"r1"},
			currency.ReclaimedSKU: {"c1", "c2"},
			currency.ScrapSKU:     {"s1"},
		},
	}
	oracle := &fakeOracle{
		prices: map[economy.SKU]*economy.Price{
			"hat;1": price(100, 110),
		},
		key:        decimal.NewFromInt(50),
		duplicable: map[economy.SKU]bool{},
	}
	transport := &fakeTransport{}
	source := &fakeSource{inv: theirs}
	deps := &Deps{
		Pricer:           oracle,
		Policy:           &fakePolicy{names: map[economy.SKU]string{"hat;1": "Fancy Hat"}},
		Ours:             ours,
		Theirs:           source,
		Trust:            &fakeTrust{},
		Dupes:            &fakeDupes{},
		Active:           &fakeActive{inTrade: map[economy.InstanceID]bool{}},
		Transport:        transport,
		SkipItemsInTrade: true,
		MinKeysDupeCheck: decimal.NewFromInt(10),
	}
	c, err := NewUser("partner-1", deps)
	if err != nil {
		panic(err)
	}
	return c, transport, theirs, source
}
