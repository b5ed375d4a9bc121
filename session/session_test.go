// Copyright (c) 2025 BVK Chaitanya

package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bvk/barterbot/cart"
	"github.com/bvk/barterbot/currency"
	"github.com/bvk/barterbot/economy"
	"github.com/bvk/barterbot/inventory"
	"github.com/shopspring/decimal"
)

type fakeOracle struct {
	prices map[economy.SKU]*economy.Price
}

func (o *fakeOracle) Price(sku economy.SKU) (*economy.Price, bool) {
	p, ok := o.prices[sku]
	return p, ok
}

func (o *fakeOracle) InstancePrice(id economy.InstanceID) (*economy.Price, bool) {
	return nil, false
}

func (o *fakeOracle) KeyValue() decimal.Decimal {
	return decimal.NewFromInt(50)
}

func (o *fakeOracle) Duplicable(sku economy.SKU) bool {
	return false
}

type fakePolicy struct {
	names map[economy.SKU]string
}

func (p *fakePolicy) MaxTradableAmount(sku economy.SKU, asBuyer bool) (int, string) {
	name, ok := p.names[sku]
	if !ok {
		return 0, string(sku)
	}
	return 100, name
}

func (p *fakePolicy) RefreshListing(sku economy.SKU) {}

type fakeSource struct {
	build func() []*inventory.Item
}

func (s *fakeSource) Fetch(ctx context.Context, trader economy.TraderID) (economy.Inventory, error) {
	return inventory.NewStatic(s.build()), nil
}

type fakeTrust struct{}

func (t *fakeTrust) IsBanned(ctx context.Context, trader economy.TraderID) (bool, error) {
	return false, nil
}

func (t *fakeTrust) WouldEscrow(ctx context.Context, trader economy.TraderID, offer economy.Offer) (bool, error) {
	return false, nil
}

func (t *fakeTrust) BlockTrader(ctx context.Context, trader economy.TraderID) error {
	return nil
}

type fakeDupes struct{}

func (d *fakeDupes) CheckDuplicate(ctx context.Context, id economy.InstanceID, contextID string) (economy.DupeVerdict, error) {
	return economy.DupeClean, nil
}

type fakeActive struct{}

func (a *fakeActive) IsInTrade(id economy.InstanceID) bool {
	return false
}

type fakeOffer struct {
	our, their []economy.ItemRef
	meta       map[string]any
	submitted  bool
	submitErr  error
}

func (o *fakeOffer) AddItem(ours bool, ref economy.ItemRef) bool {
	if ours {
		o.our = append(o.our, ref)
	} else {
		o.their = append(o.their, ref)
	}
	return true
}

func (o *fakeOffer) AttachMetadata(key string, value any) {
	o.meta[key] = value
}

func (o *fakeOffer) Submit(ctx context.Context) error {
	if o.submitErr != nil {
		return o.submitErr
	}
	o.submitted = true
	return nil
}

type fakeTransport struct {
	offers    []*fakeOffer
	submitErr error
}

func (t *fakeTransport) CreateOffer(trader economy.TraderID) economy.Offer {
	o := &fakeOffer{meta: make(map[string]any), submitErr: t.submitErr}
	t.offers = append(t.offers, o)
	return o
}

func tradable(id string, sku economy.SKU) *inventory.Item {
	return &inventory.Item{
		InstanceRecord: economy.InstanceRecord{
			ID:       economy.InstanceID(id),
			SKU:      sku,
			FullUses: true,
		},
		Tradable: true,
	}
}

func newFixture(t *testing.T) (*Manager, *fakeTransport) {
	t.Helper()
	ours := inventory.NewStatic([]*inventory.Item{
		tradable("r1", currency.RefinedSKU),
		tradable("r2", currency.RefinedSKU),
		tradable("r3", currency.RefinedSKU),
		tradable("r4", currency.RefinedSKU),
		tradable("r5", currency.RefinedSKU),
		tradable("r6", currency.RefinedSKU),
	})
	theirs := &fakeSource{
		build: func() []*inventory.Item {
			return []*inventory.Item{tradable("h1", "hat;1")}
		},
	}
	transport := &fakeTransport{}
	deps := &cart.Deps{
		Pricer: &fakeOracle{
			prices: map[economy.SKU]*economy.Price{
				"hat;1": {Buy: decimal.NewFromInt(9), Sell: decimal.NewFromInt(12)},
			},
		},
		Policy:    &fakePolicy{names: map[economy.SKU]string{"hat;1": "Fancy Hat"}},
		Ours:      ours,
		Theirs:    theirs,
		Trust:     &fakeTrust{},
		Dupes:     &fakeDupes{},
		Active:    &fakeActive{},
		Transport: transport,
	}
	m, err := New(deps, &Options{IdleTimeout: time.Minute, CheckInterval: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Close)
	return m, transport
}

func TestOneCartPerTrader(t *testing.T) {
	m, _ := newFixture(t)
	a, err := m.Cart("alpha")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Cart("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("same trader must get the same cart")
	}
	c, err := m.Cart("beta")
	if err != nil {
		t.Fatal(err)
	}
	if c == a {
		t.Fatalf("different traders must get different carts")
	}
}

func TestCheckoutSubmitsOffer(t *testing.T) {
	m, transport := newFixture(t)
	user, err := m.Cart("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if err := user.AddItem(false, "hat;1", 1); err != nil {
		t.Fatal(err)
	}

	events, err := m.Events()
	if err != nil {
		t.Fatal(err)
	}
	defer events.Close()

	desc, _, err := m.Checkout(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if desc == nil {
		t.Fatalf("checkout must return a descriptor")
	}
	if len(transport.offers) != 1 || !transport.offers[0].submitted {
		t.Fatalf("checkout must submit exactly one offer")
	}

	ev, err := events.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventOfferSent || ev.Partner != "alpha" {
		t.Fatalf("unexpected event %+v", ev)
	}

	// The cart is gone after a successful checkout.
	fresh, err := m.Cart("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if !fresh.IsEmpty() {
		t.Fatalf("post-checkout cart must be fresh")
	}
}

func TestCheckoutWithoutCart(t *testing.T) {
	m, _ := newFixture(t)
	if _, _, err := m.Checkout(context.Background(), "nobody"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	m, _ := newFixture(t)
	if _, err := m.Cart("alpha"); err != nil {
		t.Fatal(err)
	}

	events, err := m.Events()
	if err != nil {
		t.Fatal(err)
	}
	defer events.Close()

	_, _, err = m.Checkout(context.Background(), "alpha")
	if err == nil {
		t.Fatalf("empty cart checkout must fail")
	}
	if _, ok := cart.AsRejection(err); !ok {
		t.Fatalf("want a cart rejection, got %v", err)
	}

	ev, rerr := events.Receive()
	if rerr != nil {
		t.Fatal(rerr)
	}
	if ev.Type != EventRejected {
		t.Fatalf("want rejected event, got %+v", ev)
	}
}

func TestCheckoutBusy(t *testing.T) {
	m, _ := newFixture(t)
	if _, err := m.Cart("alpha"); err != nil {
		t.Fatal(err)
	}
	e, ok := m.entryMap.Load("alpha")
	if !ok {
		t.Fatalf("entry must exist")
	}
	e.busyCh <- struct{}{}
	if _, _, err := m.Checkout(context.Background(), "alpha"); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want ErrExist while busy, got %v", err)
	}
}

func TestExpireIdleCarts(t *testing.T) {
	m, _ := newFixture(t)
	if _, err := m.Cart("alpha"); err != nil {
		t.Fatal(err)
	}

	events, err := m.Events()
	if err != nil {
		t.Fatal(err)
	}
	defer events.Close()

	// Not yet idle.
	m.expireIdleCarts(time.Now())
	if _, ok := m.entryMap.Load("alpha"); !ok {
		t.Fatalf("fresh cart must not expire")
	}

	m.expireIdleCarts(time.Now().Add(2 * time.Minute))
	if _, ok := m.entryMap.Load("alpha"); ok {
		t.Fatalf("idle cart must expire")
	}
	ev, rerr := events.Receive()
	if rerr != nil {
		t.Fatal(rerr)
	}
	if ev.Type != EventCartExpired {
		t.Fatalf("want cart-expired event, got %+v", ev)
	}
}

func TestClearDropsCart(t *testing.T) {
	m, _ := newFixture(t)
	user, err := m.Cart("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if err := user.AddItem(false, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	m.Clear("alpha")
	if _, ok := m.entryMap.Load("alpha"); ok {
		t.Fatalf("cleared cart must be gone")
	}
	if !user.IsEmpty() {
		t.Fatalf("cleared cart must be emptied")
	}
}
