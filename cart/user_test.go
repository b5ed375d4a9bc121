// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bvk/barterbot/currency"
	"github.com/bvk/barterbot/economy"
	"github.com/shopspring/decimal"
)

func TestConstructOfferEmptyCart(t *testing.T) {
	c, transport, _, source := newUserFixture()

	_, err := c.ConstructOffer(context.Background())
	if err == nil || err.Error() != "cart is empty" {
		t.Fatalf("want cart-is-empty rejection, got %v", err)
	}
	if source.fetches != 0 {
		t.Fatalf("empty cart must not fetch inventory, got %d fetches", source.fetches)
	}
	if len(transport.offers) != 0 {
		t.Fatalf("empty cart must not create an offer")
	}
}

func TestConstructOfferSettlesExactly(t *testing.T) {
	c, transport, theirs, _ := newUserFixture()

	// We sell one hat worth 2 keys + 10 scrap (key = 50); the counterparty
	// pays with 2 keys, 1 refined and 1 scrap exactly.
	if err := c.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	altered, err := c.ConstructOffer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if altered != "" {
		t.Fatalf("altered notes: want empty, got %q", altered)
	}
	if c.State() != Constructed {
		t.Fatalf("state: want %s, got %s", Constructed, c.State())
	}

	offer := transport.offers[0]
	if !offer.contains(true, "h1") {
		t.Fatalf("offer must contain our hat")
	}
	for _, id := range []economy.InstanceID{"k1", "k2", "r1", "s1"} {
		if !offer.contains(false, id) {
			t.Fatalf("offer must contain their %s", id)
		}
	}
	if len(offer.their) != 4 {
		t.Fatalf("their side: want 4 instances, got %d", len(offer.their))
	}

	desc := c.Descriptor()
	if want := decimal.NewFromInt(110); !desc.TheirValue.Total.Equal(want) {
		t.Fatalf("their total: want %s, got %s", want, desc.TheirValue.Total)
	}
	if desc.TheirValue.Keys != 2 {
		t.Fatalf("their keys: want 2, got %d", desc.TheirValue.Keys)
	}
	if want := decimal.NewFromInt(10); !desc.TheirValue.Metal.Equal(want) {
		t.Fatalf("their metal: want %s, got %s", want, desc.TheirValue.Metal)
	}
	if theirs.releaseCount() != 1 {
		t.Fatalf("snapshot releases: want 1, got %d", theirs.releaseCount())
	}
}

func TestConstructOfferGivesChange(t *testing.T) {
	c, transport, _, _ := newUserFixture()
	c.deps.Pricer.(*fakeOracle).prices["hat;1"] = price(100, 120)

	// Price 120 forces the counterparty to overpay with 3 keys (150); we
	// return 30 scrap of change as 3 refined + 1 reclaimed.
	if err := c.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ConstructOffer(context.Background()); err != nil {
		t.Fatal(err)
	}

	offer := transport.offers[0]
	for _, id := range []economy.InstanceID{"k1", "k2", "k3"} {
		if !offer.contains(false, id) {
			t.Fatalf("offer must contain their %s", id)
		}
	}
	refined, reclaimed := 0, 0
	for _, ref := range offer.our {
		switch {
		case strings.HasPrefix(string(ref.InstanceID), "or"):
			refined++
		case strings.HasPrefix(string(ref.InstanceID), "oc"):
			reclaimed++
		}
	}
	if refined != 3 || reclaimed != 1 {
		t.Fatalf("change: want 3 refined + 1 reclaimed, got %d + %d", refined, reclaimed)
	}

	desc := c.Descriptor()
	if desc.Our[currency.KeySKU] != nil {
		t.Fatalf("change must never be given in keys")
	}
	if want := decimal.NewFromInt(30); !desc.OurValue.Metal.Equal(want) {
		t.Fatalf("our change metal: want %s, got %s", want, desc.OurValue.Metal)
	}
	if want := decimal.NewFromInt(150); !desc.OurValue.Total.Equal(want) {
		t.Fatalf("our total: want %s, got %s", want, desc.OurValue.Total)
	}
}

func TestConstructOfferMissingChange(t *testing.T) {
	c, _, _, _ := newUserFixture()
	c.deps.Pricer.(*fakeOracle).prices["hat;1"] = price(100, 120)
	c.deps.Ours.(*fakeInventory).items = map[economy.SKU][]economy.InstanceID{
		"hat;1": {"h1"},
	}

	if err := c.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	_, err := c.ConstructOffer(context.Background())
	if err == nil || !strings.Contains(err.Error(), "change") {
		t.Fatalf("want missing-change rejection, got %v", err)
	}
	if c.State() != Failed {
		t.Fatalf("state: want %s, got %s", Failed, c.State())
	}
}

func TestConstructOfferStockClamp(t *testing.T) {
	c, transport, _, _ := newUserFixture()

	if err := c.AddItem(true, "hat;1", 5); err != nil {
		t.Fatal(err)
	}
	altered, err := c.ConstructOffer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := "I only have 1 Fancy Hat"; altered != want {
		t.Fatalf("altered: want %q, got %q", want, altered)
	}
	if n := c.Count(true, "hat;1"); n != 1 {
		t.Fatalf("selection amount after clamp: want 1, got %d", n)
	}
	if len(transport.offers[0].our) != 1 {
		t.Fatalf("our side: want 1 instance, got %d", len(transport.offers[0].our))
	}
}

func TestConstructOfferZeroLimitRemovesItem(t *testing.T) {
	c, _, theirs, _ := newUserFixture()
	policy := c.deps.Policy.(*fakePolicy)
	policy.limits = map[economy.SKU]int{"hat;1": 0}

	if err := c.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	_, err := c.ConstructOffer(context.Background())
	if err == nil || !strings.Contains(err.Error(), "I can't sell more Fancy Hat") {
		t.Fatalf("want zero-limit rejection naming the item, got %v", err)
	}
	if len(policy.refreshed) != 1 || policy.refreshed[0] != "hat;1" {
		t.Fatalf("zero limit must trigger a listing refresh, got %v", policy.refreshed)
	}
	if n := c.Count(true, "hat;1"); n != 0 {
		t.Fatalf("item must be fully removed, got %d", n)
	}
	// The cart emptied after the their-side clamp ran, so the snapshot was
	// fetched and must still be released.
	if theirs.releaseCount() != 1 {
		t.Fatalf("snapshot releases: want 1, got %d", theirs.releaseCount())
	}
}

func TestConstructOfferSingleNotePerSKU(t *testing.T) {
	c, _, theirs, _ := newUserFixture()
	theirs.items["cap;2"] = []economy.InstanceID{"p1", "p2", "p3"}
	oracle := c.deps.Pricer.(*fakeOracle)
	oracle.prices["cap;2"] = price(9, 12)
	policy := c.deps.Policy.(*fakePolicy)
	policy.limits = map[economy.SKU]int{"cap;2": 2}
	policy.names["cap;2"] = "Flat Cap"

	// Both the stock clamp (5 -> 3) and the limit clamp (3 -> 2) apply, but
	// only one note may be produced for the item.
	if err := c.AddItem(false, "cap;2", 5); err != nil {
		t.Fatal(err)
	}
	altered, err := c.ConstructOffer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := "I can only buy 2 more Flat Caps"; altered != want {
		t.Fatalf("altered: want %q, got %q", want, altered)
	}
	if n := c.Count(false, "cap;2"); n != 2 {
		t.Fatalf("selection amount: want 2, got %d", n)
	}
}

func TestConstructOfferFetchFailure(t *testing.T) {
	c, transport, _, source := newUserFixture()
	source.err = errors.New("inventory service is down")

	if err := c.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	_, err := c.ConstructOffer(context.Background())
	if err == nil || !strings.Contains(err.Error(), "try again later") {
		t.Fatalf("want retry-suggesting rejection, got %v", err)
	}
	if _, ok := AsRejection(err); !ok {
		t.Fatalf("want typed rejection, got %T", err)
	}
	if strings.Contains(err.Error(), "service is down") {
		t.Fatalf("raw collaborator error must not leak: %v", err)
	}
	// The transport offer handle is abandoned; nothing was submitted.
	if transport.offers[0].submitted {
		t.Fatalf("nothing must be submitted on fetch failure")
	}
}

func TestConstructOfferInsufficientFunds(t *testing.T) {
	c, _, theirs, _ := newUserFixture()
	theirs.items = map[economy.SKU][]economy.InstanceID{
		currency.ScrapSKU: {"s1"},
	}

	if err := c.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	_, err := c.ConstructOffer(context.Background())
	if err == nil || !strings.Contains(err.Error(), "you don't have enough pure") {
		t.Fatalf("want counterparty insufficient-funds phrasing, got %v", err)
	}
}

func TestConstructOfferInsufficientFundsAsBuyer(t *testing.T) {
	c, _, theirs, _ := newUserFixture()
	theirs.items["cap;2"] = []economy.InstanceID{"p1"}
	oracle := c.deps.Pricer.(*fakeOracle)
	oracle.prices["cap;2"] = price(1000, 1100)
	c.deps.Ours.(*fakeInventory).items = map[economy.SKU][]economy.InstanceID{
		currency.ScrapSKU: {"os1"},
	}

	if err := c.AddItem(false, "cap;2", 1); err != nil {
		t.Fatal(err)
	}
	_, err := c.ConstructOffer(context.Background())
	if err == nil || !strings.Contains(err.Error(), "I don't have enough pure") {
		t.Fatalf("want bot insufficient-funds phrasing, got %v", err)
	}
}

func TestConstructOfferSkipsItemsInTrade(t *testing.T) {
	c, _, _, _ := newUserFixture()
	c.deps.Active.(*fakeActive).inTrade["h1"] = true

	if err := c.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	_, err := c.ConstructOffer(context.Background())
	if err == nil || !strings.Contains(err.Error(), "another active trade") {
		t.Fatalf("want active-trade contention rejection, got %v", err)
	}
}

func TestConstructOfferDupeCandidates(t *testing.T) {
	c, _, theirs, _ := newUserFixture()
	theirs.items["unusual;5"] = []economy.InstanceID{"u1"}
	oracle := c.deps.Pricer.(*fakeOracle)
	oracle.prices["unusual;5"] = price(600, 700)
	oracle.duplicable["unusual;5"] = true
	c.deps.Ours.(*fakeInventory).items[currency.KeySKU] = []economy.InstanceID{
		"ok1", "ok2", "ok3", "ok4", "ok5", "ok6", "ok7", "ok8", "ok9", "ok10", "ok11", "ok12",
	}

	if err := c.AddItem(false, "unusual;5", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ConstructOffer(context.Background()); err != nil {
		t.Fatal(err)
	}
	desc := c.Descriptor()
	if len(desc.DupeCandidates) != 1 || desc.DupeCandidates[0] != "u1" {
		t.Fatalf("dupe candidates: want [u1], got %v", desc.DupeCandidates)
	}
}

func TestConstructOfferIsolatedSnapshots(t *testing.T) {
	c1, t1, i1, _ := newUserFixture()
	c2, t2, i2, _ := newUserFixture()

	if err := c1.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	if err := c2.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = c1.ConstructOffer(context.Background())
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = c2.ConstructOffer(context.Background())
	}()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("cart %d: %v", i, err)
		}
	}
	if i1.releaseCount() != 1 || i2.releaseCount() != 1 {
		t.Fatalf("each construction must release exactly its own snapshot")
	}
	if len(t1.offers) != 1 || len(t2.offers) != 1 {
		t.Fatalf("each cart must construct exactly one offer")
	}
}

func TestDonationCartConstruct(t *testing.T) {
	c, _, _, _ := newUserFixture()
	d, err := NewDonation("charity-1", c.deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.AddItem(true, "hat;1", 2); err != nil {
		t.Fatal(err)
	}
	altered, err := d.ConstructOffer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := "I only have 1 Fancy Hat"; altered != want {
		t.Fatalf("altered: want %q, got %q", want, altered)
	}
	if err := d.PreSendOffer(context.Background()); err != nil {
		t.Fatalf("donation pre-send must be a no-op, got %v", err)
	}
	if d.Descriptor().ItemCount(true) != 1 {
		t.Fatalf("donation must carry our single hat")
	}
}
