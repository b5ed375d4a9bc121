// Copyright (c) 2025 BVK Chaitanya

// Package economy defines the collaborator contracts consumed by the offer
// construction engine. The engine is a client of these interfaces; it has no
// wire format of its own.
package economy

import (
	"context"

	"github.com/shopspring/decimal"
)

// SKU identifies an item type, not a specific instance.
type SKU string

// InstanceID identifies one concrete, uniquely identified owned item.
type InstanceID string

// TraderID identifies a counterparty on the trading platform.
type TraderID string

// Price holds the buy and sell values for an item type, in scrap units.
type Price struct {
	Buy  decimal.Decimal
	Sell decimal.Decimal
}

// InstanceRecord describes one owned item instance within an inventory
// snapshot.
type InstanceRecord struct {
	ID InstanceID

	SKU SKU

	// FullUses is false when the item is a limited-use item with some uses
	// already consumed.
	FullUses bool

	// Attachments lists high-value attachment names that require manual
	// attention before the item is traded away.
	Attachments []string
}

// Inventory is a point-in-time snapshot of one trader's items. A snapshot is
// immutable for the duration of one offer construction attempt and must be
// released exactly once on every exit path after a successful fetch.
type Inventory interface {
	// FindBySKU returns instance ids of the given item type, in a stable
	// order. When tradableOnly is true, untradable instances are excluded.
	FindBySKU(sku SKU, tradableOnly bool) []InstanceID

	// CurrencyHoldings returns instance ids for every currency denomination,
	// including the given extra weapon skus. Excluded skus are left out of
	// the result.
	CurrencyHoldings(weapons []SKU, exclude []SKU) map[SKU][]InstanceID

	// Instance returns the full record for an instance id in this snapshot.
	Instance(id InstanceID) (*InstanceRecord, bool)

	TotalItemCount() int

	// Release drops the snapshot data. Idempotent.
	Release()
}

// InventorySource fetches inventory snapshots for traders.
type InventorySource interface {
	Fetch(ctx context.Context, trader TraderID) (Inventory, error)
}

// PriceOracle answers pricing questions. Items absent from the price list are
// untracked and must not be offered.
type PriceOracle interface {
	// Price returns the canonical price entry for an item type, or false if
	// the item type is untracked.
	Price(sku SKU) (*Price, bool)

	// InstancePrice returns a per-instance price override, or false when the
	// instance is priced generically.
	InstancePrice(id InstanceID) (*Price, bool)

	// KeyValue returns the currency value of one key, in scrap units.
	KeyValue() decimal.Decimal

	// Duplicable reports whether instances of the item type can be
	// illegitimately duplicated and are worth verifying.
	Duplicable(sku SKU) bool
}

// TradePolicy limits per-item trade volume.
type TradePolicy interface {
	// MaxTradableAmount returns how many more units of the item type the bot
	// is willing to trade in the given direction, with the item's display
	// name.
	MaxTradableAmount(sku SKU, asBuyer bool) (mostCanTrade int, name string)

	// RefreshListing requests a listing refresh for an item type whose
	// tradable amount has dropped to zero.
	RefreshListing(sku SKU)
}

// DupeVerdict is the tri-state result of a duplicate-item check.
type DupeVerdict int

const (
	DupeClean DupeVerdict = iota
	DupeConfirmed
	DupeIndeterminate
)

func (v DupeVerdict) String() string {
	switch v {
	case DupeClean:
		return "clean"
	case DupeConfirmed:
		return "duplicate"
	case DupeIndeterminate:
		return "indeterminate"
	}
	return "unknown"
}

// TrustChecker answers counterparty risk questions.
type TrustChecker interface {
	IsBanned(ctx context.Context, trader TraderID) (bool, error)

	WouldEscrow(ctx context.Context, trader TraderID, offer Offer) (bool, error)

	// BlockTrader blocks further interactions from the trader. Best-effort;
	// callers log failures and continue.
	BlockTrader(ctx context.Context, trader TraderID) error
}

// DupeChecker verifies whether an item instance is illegitimately duplicated.
type DupeChecker interface {
	CheckDuplicate(ctx context.Context, id InstanceID, contextID string) (DupeVerdict, error)
}

// ActiveTrades reports items that are currently engaged in another active
// exchange.
type ActiveTrades interface {
	IsInTrade(id InstanceID) bool
}

// ItemRef addresses one item instance on the trading platform.
type ItemRef struct {
	CollectionID    string
	SubCollectionID string
	InstanceID      InstanceID
}

// Offer is a pending trade offer under construction at the transport
// collaborator.
type Offer interface {
	// AddItem adds an instance to the given side of the offer. Returns false
	// when the item could not be added; it never fails with an error.
	AddItem(ours bool, ref ItemRef) bool

	// AttachMetadata records an opaque key/value annotation on the offer.
	AttachMetadata(key string, value any)

	// Submit sends the offer to the counterparty.
	Submit(ctx context.Context) error
}

// Transport creates trade offers.
type Transport interface {
	CreateOffer(trader TraderID) Offer
}
