// Copyright (c) 2025 BVK Chaitanya

// Package cart implements per-counterparty trade carts and the offer
// construction engine. A cart accumulates tentative item selections for both
// sides of a trade; checkout reconciles them against live inventory, settles
// the owed value in currency denominations and produces an immutable offer
// descriptor for the transport collaborator.
package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/bvk/barterbot/economy"
	"github.com/shopspring/decimal"
)

type State string

const (
	Empty        State = "EMPTY"
	Populated    State = "POPULATED"
	Constructing State = "CONSTRUCTING"
	Constructed  State = "CONSTRUCTED"
	Failed       State = "FAILED"
)

// Item is one tentative selection for a single item type. Instances holds
// explicitly chosen instance ids; the difference between Amount and
// len(Instances) is the generic portion to be filled at construction time.
type Item struct {
	Amount    int
	Instances []economy.InstanceID
}

func (i *Item) clone() *Item {
	return &Item{Amount: i.Amount, Instances: slices.Clone(i.Instances)}
}

// Selection maps item types to tentative amounts for one side of a trade.
type Selection map[economy.SKU]*Item

func (s Selection) clone() Selection {
	c := make(Selection, len(s))
	for sku, item := range s {
		c[sku] = item.clone()
	}
	return c
}

// Kind is implemented by cart variants. ConstructOffer builds the pending
// offer and returns a human-readable altered-items note (empty when no
// adjustments were needed). PreSendOffer screens the constructed offer before
// it is handed to the transport.
type Kind interface {
	ConstructOffer(ctx context.Context) (altered string, err error)
	PreSendOffer(ctx context.Context) error
}

// Cart holds the tentative item selections for one counterparty
// conversation. Selections are optimistic; stock and trade-limit validation
// is deferred until construction. A cart is not safe for concurrent checkout
// from multiple goroutines; the session manager serializes per-cart calls.
type Cart struct {
	partner economy.TraderID

	mu sync.Mutex

	our   Selection
	their Selection

	state State
}

func New(partner economy.TraderID) *Cart {
	return &Cart{
		partner: partner,
		our:     make(Selection),
		their:   make(Selection),
		state:   Empty,
	}
}

func (c *Cart) Partner() economy.TraderID {
	return c.partner
}

func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Cart) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Cart) selection(ours bool) Selection {
	if ours {
		return c.our
	}
	return c.their
}

// AddItem merges an item selection into one side of the cart. Explicit
// instance ids beyond the amount are rejected.
func (c *Cart) AddItem(ours bool, sku economy.SKU, amount int, instances ...economy.InstanceID) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive: %d", amount)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sel := c.selection(ours)
	item, ok := sel[sku]
	if !ok {
		item = &Item{}
	}
	merged := slices.Clone(item.Instances)
	for _, id := range instances {
		if !slices.Contains(merged, id) {
			merged = append(merged, id)
		}
	}
	if len(merged) > item.Amount+amount {
		return fmt.Errorf("%d explicit instances exceed selection amount %d", len(merged), item.Amount+amount)
	}
	item.Amount += amount
	item.Instances = merged
	sel[sku] = item
	c.state = Populated
	return nil
}

// RemoveItem decrements an item selection. Removing more than present clamps
// the selection to zero and drops it from the cart.
func (c *Cart) RemoveItem(ours bool, sku economy.SKU, amount int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sel := c.selection(ours)
	item, ok := sel[sku]
	if !ok {
		return
	}
	item.Amount -= amount
	if item.Amount <= 0 {
		delete(sel, sku)
	} else if len(item.Instances) > item.Amount {
		item.Instances = item.Instances[:item.Amount]
	}
	if len(c.our) == 0 && len(c.their) == 0 {
		c.state = Empty
	}
}

// Count returns the selected amount for an item type on one side.
func (c *Cart) Count(ours bool, sku economy.SKU) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.selection(ours)[sku]; ok {
		return item.Amount
	}
	return 0
}

// IsEmpty returns true iff both selections are empty.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.our) == 0 && len(c.their) == 0
}

// Clear drops both selections. An in-flight construction observes the state
// change and abandons its snapshot.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.our = make(Selection)
	c.their = make(Selection)
	c.state = Empty
}

// Selections returns deep copies of both selections.
func (c *Cart) Selections() (our, their Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.our.clone(), c.their.clone()
}

// ContainsKey reports whether either side of the cart trades the key item
// itself, in which case keys are not usable as currency for the trade.
func (c *Cart) ContainsKey(keySKU economy.SKU) bool {
	return c.Count(true, keySKU) != 0 || c.Count(false, keySKU) != 0
}

// Deps holds the collaborator references shared by cart variants. All
// collaborators are passed in at construction time; carts keep no ambient
// global state.
type Deps struct {
	Pricer    economy.PriceOracle
	Policy    economy.TradePolicy
	Ours      economy.Inventory
	Theirs    economy.InventorySource
	Trust     economy.TrustChecker
	Dupes     economy.DupeChecker
	Active    economy.ActiveTrades
	Transport economy.Transport

	// Weapons lists craftable-weapon skus usable as half-scrap currency.
	// Empty when weapons-as-currency is disabled.
	Weapons []economy.SKU

	// SkipItemsInTrade skips instances engaged in another active exchange
	// instead of failing immediately.
	SkipItemsInTrade bool

	// LimitedUse lists limited-use item skus that must have all uses left to
	// be accepted from the counterparty.
	LimitedUse []economy.SKU

	// DupeCheckEnabled gates the duplicate-item verification pipeline.
	DupeCheckEnabled bool

	// MinKeysDupeCheck is the per-unit buy value threshold, in keys, above
	// which a duplicable item is queued for duplicate verification.
	MinKeysDupeCheck decimal.Decimal

	// DupeContextID is passed through to the duplicate checker.
	DupeContextID string
}

func (d *Deps) Check() error {
	if d.Pricer == nil || d.Policy == nil || d.Ours == nil || d.Transport == nil {
		return fmt.Errorf("cart collaborators are incomplete")
	}
	return nil
}
