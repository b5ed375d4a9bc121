// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bvk/barterbot/currency"
	"github.com/bvk/barterbot/economy"
	"github.com/shopspring/decimal"
)

// UserCart is the bidirectional cart variant. Checkout reconciles both
// selections against live inventory, determines the buyer, settles the owed
// value with the buyer's currency holdings, computes change and screens the
// result with ban, escrow and duplicate checks before submission.
type UserCart struct {
	*Cart

	deps *Deps

	// useKeys permits key substitution for currency. It is forced off for
	// the duration of a trade that moves keys as items.
	useKeys bool

	offer economy.Offer

	descriptor *Descriptor
}

func NewUser(partner economy.TraderID, deps *Deps) (*UserCart, error) {
	if err := deps.Check(); err != nil {
		return nil, err
	}
	if deps.Theirs == nil {
		return nil, fmt.Errorf("user cart requires a counterparty inventory source")
	}
	return &UserCart{Cart: New(partner), deps: deps, useKeys: true}, nil
}

func (c *UserCart) SetUseKeys(v bool) {
	c.useKeys = v
}

// Descriptor returns the frozen offer descriptor after a successful
// construction.
func (c *UserCart) Descriptor() *Descriptor {
	return c.descriptor
}

func (c *UserCart) Offer() economy.Offer {
	return c.offer
}

func (c *UserCart) canUseKeys() bool {
	if c.ContainsKey(currency.KeySKU) {
		return false
	}
	return c.useKeys
}

// sideValue totals one side's selection from the price oracle. Our side is
// valued at sell prices with per-instance overrides honored; their side at
// buy prices. Untracked item types contribute nothing; the trade-volume
// clamp removes them before valuation matters.
func (c *UserCart) sideValue(sel Selection, ours bool) decimal.Decimal {
	total := decimal.Zero
	for sku, item := range sel {
		price, ok := c.deps.Pricer.Price(sku)
		if !ok {
			continue
		}
		if !ours {
			total = total.Add(price.Buy.Mul(decimal.NewFromInt(int64(item.Amount))))
			continue
		}
		for _, id := range item.Instances {
			if p, ok := c.deps.Pricer.InstancePrice(id); ok {
				total = total.Add(p.Sell)
			} else {
				total = total.Add(price.Sell)
			}
		}
		generic := item.Amount - len(item.Instances)
		total = total.Add(price.Sell.Mul(decimal.NewFromInt(int64(generic))))
	}
	return total
}

// clampSide reconciles one selection against an inventory snapshot and the
// trade-volume policy. Each adjusted item type produces exactly one note.
func (c *UserCart) clampSide(ours bool, inv economy.Inventory, altered *alteredNotes) {
	sel, their := c.Selections()
	if !ours {
		sel = their
	}

	for _, sku := range sortedSKUs(sel) {
		item := sel[sku]
		amount := item.Amount
		available := inv.FindBySKU(sku, true)

		if amount > len(available) {
			c.RemoveItem(ours, sku, amount)
			amount = len(available)
			name := displayName(c.deps, sku)
			if amount == 0 {
				if ours {
					altered.add(sku, "I don't have any "+name)
				} else {
					altered.add(sku, "you don't have any "+name)
				}
				continue
			}
			if ours {
				altered.add(sku, "I only have "+countNoun(amount, name))
			} else {
				altered.add(sku, "you only have "+countNoun(amount, name))
			}
			c.AddItem(ours, sku, amount, clampInstances(item.Instances, amount)...)
		}

		// Our side sells, their side means we are buying.
		most, name := c.deps.Policy.MaxTradableAmount(sku, !ours)
		if amount > most {
			c.RemoveItem(ours, sku, amount)
			verb := "sell"
			if !ours {
				verb = "buy"
			}
			if most == 0 {
				altered.add(sku, fmt.Sprintf("I can't %s more %ss", verb, name))
				c.deps.Policy.RefreshListing(sku)
				continue
			}
			altered.add(sku, fmt.Sprintf("I can only %s %d more %s", verb, most, pluralMaybe(most, name)))
			c.AddItem(ours, sku, most, clampInstances(item.Instances, most)...)
		}
	}
}

// ConstructOffer runs the construction stages described in the package
// documentation. It fails fast with a Rejection at the first unsatisfiable
// stage and always releases the fetched counterparty snapshot.
func (c *UserCart) ConstructOffer(ctx context.Context) (string, error) {
	if c.IsEmpty() {
		return "", rejectf("cart is empty")
	}
	start := time.Now()
	c.setState(Constructing)

	fail := func(err error) (string, error) {
		c.setState(Failed)
		return "", err
	}

	offer := c.deps.Transport.CreateOffer(c.partner)
	desc := newDescriptor(c.partner)
	var altered alteredNotes

	// Reconcile our side against our own inventory and sell limits.
	c.clampSide(true, c.deps.Ours, &altered)

	// Fetch the counterparty inventory snapshot.
	theirInv, err := c.deps.Theirs.Fetch(ctx, c.partner)
	if err != nil {
		slog.Error("could not load counterparty inventory", "partner", c.partner, "err", err)
		return fail(rejectf("failed to load your inventory, the item servers might be down. " +
			"Please try again later. If your inventory is set to private, please set it to public and try again."))
	}
	defer theirInv.Release()

	// Reconcile their side against the snapshot and buy limits.
	c.clampSide(false, theirInv, &altered)

	if c.IsEmpty() {
		return fail(rejectf("%s", altered.join()))
	}

	our, their := c.Selections()

	// Determine the buyer. The side with less item value owes the
	// difference; its inventory becomes the payer inventory for settlement.
	ourValue := c.sideValue(our, true)
	theirValue := c.sideValue(their, false)
	weAreBuyer := ourValue.LessThan(theirValue)
	price := ourValue.Sub(theirValue).Abs()

	buyerInv, sellerInv := c.deps.Ours, theirInv
	if !weAreBuyer {
		buyerInv, sellerInv = theirInv, c.deps.Ours
	}

	useKeys := c.canUseKeys()
	keyValue := c.deps.Pricer.KeyValue()

	// Weapon denominations join the table only when the price has a
	// fractional scrap component that whole metal units cannot express.
	var weapons []economy.SKU
	if len(c.deps.Weapons) > 0 && !price.Mod(decimal.NewFromInt(1)).IsZero() {
		weapons = c.deps.Weapons
	}
	table := currency.NewTable(keyValue, useKeys, weapons)

	holdings := buyerInv.CurrencyHoldings(c.deps.Weapons, nil)
	holdingCounts := currency.CountHoldings(holdings)

	// Affordability pre-check before any assignment work.
	affordable := currency.NewTable(keyValue, useKeys, c.deps.Weapons)
	if holdingCounts.Value(affordable).LessThan(price) {
		if weAreBuyer {
			return fail(rejectf("I don't have enough pure for this trade"))
		}
		return fail(rejectf("you don't have enough pure for this trade"))
	}

	// Assign concrete instances for our non-currency selections.
	for _, sku := range sortedSKUs(our) {
		item := our[sku]
		available := c.deps.Ours.FindBySKU(sku, true)

		candidates := slices.Clone(item.Instances)
		var overridden []economy.InstanceID
		for _, id := range available {
			if slices.Contains(candidates, id) {
				continue
			}
			if _, ok := c.deps.Pricer.InstancePrice(id); ok {
				overridden = append(overridden, id)
				continue
			}
			candidates = append(candidates, id)
		}
		if len(candidates) < item.Amount && len(overridden) > 0 {
			return fail(rejectf("I am not selling the generic version of %q; ask about the individually priced ones instead",
				displayName(c.deps, sku)))
		}

		recordPrice(desc, c.deps, sku)
		missing, skipped := addInstances(offer, desc, true, sku, item.Amount, candidates, c.deps)
		if missing != 0 {
			slog.Warn("could not add our items to the offer",
				"sku", sku, "required", item.Amount, "missing", missing, "skipped", skipped)
			return fail(rejectf("something went wrong while constructing the offer%s", skipReason(skipped)))
		}
	}

	// Assign concrete instances for their non-currency selections and queue
	// duplicate-check candidates.
	dupeThreshold := c.deps.MinKeysDupeCheck.Mul(keyValue)
	for _, sku := range sortedSKUs(their) {
		item := their[sku]
		candidates := theirInv.FindBySKU(sku, true)

		limitedUse := slices.Contains(c.deps.LimitedUse, sku)
		if limitedUse {
			candidates = fullUsesOnly(theirInv, candidates)
		}

		checkDupes := false
		if price, ok := c.deps.Pricer.Price(sku); ok {
			checkDupes = c.deps.Pricer.Duplicable(sku) && price.Buy.GreaterThan(dupeThreshold)
		}

		recordPrice(desc, c.deps, sku)
		missing := item.Amount
		for _, id := range candidates {
			if !offer.AddItem(false, itemRef(id)) {
				continue
			}
			desc.addInstance(false, sku, id)
			if checkDupes {
				desc.DupeCandidates = append(desc.DupeCandidates, id)
			}
			if missing--; missing == 0 {
				break
			}
		}
		if missing != 0 {
			slog.Warn("could not add their items to the offer",
				"sku", sku, "required", item.Amount, "missing", missing, "limitedUse", limitedUse)
			if limitedUse {
				return fail(rejectf("something went wrong while constructing the offer (not enough %ss with all uses left)",
					displayName(c.deps, sku)))
			}
			return fail(rejectf("something went wrong while constructing the offer"))
		}
	}

	// Settle the owed value with the buyer's currency holdings.
	settled := currency.Settle(price, holdingCounts, table)
	if settled.Remainder.IsPositive() {
		if weAreBuyer {
			return fail(rejectf("I don't have enough pure for this trade"))
		}
		return fail(rejectf("you don't have enough pure for this trade"))
	}
	if err := c.assignCurrency(offer, desc, weAreBuyer, settled.Picked, holdings); err != nil {
		return fail(err)
	}

	// Return change from the seller's currency holdings. Change never uses
	// the highest denomination.
	change := settled.Change()
	if change.IsPositive() {
		sellerHoldings := sellerInv.CurrencyHoldings(c.deps.Weapons, nil)
		sellerCounts := currency.CountHoldings(sellerHoldings)

		var changeWeapons []economy.SKU
		if len(c.deps.Weapons) > 0 && !change.Mod(decimal.NewFromInt(1)).IsZero() {
			changeWeapons = c.deps.Weapons
		}
		changeTable := currency.NewTable(keyValue, true, changeWeapons)
		changed := currency.SettleChange(change, sellerCounts, changeTable)
		if !changed.Covered() {
			return fail(rejectf("I am missing %s in change", scrapString(changed.Remainder.Abs())))
		}
		if err := c.assignCurrency(offer, desc, !weAreBuyer, changed.Picked, sellerHoldings); err != nil {
			return fail(err)
		}
	}

	// Aggregate values and annotation metadata.
	metalTable := currency.NewTable(keyValue, false, c.deps.Weapons)
	paidMetal := decimal.Zero
	for sku, n := range settled.Picked {
		if v, ok := metalTable.UnitValue(sku); ok {
			paidMetal = paidMetal.Add(v.Mul(decimal.NewFromInt(int64(n))))
		}
	}
	desc.KeyRate = keyValue
	desc.OurValue.Total = ourValue
	desc.TheirValue.Total = theirValue
	if weAreBuyer {
		desc.OurValue.Total = desc.OurValue.Total.Add(price)
		desc.OurValue.Keys = settled.Picked[currency.KeySKU]
		desc.OurValue.Metal = desc.OurValue.Metal.Add(paidMetal)
		desc.TheirValue.Total = desc.TheirValue.Total.Add(change)
		desc.TheirValue.Metal = desc.TheirValue.Metal.Add(change)
	} else {
		desc.TheirValue.Total = desc.TheirValue.Total.Add(price)
		desc.TheirValue.Keys = settled.Picked[currency.KeySKU]
		desc.TheirValue.Metal = desc.TheirValue.Metal.Add(paidMetal)
		desc.OurValue.Total = desc.OurValue.Total.Add(change)
		desc.OurValue.Metal = desc.OurValue.Metal.Add(change)
	}

	desc.HighValue = collectHighValue(desc, c.deps.Ours, theirInv)
	desc.ConstructTime = time.Since(start)

	offer.AttachMetadata("dict", map[string]any{"our": desc.Our, "their": desc.Their})
	offer.AttachMetadata("value", map[string]*SideValue{"our": desc.OurValue, "their": desc.TheirValue})
	offer.AttachMetadata("prices", desc.Prices)
	offer.AttachMetadata("dupeCheck", desc.DupeCandidates)
	if desc.HighValue != nil {
		offer.AttachMetadata("highValue", desc.HighValue)
	}

	c.offer = offer
	c.descriptor = desc
	c.setState(Constructed)

	slog.Debug("constructed offer", "partner", c.partner, "id", desc.ID, "took", desc.ConstructTime)
	return altered.join(), nil
}

// assignCurrency adds the picked denomination counts to the offer from the
// given per-denomination instance lists, honoring the active-trade skip
// policy for the bot's own items.
func (c *UserCart) assignCurrency(offer economy.Offer, desc *Descriptor, ours bool, picked currency.Counts, holdings map[economy.SKU][]economy.InstanceID) error {
	for _, sku := range sortedCountSKUs(picked) {
		want := picked[sku]
		if want == 0 {
			continue
		}
		missing, skipped := addInstances(offer, desc, ours, sku, want, holdings[sku], c.deps)
		if missing != 0 {
			slog.Warn("could not add buyer or seller pure to the offer",
				"sku", sku, "required", want, "missing", missing, "skipped", skipped)
			if skipped {
				return rejectf("something went wrong while constructing the offer (probably because some of the pure is in another active trade)")
			}
			return rejectf("something went wrong while constructing the offer")
		}
	}
	return nil
}

func recordPrice(desc *Descriptor, deps *Deps, sku economy.SKU) {
	if _, ok := desc.Prices[sku]; ok {
		return
	}
	if p, ok := deps.Pricer.Price(sku); ok {
		desc.Prices[sku] = p
	}
}

func collectHighValue(desc *Descriptor, ours, theirs economy.Inventory) *HighValueNotes {
	notes := &HighValueNotes{
		Our:   make(map[economy.SKU][]string),
		Their: make(map[economy.SKU][]string),
	}
	collect := func(items map[economy.SKU]*DescriptorItem, inv economy.Inventory, out map[economy.SKU][]string) {
		for sku, item := range items {
			for _, id := range item.Instances {
				rec, ok := inv.Instance(id)
				if !ok || len(rec.Attachments) == 0 {
					continue
				}
				out[sku] = append(out[sku], rec.Attachments...)
				notes.Mention = true
			}
		}
	}
	collect(desc.Our, ours, notes.Our)
	collect(desc.Their, theirs, notes.Their)
	if len(notes.Our) == 0 && len(notes.Their) == 0 {
		return nil
	}
	return notes
}

func fullUsesOnly(inv economy.Inventory, ids []economy.InstanceID) []economy.InstanceID {
	var out []economy.InstanceID
	for _, id := range ids {
		if rec, ok := inv.Instance(id); ok && rec.FullUses {
			out = append(out, id)
		}
	}
	return out
}

func clampInstances(ids []economy.InstanceID, n int) []economy.InstanceID {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

func pluralMaybe(n int, name string) string {
	if n == 1 {
		return name
	}
	return name + "s"
}

func sortedCountSKUs(counts currency.Counts) []economy.SKU {
	skus := make([]economy.SKU, 0, len(counts))
	for sku := range counts {
		skus = append(skus, sku)
	}
	slices.Sort(skus)
	return skus
}

// scrapString renders a scrap value as refined metal, the unit traders use
// in chat.
func scrapString(scrap decimal.Decimal) string {
	return scrap.Div(decimal.NewFromInt(9)).Round(2).String() + " ref"
}
