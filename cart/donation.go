// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bvk/barterbot/economy"
)

// DonationCart sends items one-directionally to a fixed recipient. There is
// no settlement and no pre-send screening.
type DonationCart struct {
	*Cart

	deps *Deps

	offer economy.Offer

	descriptor *Descriptor
}

func NewDonation(recipient economy.TraderID, deps *Deps) (*DonationCart, error) {
	if err := deps.Check(); err != nil {
		return nil, err
	}
	return &DonationCart{Cart: New(recipient), deps: deps}, nil
}

func (c *DonationCart) Descriptor() *Descriptor {
	return c.descriptor
}

func (c *DonationCart) Offer() economy.Offer {
	return c.offer
}

// PreSendOffer is a no-op for donations.
func (c *DonationCart) PreSendOffer(ctx context.Context) error {
	return nil
}

// ConstructOffer assembles a one-directional offer from the bot's own
// inventory. Amounts are clamped to available tradable stock with one
// explanatory note per adjusted item type.
func (c *DonationCart) ConstructOffer(ctx context.Context) (string, error) {
	if c.IsEmpty() {
		return "", rejectf("cart is empty")
	}
	c.setState(Constructing)

	offer := c.deps.Transport.CreateOffer(c.partner)
	desc := newDescriptor(c.partner)

	var altered alteredNotes

	our, _ := c.Selections()
	for _, sku := range sortedSKUs(our) {
		amount := our[sku].Amount
		available := c.deps.Ours.FindBySKU(sku, true)

		if amount > len(available) {
			amount = len(available)
			c.RemoveItem(true, sku, our[sku].Amount)
			if len(available) == 0 {
				altered.add(sku, "I don't have any "+displayName(c.deps, sku))
				continue
			}
			altered.add(sku, "I only have "+countNoun(len(available), displayName(c.deps, sku)))
			c.AddItem(true, sku, amount, clampInstances(our[sku].Instances, amount)...)
		}

		missing, skipped := addInstances(offer, desc, true, sku, amount, available, c.deps)
		if missing != 0 {
			slog.Warn("could not add donation items to the offer",
				"sku", sku, "required", amount, "missing", missing, "skipped", skipped)
			c.setState(Failed)
			return "", rejectf("something went wrong while constructing the offer%s", skipReason(skipped))
		}
	}

	if c.IsEmpty() {
		c.setState(Failed)
		return "", rejectf("%s", altered.join())
	}

	offer.AttachMetadata("donation", true)
	c.offer = offer
	c.descriptor = desc
	c.setState(Constructed)
	return altered.join(), nil
}

// addInstances assigns up to amount concrete instances to one side of the
// offer, honoring the skip-items-in-trade policy when the instances come
// from the bot's own inventory. Returns how many assignments fell short and
// whether any instance was skipped for being in another active exchange.
func addInstances(offer economy.Offer, desc *Descriptor, ours bool, sku economy.SKU, amount int, candidates []economy.InstanceID, deps *Deps) (missing int, skipped bool) {
	missing = amount
	for _, id := range candidates {
		if ours && deps.SkipItemsInTrade && deps.Active != nil && deps.Active.IsInTrade(id) {
			skipped = true
			continue
		}
		if !offer.AddItem(ours, itemRef(id)) {
			continue
		}
		desc.addInstance(ours, sku, id)
		if missing--; missing == 0 {
			break
		}
	}
	return missing, skipped
}

func itemRef(id economy.InstanceID) economy.ItemRef {
	return economy.ItemRef{CollectionID: "440", SubCollectionID: "2", InstanceID: id}
}

func skipReason(skipped bool) string {
	if skipped {
		return ". Reason: item(s) are currently being used in another active trade"
	}
	return ""
}

func displayName(deps *Deps, sku economy.SKU) string {
	if _, name := deps.Policy.MaxTradableAmount(sku, false); name != "" {
		return name
	}
	return string(sku)
}

func countNoun(n int, name string) string {
	if n == 1 {
		return "1 " + name
	}
	return fmt.Sprintf("%d %ss", n, name)
}

func sortedSKUs(sel Selection) []economy.SKU {
	skus := make([]economy.SKU, 0, len(sel))
	for sku := range sel {
		skus = append(skus, sku)
	}
	sort.Slice(skus, func(i, j int) bool { return skus[i] < skus[j] })
	return skus
}
