// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"time"

	"github.com/bvk/barterbot/economy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SideValue is the value breakdown for one side of a constructed offer.
// Total is the full scrap value including currency; Keys and Metal describe
// the currency portion of the side.
type SideValue struct {
	Total decimal.Decimal
	Keys  int
	Metal decimal.Decimal
}

// DescriptorItem records the final amount and concrete instances for one
// item type on one side of the offer.
type DescriptorItem struct {
	Amount    int
	Instances []economy.InstanceID
}

// HighValueNotes flags items carrying special attachments that require
// manual attention before the trade completes.
type HighValueNotes struct {
	Our   map[economy.SKU][]string
	Their map[economy.SKU][]string

	Mention bool
}

// Descriptor is the immutable, self-describing result of a successful offer
// construction. It is created once and handed to the transport collaborator;
// notification and logging consumers read it but never mutate it.
type Descriptor struct {
	ID string

	Partner economy.TraderID

	Our   map[economy.SKU]*DescriptorItem
	Their map[economy.SKU]*DescriptorItem

	OurValue   *SideValue
	TheirValue *SideValue

	// KeyRate is the key value, in scrap units, in effect for this offer.
	KeyRate decimal.Decimal

	HighValue *HighValueNotes

	// Prices records the per-type prices in effect when the offer was
	// constructed.
	Prices map[economy.SKU]*economy.Price

	// DupeCandidates lists instances that the duplicate-check collaborator
	// must verify before the offer goes out.
	DupeCandidates []economy.InstanceID

	CreateTime    time.Time
	ConstructTime time.Duration
}

func newDescriptor(partner economy.TraderID) *Descriptor {
	return &Descriptor{
		ID:         uuid.New().String(),
		Partner:    partner,
		Our:        make(map[economy.SKU]*DescriptorItem),
		Their:      make(map[economy.SKU]*DescriptorItem),
		Prices:     make(map[economy.SKU]*economy.Price),
		OurValue:   &SideValue{},
		TheirValue: &SideValue{},
		CreateTime: time.Now(),
	}
}

func (d *Descriptor) side(ours bool) map[economy.SKU]*DescriptorItem {
	if ours {
		return d.Our
	}
	return d.Their
}

func (d *Descriptor) addInstance(ours bool, sku economy.SKU, id economy.InstanceID) {
	m := d.side(ours)
	item, ok := m[sku]
	if !ok {
		item = &DescriptorItem{}
		m[sku] = item
	}
	item.Amount++
	item.Instances = append(item.Instances, id)
}

// ItemCount returns the total number of instances on one side.
func (d *Descriptor) ItemCount(ours bool) int {
	n := 0
	for _, item := range d.side(ours) {
		n += item.Amount
	}
	return n
}
