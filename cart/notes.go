// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"strings"

	"github.com/bvk/barterbot/economy"
)

// alteredNotes collects at most one human-readable adjustment note per item
// type, in first-adjustment order. When both the stock clamp and the
// trade-limit clamp apply to the same item, the later note replaces the
// earlier one so the counterparty sees a single explanation.
type alteredNotes struct {
	order []economy.SKU
	notes map[economy.SKU]string
}

func (a *alteredNotes) add(sku economy.SKU, note string) {
	if a.notes == nil {
		a.notes = make(map[economy.SKU]string)
	}
	if _, ok := a.notes[sku]; !ok {
		a.order = append(a.order, sku)
	}
	a.notes[sku] = note
}

func (a *alteredNotes) join() string {
	var parts []string
	for _, sku := range a.order {
		parts = append(parts, a.notes[sku])
	}
	return strings.Join(parts, ", ")
}
