// Copyright (c) 2025 BVK Chaitanya

// Package currency implements the pure settlement algorithm that picks
// currency denominations to cover an owed value.
package currency

import (
	"fmt"

	"github.com/bvk/barterbot/economy"
	"github.com/shopspring/decimal"
)

// Well-known denomination skus. Weapon-class skus are configured at runtime.
const (
	KeySKU       economy.SKU = "5021;6"
	RefinedSKU   economy.SKU = "5002;6"
	ReclaimedSKU economy.SKU = "5001;6"
	ScrapSKU     economy.SKU = "5000;6"
)

var (
	refinedValue   = decimal.NewFromInt(9)
	reclaimedValue = decimal.NewFromInt(3)
	scrapValue     = decimal.NewFromInt(1)
	weaponValue    = decimal.RequireFromString("0.5")
)

// Denomination is one currency item type with its unit value in scrap units.
type Denomination struct {
	SKU       economy.SKU
	UnitValue decimal.Decimal
}

// Table is an ordered denomination sequence, strictly decreasing by unit
// value. A table is fixed for the duration of one settlement run.
type Table []Denomination

// NewTable returns the denomination table for one settlement run. The key
// entry is included only when useKeys is true. Weapon entries are appended,
// all at half a scrap, only when weapon skus are given.
func NewTable(keyValue decimal.Decimal, useKeys bool, weapons []economy.SKU) Table {
	var t Table
	if useKeys {
		t = append(t, Denomination{KeySKU, keyValue})
	}
	t = append(t,
		Denomination{RefinedSKU, refinedValue},
		Denomination{ReclaimedSKU, reclaimedValue},
		Denomination{ScrapSKU, scrapValue},
	)
	for _, sku := range weapons {
		t = append(t, Denomination{sku, weaponValue})
	}
	return t
}

// WithoutHighest returns the table with its highest-value denomination
// removed. Change is never given in the highest-value unit.
func (t Table) WithoutHighest() Table {
	if len(t) == 0 {
		return t
	}
	return t[1:]
}

// SmallestUnit returns the unit value of the lowest denomination.
func (t Table) SmallestUnit() decimal.Decimal {
	if len(t) == 0 {
		return decimal.Zero
	}
	return t[len(t)-1].UnitValue
}

// UnitValue returns the unit value for a sku in the table.
func (t Table) UnitValue(sku economy.SKU) (decimal.Decimal, bool) {
	for _, d := range t {
		if d.SKU == sku {
			return d.UnitValue, true
		}
	}
	return decimal.Zero, false
}

func (t Table) Check() error {
	for i, d := range t {
		if !d.UnitValue.IsPositive() {
			return fmt.Errorf("denomination %q unit value must be positive", d.SKU)
		}
		if i > 0 && d.UnitValue.GreaterThanOrEqual(t[i-1].UnitValue) {
			return fmt.Errorf("denomination table must be strictly decreasing at %q", d.SKU)
		}
	}
	return nil
}

// Counts maps a denomination sku to a whole number of units.
type Counts map[economy.SKU]int

// Value returns the total scrap value of the counts priced by the table.
// Skus absent from the table contribute nothing.
func (c Counts) Value(t Table) decimal.Decimal {
	sum := decimal.Zero
	for sku, n := range c {
		if v, ok := t.UnitValue(sku); ok && n > 0 {
			sum = sum.Add(v.Mul(decimal.NewFromInt(int64(n))))
		}
	}
	return sum
}
