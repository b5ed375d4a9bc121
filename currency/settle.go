// Copyright (c) 2025 BVK Chaitanya

package currency

import (
	"github.com/bvk/barterbot/economy"
	"github.com/shopspring/decimal"
)

// Settlement is the result of one settlement run. Remainder follows the sign
// convention: positive means the payer still owes value after spending every
// pickable unit; negative means the picked units overshoot the price and the
// other side owes the absolute value back as change.
type Settlement struct {
	Picked Counts

	Remainder decimal.Decimal
}

// Covered returns true when the picked denominations meet the price exactly.
func (s *Settlement) Covered() bool {
	return s.Remainder.IsZero()
}

// Change returns the overshoot value owed back to the payer. Zero when the
// settlement is exact or short.
func (s *Settlement) Change() decimal.Decimal {
	if s.Remainder.IsNegative() {
		return s.Remainder.Neg()
	}
	return decimal.Zero
}

// Settle picks denominations from the payer's owned counts to cover the
// price. It never fails; callers interpret a non-zero remainder.
//
// The run has up to three passes. The forward pass walks the table from the
// highest denomination down, taking floor(remaining/unit) capped at the owned
// count. If the lowest denomination is reached with value still owed, the
// reverse pass walks back up, taking ceil(remaining/unit) bounded by the
// remaining stock, until the remaining value is pushed to zero or below.
// When the result overshoots, the cleanup pass removes already-picked units,
// lowest denomination first, without letting the remaining value turn
// positive again; higher-value units are kept intact for the payer.
func Settle(price decimal.Decimal, owned Counts, table Table) *Settlement {
	picked := make(Counts, len(table))
	for _, d := range table {
		picked[d.SKU] = 0
	}
	remaining := price

	// Forward pass.
	for _, d := range table {
		if !remaining.IsPositive() {
			break
		}
		n := remaining.Div(d.UnitValue).IntPart()
		if max := int64(owned[d.SKU]); n > max {
			n = max
		}
		if n >= 1 {
			picked[d.SKU] += int(n)
			remaining = remaining.Sub(d.UnitValue.Mul(decimal.NewFromInt(n)))
		}
	}

	// Reverse pass. Only needed when whole units of the available
	// denominations cannot represent the price exactly; overshoot here is
	// corrected by the cleanup pass below.
	if remaining.IsPositive() {
		for i := len(table) - 1; i >= 0 && remaining.IsPositive(); i-- {
			d := table[i]
			avail := int64(owned[d.SKU] - picked[d.SKU])
			if avail <= 0 {
				continue
			}
			n := remaining.Div(d.UnitValue).Ceil().IntPart()
			if n > avail {
				n = avail
			}
			if n >= 1 {
				picked[d.SKU] += int(n)
				remaining = remaining.Sub(d.UnitValue.Mul(decimal.NewFromInt(n)))
			}
		}
	}

	// Cleanup pass.
	if remaining.IsNegative() {
		for i := len(table) - 1; i >= 0; i-- {
			d := table[i]
			n := remaining.Neg().Div(d.UnitValue).IntPart()
			if max := int64(picked[d.SKU]); n > max {
				n = max
			}
			if n >= 1 {
				picked[d.SKU] -= int(n)
				remaining = remaining.Add(d.UnitValue.Mul(decimal.NewFromInt(n)))
			}
		}
	}

	return &Settlement{Picked: picked, Remainder: remaining}
}

// SettleChange picks denominations to return change. Change selection uses
// the same algorithm as payment selection, but never the highest-value
// denomination. The caller must verify the result covers the change exactly.
func SettleChange(change decimal.Decimal, owned Counts, table Table) *Settlement {
	return Settle(change, owned, table.WithoutHighest())
}

// CountHoldings converts per-denomination instance id lists into counts.
func CountHoldings(holdings map[economy.SKU][]economy.InstanceID) Counts {
	counts := make(Counts, len(holdings))
	for sku, ids := range holdings {
		counts[sku] = len(ids)
	}
	return counts
}
