// Copyright (c) 2025 BVK Chaitanya

package currency

import (
	"testing"

	"github.com/bvk/barterbot/economy"
	"github.com/shopspring/decimal"
)

var keyValue = decimal.NewFromInt(50)

func checkValueIdentity(t *testing.T, price decimal.Decimal, table Table, s *Settlement) {
	t.Helper()
	picked := s.Picked.Value(table)
	if want := picked.Sub(price); !want.Equal(s.Remainder.Neg()) {
		t.Fatalf("value identity: want %s == %s", want, s.Remainder.Neg())
	}
}

func TestSettleExactForwardPass(t *testing.T) {
	table := NewTable(keyValue, true, nil)

	// Price of 2 keys + 10 scrap with keys, one refined and one scrap
	// available: the forward pass alone settles exactly.
	price := decimal.NewFromInt(110)
	owned := Counts{KeySKU: 3, RefinedSKU: 1, ReclaimedSKU: 2, ScrapSKU: 1}

	s := Settle(price, owned, table)
	if !s.Covered() {
		t.Fatalf("remainder: want 0, got %s", s.Remainder)
	}
	want := Counts{KeySKU: 2, RefinedSKU: 1, ReclaimedSKU: 0, ScrapSKU: 1}
	for sku, n := range want {
		if s.Picked[sku] != n {
			t.Fatalf("picked[%s]: want %d, got %d", sku, n, s.Picked[sku])
		}
	}
	checkValueIdentity(t, price, table, s)
}

func TestSettlePrefersHighDenominations(t *testing.T) {
	table := NewTable(keyValue, true, nil)

	price := decimal.NewFromInt(9)
	owned := Counts{RefinedSKU: 2, ReclaimedSKU: 3, ScrapSKU: 9}

	s := Settle(price, owned, table)
	if !s.Covered() {
		t.Fatalf("remainder: want 0, got %s", s.Remainder)
	}
	if s.Picked[RefinedSKU] != 1 || s.Picked[ReclaimedSKU] != 0 || s.Picked[ScrapSKU] != 0 {
		t.Fatalf("want one refined, got %v", s.Picked)
	}
}

func TestSettleReversePassOvershoot(t *testing.T) {
	table := NewTable(keyValue, true, nil)

	// Price 5 with only refined owned: forward pass picks nothing at the
	// lower denominations, reverse pass must take one refined and overshoot
	// by 4.
	price := decimal.NewFromInt(5)
	owned := Counts{RefinedSKU: 2}

	s := Settle(price, owned, table)
	if s.Picked[RefinedSKU] != 1 {
		t.Fatalf("picked refined: want 1, got %d", s.Picked[RefinedSKU])
	}
	if want := decimal.NewFromInt(-4); !s.Remainder.Equal(want) {
		t.Fatalf("remainder: want %s, got %s", want, s.Remainder)
	}
	if want := decimal.NewFromInt(4); !s.Change().Equal(want) {
		t.Fatalf("change: want %s, got %s", want, s.Change())
	}
	checkValueIdentity(t, price, table, s)
}

func TestSettleCleanupRemovesLowestFirst(t *testing.T) {
	table := NewTable(keyValue, true, nil)

	// Price 10 with 2 reclaimed and 9 scrap: forward pass picks 2 reclaimed
	// and 4 scrap for an exact match; now price 11 with only reclaimed makes
	// the reverse pass overshoot and cleanup must drop the surplus from the
	// lowest denomination while keeping higher units intact.
	price := decimal.NewFromInt(11)
	owned := Counts{ReclaimedSKU: 4, ScrapSKU: 4}

	s := Settle(price, owned, table)
	// Forward: 3 reclaimed (9) + 2 scrap = 11 exactly.
	if !s.Covered() {
		t.Fatalf("remainder: want 0, got %s", s.Remainder)
	}
	if s.Picked[ReclaimedSKU] != 3 || s.Picked[ScrapSKU] != 2 {
		t.Fatalf("picked: got %v", s.Picked)
	}

	// Price 8 with only reclaimed: reverse takes 3 reclaimed (9), cleanup
	// cannot remove any unit without going short again.
	price = decimal.NewFromInt(8)
	owned = Counts{ReclaimedSKU: 5}
	s = Settle(price, owned, table)
	if s.Picked[ReclaimedSKU] != 3 {
		t.Fatalf("picked reclaimed: want 3, got %d", s.Picked[ReclaimedSKU])
	}
	if want := decimal.NewFromInt(-1); !s.Remainder.Equal(want) {
		t.Fatalf("remainder: want %s, got %s", want, s.Remainder)
	}
	checkValueIdentity(t, price, table, s)
}

func TestSettleCleanupKeepsHighValueUnits(t *testing.T) {
	table := NewTable(keyValue, true, nil)

	// Price 12 with one refined and plenty of scrap: forward picks refined
	// plus 3 scrap exactly. With price 10 and one refined plus 3 reclaimed,
	// forward picks refined (9) then reclaimed floor(1/3)=0, then scrap
	// none owned; reverse picks one reclaimed for overshoot -2; cleanup
	// starts from the lowest denominations and leaves the refined alone.
	price := decimal.NewFromInt(10)
	owned := Counts{RefinedSKU: 1, ReclaimedSKU: 3}

	s := Settle(price, owned, table)
	if s.Picked[RefinedSKU] != 1 {
		t.Fatalf("picked refined: want 1, got %d", s.Picked[RefinedSKU])
	}
	if s.Picked[ReclaimedSKU] != 1 {
		t.Fatalf("picked reclaimed: want 1, got %d", s.Picked[ReclaimedSKU])
	}
	if want := decimal.NewFromInt(-2); !s.Remainder.Equal(want) {
		t.Fatalf("remainder: want %s, got %s", want, s.Remainder)
	}
	checkValueIdentity(t, price, table, s)
}

func TestSettleFractionalWithoutWeapons(t *testing.T) {
	table := NewTable(keyValue, true, nil)

	// A half-scrap price component is not representable with whole metal
	// units: the final remainder magnitude is exactly the fractional part.
	price := decimal.RequireFromString("2.5")
	owned := Counts{ScrapSKU: 10}

	s := Settle(price, owned, table)
	frac := price.Mod(table.SmallestUnit())
	if !s.Remainder.Abs().Equal(frac) {
		t.Fatalf("remainder magnitude: want %s, got %s", frac, s.Remainder.Abs())
	}
	checkValueIdentity(t, price, table, s)
}

func TestSettleFractionalWithWeapons(t *testing.T) {
	weapons := []economy.SKU{"30;6", "31;6"}
	table := NewTable(keyValue, true, weapons)

	price := decimal.RequireFromString("2.5")
	owned := Counts{ScrapSKU: 10, "30;6": 1}

	s := Settle(price, owned, table)
	if !s.Covered() {
		t.Fatalf("remainder: want 0, got %s", s.Remainder)
	}
	if s.Picked[ScrapSKU] != 2 || s.Picked["30;6"] != 1 {
		t.Fatalf("picked: got %v", s.Picked)
	}
}

func TestSettleInsufficientFunds(t *testing.T) {
	table := NewTable(keyValue, true, nil)

	price := decimal.NewFromInt(100)
	owned := Counts{RefinedSKU: 2, ScrapSKU: 3}

	s := Settle(price, owned, table)
	if want := decimal.NewFromInt(79); !s.Remainder.Equal(want) {
		t.Fatalf("remainder: want %s, got %s", want, s.Remainder)
	}
	if s.Picked[RefinedSKU] != 2 || s.Picked[ScrapSKU] != 3 {
		t.Fatalf("picked: want everything owned, got %v", s.Picked)
	}
	checkValueIdentity(t, price, table, s)
}

func TestSettleChangeExcludesKeys(t *testing.T) {
	table := NewTable(keyValue, true, nil)

	change := decimal.NewFromInt(50)
	owned := Counts{KeySKU: 4, RefinedSKU: 6, ReclaimedSKU: 2, ScrapSKU: 2}

	s := SettleChange(change, owned, table)
	if s.Picked[KeySKU] != 0 {
		t.Fatalf("change must not use keys, got %d", s.Picked[KeySKU])
	}
	if !s.Covered() {
		t.Fatalf("remainder: want 0, got %s", s.Remainder)
	}
	// 5 refined + 1 reclaimed + 2 scrap = 50.
	if s.Picked[RefinedSKU] != 5 || s.Picked[ReclaimedSKU] != 1 || s.Picked[ScrapSKU] != 2 {
		t.Fatalf("picked: got %v", s.Picked)
	}
}

func TestTableCheck(t *testing.T) {
	good := NewTable(keyValue, true, []economy.SKU{"30;6"})
	if err := good.Check(); err != nil {
		t.Fatal(err)
	}
	bad := Table{
		{ScrapSKU, decimal.NewFromInt(1)},
		{RefinedSKU, decimal.NewFromInt(9)},
	}
	if err := bad.Check(); err == nil {
		t.Fatalf("want non-nil error for increasing table")
	}
}
