// Copyright (c) 2025 BVK Chaitanya

package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/bvk/barterbot/currency"
	"github.com/bvk/barterbot/economy"
)

func testItem(id, sku string, tradable bool) *Item {
	return &Item{
		InstanceRecord: economy.InstanceRecord{
			ID:       economy.InstanceID(id),
			SKU:      economy.SKU(sku),
			FullUses: true,
		},
		Tradable: tradable,
	}
}

func TestSnapshotFindBySKU(t *testing.T) {
	s := NewStatic([]*Item{
		testItem("a", "hat;1", true),
		testItem("b", "hat;1", false),
		testItem("c", "hat;1", true),
		testItem("d", "pan;2", true),
	})

	if ids := s.FindBySKU("hat;1", false); len(ids) != 3 {
		t.Fatalf("want 3 instances, got %v", ids)
	}
	ids := s.FindBySKU("hat;1", true)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("want tradable [a c] in order, got %v", ids)
	}
	if n := s.TotalItemCount(); n != 4 {
		t.Fatalf("want 4 items, got %d", n)
	}
	if n := s.Count("hat;1"); n != 2 {
		t.Fatalf("want tradable count 2, got %d", n)
	}
}

func TestSnapshotDuplicateIDsIgnored(t *testing.T) {
	s := NewStatic([]*Item{
		testItem("a", "hat;1", true),
		testItem("a", "pan;2", true),
	})
	if n := s.TotalItemCount(); n != 1 {
		t.Fatalf("want 1 item, got %d", n)
	}
	r, ok := s.Instance("a")
	if !ok || r.SKU != "hat;1" {
		t.Fatalf("first record must win, got %+v", r)
	}
}

func TestSnapshotCurrencyHoldings(t *testing.T) {
	s := NewStatic([]*Item{
		testItem("k1", string(currency.KeySKU), true),
		testItem("r1", string(currency.RefinedSKU), true),
		testItem("r2", string(currency.RefinedSKU), false),
		testItem("s1", string(currency.ScrapSKU), true),
		testItem("w1", "wpn;6", true),
	})

	holdings := s.CurrencyHoldings([]economy.SKU{"wpn;6"}, nil)
	if len(holdings[currency.KeySKU]) != 1 {
		t.Fatalf("want 1 key, got %v", holdings[currency.KeySKU])
	}
	if len(holdings[currency.RefinedSKU]) != 1 {
		t.Fatalf("untradable metal must be excluded, got %v", holdings[currency.RefinedSKU])
	}
	if len(holdings["wpn;6"]) != 1 {
		t.Fatalf("want 1 weapon, got %v", holdings["wpn;6"])
	}

	holdings = s.CurrencyHoldings(nil, []economy.SKU{currency.KeySKU})
	if _, ok := holdings[currency.KeySKU]; ok {
		t.Fatalf("excluded sku must not appear in holdings")
	}
}

func TestSnapshotRelease(t *testing.T) {
	s := NewStatic([]*Item{testItem("a", "hat;1", true)})
	s.Release()
	s.Release()
	if n := s.TotalItemCount(); n != 0 {
		t.Fatalf("released snapshot must be empty, got %d", n)
	}
	if ids := s.FindBySKU("hat;1", true); len(ids) != 0 {
		t.Fatalf("released snapshot must have no instances, got %v", ids)
	}
}

type fakeSource struct {
	snaps   []*Snapshot
	fetches int
	err     error
}

func (s *fakeSource) Fetch(ctx context.Context, trader economy.TraderID) (economy.Inventory, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.fetches >= len(s.snaps) {
		return nil, fmt.Errorf("no more snapshots")
	}
	snap := s.snaps[s.fetches]
	s.fetches++
	return snap, nil
}

func TestManagerRefresh(t *testing.T) {
	first := NewStatic([]*Item{testItem("a", "hat;1", true)})
	second := NewStatic([]*Item{
		testItem("a", "hat;1", true),
		testItem("b", "hat;1", true),
	})
	source := &fakeSource{snaps: []*Snapshot{first, second}}

	m := NewManager(source, "bot-1")
	if n := m.Count("hat;1"); n != 0 {
		t.Fatalf("want empty before first refresh, got %d", n)
	}

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := m.Count("hat;1"); n != 1 {
		t.Fatalf("want 1, got %d", n)
	}

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := m.Count("hat;1"); n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
	// The replaced snapshot is released by the manager.
	if n := first.TotalItemCount(); n != 0 {
		t.Fatalf("old snapshot must be released, got %d items", n)
	}
}

func TestManagerRefreshFailureKeepsSnapshot(t *testing.T) {
	first := NewStatic([]*Item{testItem("a", "hat;1", true)})
	source := &fakeSource{snaps: []*Snapshot{first}}

	m := NewManager(source, "bot-1")
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	source.err = fmt.Errorf("service down")
	if err := m.Refresh(context.Background()); err == nil {
		t.Fatalf("refresh must fail when the source fails")
	}
	if n := m.Count("hat;1"); n != 1 {
		t.Fatalf("failed refresh must keep the old snapshot, got %d", n)
	}
}
