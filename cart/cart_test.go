// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"testing"
)

func TestCartStates(t *testing.T) {
	c := New("partner-1")
	if c.State() != Empty {
		t.Fatalf("state: want %s, got %s", Empty, c.State())
	}
	if !c.IsEmpty() {
		t.Fatalf("new cart must be empty")
	}

	if err := c.AddItem(true, "hat;1", 2); err != nil {
		t.Fatal(err)
	}
	if c.State() != Populated {
		t.Fatalf("state: want %s, got %s", Populated, c.State())
	}
	if n := c.Count(true, "hat;1"); n != 2 {
		t.Fatalf("count: want 2, got %d", n)
	}

	c.RemoveItem(true, "hat;1", 2)
	if !c.IsEmpty() || c.State() != Empty {
		t.Fatalf("cart must return to empty after removing everything")
	}
}

func TestRemoveClampsAtZero(t *testing.T) {
	c := New("partner-1")
	if err := c.AddItem(false, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	c.RemoveItem(false, "hat;1", 100)
	if n := c.Count(false, "hat;1"); n != 0 {
		t.Fatalf("count: want 0, got %d", n)
	}
	if !c.IsEmpty() {
		t.Fatalf("cart must be empty after over-removal")
	}
}

func TestExplicitInstancesBounded(t *testing.T) {
	c := New("partner-1")
	if err := c.AddItem(true, "hat;1", 1, "a", "b"); err == nil {
		t.Fatalf("want error when explicit instances exceed amount")
	}
	if err := c.AddItem(true, "hat;1", 2, "a", "b"); err != nil {
		t.Fatal(err)
	}
	our, _ := c.Selections()
	if item := our["hat;1"]; item.Amount != 2 || len(item.Instances) != 2 {
		t.Fatalf("selection: got %+v", item)
	}
}

func TestRemoveTrimsExplicitInstances(t *testing.T) {
	c := New("partner-1")
	if err := c.AddItem(true, "hat;1", 3, "a", "b", "c"); err != nil {
		t.Fatal(err)
	}
	c.RemoveItem(true, "hat;1", 1)
	our, _ := c.Selections()
	item := our["hat;1"]
	if item.Amount != 2 || len(item.Instances) != 2 {
		t.Fatalf("selection after removal: got %+v", item)
	}
}

func TestClearResetsCart(t *testing.T) {
	c := New("partner-1")
	if err := c.AddItem(true, "hat;1", 1); err != nil {
		t.Fatal(err)
	}
	if err := c.AddItem(false, "cap;2", 1); err != nil {
		t.Fatal(err)
	}
	c.Clear()
	if !c.IsEmpty() || c.State() != Empty {
		t.Fatalf("cart must be empty after clear")
	}
}
