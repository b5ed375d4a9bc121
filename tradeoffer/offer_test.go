// Copyright (c) 2025 BVK Chaitanya

package tradeoffer

import (
	"testing"

	"github.com/bvk/barterbot/economy"
	"github.com/visvasity/topic"
)

func testClient() *Client {
	return &Client{
		updatesTopic: topic.New[*Update](),
	}
}

func ref(id string) economy.ItemRef {
	return economy.ItemRef{
		CollectionID:    "440",
		SubCollectionID: "2",
		InstanceID:      economy.InstanceID(id),
	}
}

func TestOfferAddItem(t *testing.T) {
	c := testClient()
	defer c.Close()

	offer := c.CreateOffer("partner-1").(*Offer)
	if offer.ID() == "" {
		t.Fatalf("offer must have an id")
	}

	if ok := offer.AddItem(true, economy.ItemRef{InstanceID: "x"}); ok {
		t.Fatalf("malformed ref must be rejected")
	}
	if ok := offer.AddItem(true, ref("a")); !ok {
		t.Fatalf("valid ref must be accepted")
	}
	if ok := offer.AddItem(true, ref("a")); ok {
		t.Fatalf("duplicate instance must be rejected")
	}
	if ok := offer.AddItem(false, ref("a")); ok {
		t.Fatalf("instance cannot appear on both sides")
	}
	if ok := offer.AddItem(false, ref("b")); !ok {
		t.Fatalf("valid ref must be accepted")
	}

	if items := offer.Items(true); len(items) != 1 || items[0].InstanceID != "a" {
		t.Fatalf("want our side [a], got %v", items)
	}
	if items := offer.Items(false); len(items) != 1 || items[0].InstanceID != "b" {
		t.Fatalf("want their side [b], got %v", items)
	}
}

func TestActiveItemTracking(t *testing.T) {
	c := testClient()
	defer c.Close()

	c.markActive("offer-1", []economy.InstanceID{"a", "b"})
	if !c.IsInTrade("a") || !c.IsInTrade("b") {
		t.Fatalf("submitted items must be in trade")
	}
	if c.IsInTrade("c") {
		t.Fatalf("unknown item cannot be in trade")
	}

	// A non-terminal update keeps the items reserved.
	c.handleUpdate(&Update{OfferID: "offer-1", Status: "active"})
	if !c.IsInTrade("a") {
		t.Fatalf("active offer must keep items in trade")
	}

	c.handleUpdate(&Update{OfferID: "offer-1", Status: "accepted"})
	if c.IsInTrade("a") || c.IsInTrade("b") {
		t.Fatalf("terminal update must release the items")
	}
}

func TestUpdateIsTerminal(t *testing.T) {
	terminal := []string{"accepted", "declined", "canceled", "invalid-items"}
	for _, s := range terminal {
		if u := (&Update{Status: s}); !u.IsTerminal() {
			t.Fatalf("%q must be terminal", s)
		}
	}
	if u := (&Update{Status: "active"}); u.IsTerminal() {
		t.Fatalf("active is not terminal")
	}
}

func TestUpdatesSubscription(t *testing.T) {
	c := testClient()
	defer c.Close()

	receiver, err := c.Updates()
	if err != nil {
		t.Fatal(err)
	}
	defer receiver.Close()

	c.handleUpdate(&Update{OfferID: "offer-1", Status: "declined"})
	u, err := receiver.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if u.OfferID != "offer-1" || u.Status != "declined" {
		t.Fatalf("unexpected update %+v", u)
	}
}
