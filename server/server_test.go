// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cart"
	"github.com/bvk/barterbot/economy"
	"github.com/bvk/barterbot/gobs"
	"github.com/bvk/barterbot/kvutil"
	"github.com/bvk/barterbot/pricelist"
	"github.com/bvk/barterbot/tradeoffer"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
)

func testDescriptor(partner string) *cart.Descriptor {
	return &cart.Descriptor{
		ID:      "offer-1",
		Partner: economy.TraderID(partner),
		Our: map[economy.SKU]*cart.DescriptorItem{
			"5002;6": {Amount: 2, Instances: []economy.InstanceID{"r1", "r2"}},
		},
		Their: map[economy.SKU]*cart.DescriptorItem{
			"30;6": {Amount: 1, Instances: []economy.InstanceID{"h1"}},
		},
		OurValue:   &cart.SideValue{Total: decimal.NewFromInt(18), Metal: decimal.NewFromInt(18)},
		TheirValue: &cart.SideValue{Total: decimal.NewFromInt(18)},
		KeyRate:    decimal.NewFromInt(50),
		CreateTime: time.Now(),
	}
}

func TestOfferRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	s := &Server{db: db}
	desc := testDescriptor("partner-1")
	rec := newOfferRecord(desc.ID, desc)
	if rec.Status != StatusSent {
		t.Fatalf("want %q, got %q", StatusSent, rec.Status)
	}
	if rec.Our.Items["5002;6"] != 2 {
		t.Fatalf("want 2 refined on our side, got %d", rec.Our.Items["5002;6"])
	}

	if err := s.recordOffer(ctx, desc.ID, desc); err != nil {
		t.Fatal(err)
	}

	update := &tradeoffer.Update{OfferID: desc.ID, Status: "accepted"}
	if err := s.recordOfferUpdate(ctx, update); err != nil {
		t.Fatal(err)
	}

	recs, err := OffersInRange(ctx, db, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("want 1 offer record, got %d", len(recs))
	}
	if recs[0].Status != "accepted" {
		t.Fatalf("want accepted, got %q", recs[0].Status)
	}
	if recs[0].CloseTime.IsZero() {
		t.Fatalf("terminal update must set the close time")
	}
}

func TestOffersInRangePeriod(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()
	s := &Server{db: db}

	old := testDescriptor("partner-1")
	old.ID = "offer-old"
	old.CreateTime = time.Now().Add(-48 * time.Hour)
	if err := s.recordOffer(ctx, old.ID, old); err != nil {
		t.Fatal(err)
	}
	fresh := testDescriptor("partner-2")
	fresh.ID = "offer-new"
	if err := s.recordOffer(ctx, fresh.ID, fresh); err != nil {
		t.Fatal(err)
	}

	req := &api.OfferListRequest{BeginTime: time.Now().Add(-time.Hour)}
	resp, err := s.doOfferList(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Offers) != 1 {
		t.Fatalf("want 1 offer in period, got %d", len(resp.Offers))
	}
	if resp.Offers[0].OfferID != "offer-new" {
		t.Fatalf("want offer-new, got %q", resp.Offers[0].OfferID)
	}
}

func TestHTTPPostJSONHandler(t *testing.T) {
	handler := httpPostJSONHandler(func(ctx context.Context, req *api.StatusRequest) (*api.StatusResponse, error) {
		return &api.StatusResponse{PID: 1234}, nil
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}

	body, _ := json.Marshal(&api.StatusRequest{})
	r = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	r.Header.Set("content-type", "application/json")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("want %d, got %d", http.StatusOK, w.Code)
	}
	resp := new(api.StatusResponse)
	if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
		t.Fatal(err)
	}
	if resp.PID != 1234 {
		t.Fatalf("want pid 1234, got %d", resp.PID)
	}
}

func TestParseSKUAmount(t *testing.T) {
	sku, amount, err := parseSKUAmount("5002;6:3")
	if err != nil {
		t.Fatal(err)
	}
	if sku != "5002;6" || amount != 3 {
		t.Fatalf("want 5002;6 x3, got %s x%d", sku, amount)
	}

	sku, amount, err = parseSKUAmount("5002;6")
	if err != nil {
		t.Fatal(err)
	}
	if sku != "5002;6" || amount != 1 {
		t.Fatalf("want 5002;6 x1, got %s x%d", sku, amount)
	}

	if _, _, err := parseSKUAmount("5002;6:zero"); err == nil {
		t.Fatalf("non-numeric amount must fail")
	}
}

func TestServerLive(t *testing.T) {
	fpath := os.Getenv("BARTERBOT_SECRETS_FILE")
	if len(fpath) == 0 {
		t.Skip("BARTERBOT_SECRETS_FILE is not set")
		return
	}
	secrets, err := SecretsFromFile(fpath)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	db := kvmemdb.New()
	key := &gobs.PricelistEntry{
		SKU:     "5021;6",
		Name:    "Key",
		Buy:     decimal.NewFromInt(48),
		Sell:    decimal.NewFromInt(50),
		Max:     -1,
		Enabled: true,
	}
	if err := kvutil.SetDB(ctx, db, pricelist.EntryKey("5021;6"), key); err != nil {
		t.Fatal(err)
	}

	s, err := New(ctx, secrets, db, &Options{BotID: "test-bot"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if len(s.HandlerMap()) == 0 {
		t.Fatalf("server must export api handlers")
	}
}
