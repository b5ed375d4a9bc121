// Copyright (c) 2025 BVK Chaitanya

// Package api defines the request/response types for the barterbot daemon's
// HTTP endpoints.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CartAddPath      = "/barterbot/cart/add"
	CartRemovePath   = "/barterbot/cart/remove"
	CartShowPath     = "/barterbot/cart/show"
	CartCheckoutPath = "/barterbot/cart/checkout"
	CartClearPath    = "/barterbot/cart/clear"

	PricelistGetPath    = "/barterbot/pricelist/get"
	PricelistSetPath    = "/barterbot/pricelist/set"
	PricelistListPath   = "/barterbot/pricelist/list"
	PricelistDeletePath = "/barterbot/pricelist/delete"

	OfferListPath = "/barterbot/offer/list"

	StatusPath = "/barterbot/status"
)

type CartAddRequest struct {
	Trader string

	// Ours selects the bot's side of the cart when true.
	Ours bool

	SKU    string
	Amount int

	// Instances optionally pins specific item instances.
	Instances []string
}

type CartAddResponse struct {
	Error string
}

type CartRemoveRequest struct {
	Trader string
	Ours   bool
	SKU    string
	Amount int
}

type CartRemoveResponse struct {
	Error string
}

type CartShowRequest struct {
	Trader string
}

type CartItem struct {
	SKU    string
	Amount int
}

type CartShowResponse struct {
	State string
	Our   []*CartItem
	Their []*CartItem

	Error string
}

type CartCheckoutRequest struct {
	Trader string
}

type CartCheckoutResponse struct {
	OfferID string

	// Notes carries the human-readable summary of cart alterations made
	// during offer construction.
	Notes string

	// Rejection is non-empty when the checkout was refused with a
	// user-presentable reason.
	Rejection string

	Error string
}

type CartClearRequest struct {
	Trader string
}

type CartClearResponse struct {
	Error string
}

type PricelistEntry struct {
	SKU  string
	Name string

	Buy  decimal.Decimal
	Sell decimal.Decimal

	Min int
	Max int

	Enabled    bool
	Duplicable bool

	UpdateTime time.Time
}

type PricelistGetRequest struct {
	SKU string
}

type PricelistGetResponse struct {
	Entry *PricelistEntry
	Error string
}

type PricelistSetRequest struct {
	Entry *PricelistEntry
}

type PricelistSetResponse struct {
	Error string
}

type PricelistListRequest struct {
}

type PricelistListResponse struct {
	Entries []*PricelistEntry
	Error   string
}

type PricelistDeleteRequest struct {
	SKU string
}

type PricelistDeleteResponse struct {
	Error string
}

type OfferListRequest struct {
	// BeginTime and EndTime select offers created within the time period.
	// Zero values leave the corresponding end open.
	BeginTime time.Time
	EndTime   time.Time

	// Status filters by offer status when non-empty.
	Status string
}

type Offer struct {
	OfferID string
	Partner string
	Status  string
	Reason  string

	OurTotal   decimal.Decimal
	TheirTotal decimal.Decimal

	CreateTime time.Time
	CloseTime  time.Time
}

type OfferListResponse struct {
	Offers []*Offer
	Error  string
}

type StatusRequest struct {
}

type StatusResponse struct {
	PID       int
	StartTime time.Time
	Uptime    string

	NumCarts      int
	NumItems      int
	NumPricelist  int
	KeyValueScrap decimal.Decimal

	LoadAvg1  float64
	LoadAvg5  float64
	LoadAvg15 float64

	MemUsedPercent float64

	Error string
}
