// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferSideValue struct {
	Total decimal.Decimal
	Keys  int64
	Metal decimal.Decimal

	// Items maps sku to the number of units on this side.
	Items map[string]int
}

type OfferRecord struct {
	OfferID string
	Partner string

	Status string
	Reason string

	Our   OfferSideValue
	Their OfferSideValue

	KeyValue decimal.Decimal

	CreateTime time.Time
	CloseTime  time.Time
}
