// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

type PricelistEntry struct {
	SKU  string
	Name string

	// Buy and Sell are in scrap units.
	Buy  decimal.Decimal
	Sell decimal.Decimal

	// Min and Max bound the stock kept for this item. Max of -1 means
	// unlimited.
	Min int
	Max int

	Enabled    bool
	Duplicable bool

	UpdateTime time.Time
}

type InstanceOverride struct {
	InstanceID string
	SKU        string

	Buy  decimal.Decimal
	Sell decimal.Decimal
}
