// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Options struct {
	// BotID is the bot's own trader id on the trading platform.
	BotID string

	// InventoryRefreshInterval is the period between bot inventory
	// refreshes.
	InventoryRefreshInterval time.Duration

	// CartIdleTimeout expires counterparty carts with no activity.
	CartIdleTimeout time.Duration

	// Weapons lists craftable-weapon skus usable as half-scrap currency.
	Weapons []string

	// LimitedUse lists limited-use item skus that must have all uses left
	// to be accepted from counterparties.
	LimitedUse []string

	// SkipItemsInTrade skips instances engaged in another active exchange
	// instead of failing offer construction.
	SkipItemsInTrade bool

	// DupeCheckEnabled gates the duplicate-item verification pipeline.
	DupeCheckEnabled bool

	// MinKeysDupeCheck is the per-unit buy value threshold, in keys, above
	// which a duplicable item is queued for duplicate verification.
	MinKeysDupeCheck decimal.Decimal

	// DupeContextID is passed through to the duplicate checker.
	DupeContextID string
}

func (v *Options) setDefaults() {
	if v.InventoryRefreshInterval == 0 {
		v.InventoryRefreshInterval = 5 * time.Minute
	}
	if v.CartIdleTimeout == 0 {
		v.CartIdleTimeout = 15 * time.Minute
	}
	if v.MinKeysDupeCheck.IsZero() {
		v.MinKeysDupeCheck = decimal.NewFromInt(10)
	}
	if len(v.DupeContextID) == 0 {
		v.DupeContextID = "2"
	}
}

func (v *Options) Check() error {
	if len(v.BotID) == 0 {
		return fmt.Errorf("bot trader id cannot be empty")
	}
	if v.InventoryRefreshInterval < time.Second {
		return fmt.Errorf("inventory refresh interval %s is too small", v.InventoryRefreshInterval)
	}
	return nil
}
