// Copyright (c) 2025 BVK Chaitanya

package api

import "fmt"

func (r *CartAddRequest) Check() error {
	if len(r.Trader) == 0 {
		return fmt.Errorf("trader id cannot be empty")
	}
	if len(r.SKU) == 0 {
		return fmt.Errorf("item sku cannot be empty")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("item amount must be positive")
	}
	return nil
}

func (r *CartRemoveRequest) Check() error {
	if len(r.Trader) == 0 {
		return fmt.Errorf("trader id cannot be empty")
	}
	if len(r.SKU) == 0 {
		return fmt.Errorf("item sku cannot be empty")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("item amount must be positive")
	}
	return nil
}

func (r *PricelistSetRequest) Check() error {
	if r.Entry == nil {
		return fmt.Errorf("pricelist entry cannot be nil")
	}
	if len(r.Entry.SKU) == 0 {
		return fmt.Errorf("pricelist entry sku cannot be empty")
	}
	if r.Entry.Buy.IsNegative() || r.Entry.Sell.IsNegative() {
		return fmt.Errorf("pricelist entry prices cannot be negative")
	}
	return nil
}

func (r *OfferListRequest) Check() error {
	if !r.BeginTime.IsZero() && !r.EndTime.IsZero() && r.EndTime.Before(r.BeginTime) {
		return fmt.Errorf("end time cannot be before begin time")
	}
	return nil
}
