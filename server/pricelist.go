// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"fmt"
	"os"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/economy"
	"github.com/bvk/barterbot/gobs"
)

func (s *Server) doPricelistGet(ctx context.Context, req *api.PricelistGetRequest) (*api.PricelistGetResponse, error) {
	entry, ok := s.priceList.Get(economy.SKU(req.SKU))
	if !ok {
		return nil, fmt.Errorf("item type %q is not in the pricelist: %w", req.SKU, os.ErrNotExist)
	}
	return &api.PricelistGetResponse{Entry: toAPIEntry(entry)}, nil
}

func (s *Server) doPricelistSet(ctx context.Context, req *api.PricelistSetRequest) (*api.PricelistSetResponse, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	if err := s.priceList.Set(ctx, fromAPIEntry(req.Entry)); err != nil {
		return &api.PricelistSetResponse{Error: err.Error()}, nil
	}
	return &api.PricelistSetResponse{}, nil
}

func (s *Server) doPricelistList(ctx context.Context, req *api.PricelistListRequest) (*api.PricelistListResponse, error) {
	var entries []*api.PricelistEntry
	for _, entry := range s.priceList.Entries() {
		entries = append(entries, toAPIEntry(entry))
	}
	return &api.PricelistListResponse{Entries: entries}, nil
}

func (s *Server) doPricelistDelete(ctx context.Context, req *api.PricelistDeleteRequest) (*api.PricelistDeleteResponse, error) {
	if err := s.priceList.Delete(ctx, economy.SKU(req.SKU)); err != nil {
		return &api.PricelistDeleteResponse{Error: err.Error()}, nil
	}
	return &api.PricelistDeleteResponse{}, nil
}

func toAPIEntry(v *gobs.PricelistEntry) *api.PricelistEntry {
	return &api.PricelistEntry{
		SKU:        v.SKU,
		Name:       v.Name,
		Buy:        v.Buy,
		Sell:       v.Sell,
		Min:        v.Min,
		Max:        v.Max,
		Enabled:    v.Enabled,
		Duplicable: v.Duplicable,
		UpdateTime: v.UpdateTime,
	}
}

func fromAPIEntry(v *api.PricelistEntry) *gobs.PricelistEntry {
	return &gobs.PricelistEntry{
		SKU:        v.SKU,
		Name:       v.Name,
		Buy:        v.Buy,
		Sell:       v.Sell,
		Min:        v.Min,
		Max:        v.Max,
		Enabled:    v.Enabled,
		Duplicable: v.Duplicable,
	}
}
