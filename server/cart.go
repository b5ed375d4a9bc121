// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"sort"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cart"
	"github.com/bvk/barterbot/economy"
)

func (s *Server) userCart(trader string) (*cart.UserCart, error) {
	c, err := s.sessions.Cart(economy.TraderID(trader))
	if err != nil {
		return nil, err
	}
	c.SetUseKeys(s.useKeys())
	return c, nil
}

func (s *Server) doCartAdd(ctx context.Context, req *api.CartAddRequest) (*api.CartAddResponse, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	c, err := s.userCart(req.Trader)
	if err != nil {
		return nil, err
	}
	var ids []economy.InstanceID
	for _, v := range req.Instances {
		ids = append(ids, economy.InstanceID(v))
	}
	if err := c.AddItem(req.Ours, economy.SKU(req.SKU), req.Amount, ids...); err != nil {
		return &api.CartAddResponse{Error: err.Error()}, nil
	}
	return &api.CartAddResponse{}, nil
}

func (s *Server) doCartRemove(ctx context.Context, req *api.CartRemoveRequest) (*api.CartRemoveResponse, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	c, err := s.userCart(req.Trader)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(req.Ours, economy.SKU(req.SKU), req.Amount)
	return &api.CartRemoveResponse{}, nil
}

func (s *Server) doCartShow(ctx context.Context, req *api.CartShowRequest) (*api.CartShowResponse, error) {
	c, err := s.userCart(req.Trader)
	if err != nil {
		return nil, err
	}
	our, their := c.Selections()
	resp := &api.CartShowResponse{
		State: string(c.State()),
		Our:   cartItems(our),
		Their: cartItems(their),
	}
	return resp, nil
}

func cartItems(sel cart.Selection) []*api.CartItem {
	var items []*api.CartItem
	for sku, item := range sel {
		items = append(items, &api.CartItem{SKU: string(sku), Amount: item.Amount})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SKU < items[j].SKU
	})
	return items
}

func (s *Server) doCartCheckout(ctx context.Context, req *api.CartCheckoutRequest) (*api.CartCheckoutResponse, error) {
	desc, notes, err := s.sessions.Checkout(ctx, economy.TraderID(req.Trader))
	if err != nil {
		if r, ok := cart.AsRejection(err); ok {
			return &api.CartCheckoutResponse{Rejection: r.Reason}, nil
		}
		return &api.CartCheckoutResponse{Error: err.Error()}, nil
	}
	return &api.CartCheckoutResponse{OfferID: desc.ID, Notes: notes}, nil
}

func (s *Server) doCartClear(ctx context.Context, req *api.CartClearRequest) (*api.CartClearResponse, error) {
	s.sessions.Clear(economy.TraderID(req.Trader))
	return &api.CartClearResponse{}, nil
}
