// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"sort"
	"time"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cart"
	"github.com/bvk/barterbot/economy"
	"github.com/bvk/barterbot/gobs"
	"github.com/bvk/barterbot/kvutil"
	"github.com/bvk/barterbot/session"
	"github.com/bvk/barterbot/timerange"
	"github.com/bvk/barterbot/tradeoffer"
	"github.com/bvkgo/kv"
	"github.com/visvasity/topic"
)

// StatusSent is the offer record status before any platform update arrives.
const StatusSent = "sent"

func (s *Server) goRecordSessionEvents(ctx context.Context, events *topic.Receiver[*session.Event]) {
	defer context.AfterFunc(ctx, func() {
		events.Close()
	})()

	for {
		ev, err := events.Receive()
		if err != nil {
			return
		}
		if ev.Type != session.EventOfferSent || ev.Descriptor == nil {
			continue
		}
		if err := s.recordOffer(ctx, ev.OfferID, ev.Descriptor); err != nil {
			slog.ErrorContext(ctx, "could not save offer record", "offer", ev.OfferID, "error", err)
		}
	}
}

func (s *Server) recordOffer(ctx context.Context, offerID string, desc *cart.Descriptor) error {
	key := path.Join(OffersKeyspace, offerID)
	return kvutil.SetDB(ctx, s.db, key, newOfferRecord(offerID, desc))
}

func (s *Server) goRecordOfferUpdates(ctx context.Context, updates *topic.Receiver[*tradeoffer.Update]) {
	defer context.AfterFunc(ctx, func() {
		updates.Close()
	})()

	for {
		u, err := updates.Receive()
		if err != nil {
			return
		}
		if err := s.recordOfferUpdate(ctx, u); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.ErrorContext(ctx, "could not update offer record", "offer", u.OfferID, "error", err)
			}
		}
	}
}

func (s *Server) recordOfferUpdate(ctx context.Context, u *tradeoffer.Update) error {
	key := path.Join(OffersKeyspace, u.OfferID)
	update := func(ctx context.Context, rw kv.ReadWriter) error {
		rec, err := kvutil.Get[gobs.OfferRecord](ctx, rw, key)
		if err != nil {
			return err
		}
		rec.Status = u.Status
		rec.Reason = u.Message
		if u.IsTerminal() {
			rec.CloseTime = time.Now()
		}
		return kvutil.Set(ctx, rw, key, rec)
	}
	return kv.WithReadWriter(ctx, s.db, update)
}

func newOfferRecord(offerID string, desc *cart.Descriptor) *gobs.OfferRecord {
	return &gobs.OfferRecord{
		OfferID:    offerID,
		Partner:    string(desc.Partner),
		Status:     StatusSent,
		Our:        offerSideValue(desc.OurValue, desc.Our),
		Their:      offerSideValue(desc.TheirValue, desc.Their),
		KeyValue:   desc.KeyRate,
		CreateTime: desc.CreateTime,
	}
}

func offerSideValue(v *cart.SideValue, items map[economy.SKU]*cart.DescriptorItem) gobs.OfferSideValue {
	sv := gobs.OfferSideValue{
		Total: v.Total,
		Keys:  int64(v.Keys),
		Metal: v.Metal,
		Items: make(map[string]int),
	}
	for sku, item := range items {
		sv.Items[string(sku)] = item.Amount
	}
	return sv
}

// OffersInRange returns offer records created within the given period, in
// creation order.
func OffersInRange(ctx context.Context, db kv.Database, period *timerange.Range) ([]*gobs.OfferRecord, error) {
	var recs []*gobs.OfferRecord
	begin, end := kvutil.PathRange(OffersKeyspace)
	collect := func(ctx context.Context, r kv.Reader, key string, v *gobs.OfferRecord) error {
		if period == nil || period.InRange(v.CreateTime) {
			recs = append(recs, v)
		}
		return nil
	}
	if err := kvutil.AscendDB(ctx, db, begin, end, collect); err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreateTime.Before(recs[j].CreateTime)
	})
	return recs, nil
}

func (s *Server) doOfferList(ctx context.Context, req *api.OfferListRequest) (*api.OfferListResponse, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	period := &timerange.Range{Begin: req.BeginTime, End: req.EndTime}
	recs, err := OffersInRange(ctx, s.db, period)
	if err != nil {
		return nil, err
	}
	resp := new(api.OfferListResponse)
	for _, rec := range recs {
		if len(req.Status) > 0 && rec.Status != req.Status {
			continue
		}
		resp.Offers = append(resp.Offers, &api.Offer{
			OfferID:    rec.OfferID,
			Partner:    rec.Partner,
			Status:     rec.Status,
			Reason:     rec.Reason,
			OurTotal:   rec.Our.Total,
			TheirTotal: rec.Their.Total,
			CreateTime: rec.CreateTime,
			CloseTime:  rec.CloseTime,
		})
	}
	return resp, nil
}
