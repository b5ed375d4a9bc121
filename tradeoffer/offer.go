// Copyright (c) 2025 BVK Chaitanya

package tradeoffer

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/bvk/barterbot/economy"
)

// Offer is a trade offer under local assembly. Items and metadata accumulate
// in memory; Submit posts the whole offer in one request.
type Offer struct {
	client *Client

	id      string
	partner economy.TraderID

	mu        sync.Mutex
	our       []economy.ItemRef
	their     []economy.ItemRef
	meta      map[string]any
	submitted bool
}

// ID returns the client-side offer id.
func (o *Offer) ID() string {
	return o.id
}

// Partner returns the receiving trader.
func (o *Offer) Partner() economy.TraderID {
	return o.partner
}

// AddItem implements economy.Offer. Malformed references and duplicate
// instances are rejected with a false return; AddItem never fails with an
// error.
func (o *Offer) AddItem(ours bool, ref economy.ItemRef) bool {
	if len(ref.CollectionID) == 0 || len(ref.SubCollectionID) == 0 || len(ref.InstanceID) == 0 {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.submitted {
		return false
	}
	for _, r := range o.our {
		if r.InstanceID == ref.InstanceID {
			return false
		}
	}
	for _, r := range o.their {
		if r.InstanceID == ref.InstanceID {
			return false
		}
	}
	if ours {
		o.our = append(o.our, ref)
	} else {
		o.their = append(o.their, ref)
	}
	return true
}

// AttachMetadata implements economy.Offer.
func (o *Offer) AttachMetadata(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.submitted {
		return
	}
	o.meta[key] = value
}

// Items returns the item references on one side of the offer.
func (o *Offer) Items(ours bool) []economy.ItemRef {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ours {
		return append([]economy.ItemRef{}, o.our...)
	}
	return append([]economy.ItemRef{}, o.their...)
}

type itemRefData struct {
	CollectionID    string `json:"collection_id"`
	SubCollectionID string `json:"sub_collection_id"`
	InstanceID      string `json:"instance_id"`
}

func refData(refs []economy.ItemRef) []*itemRefData {
	ds := make([]*itemRefData, 0, len(refs))
	for _, r := range refs {
		ds = append(ds, &itemRefData{
			CollectionID:    r.CollectionID,
			SubCollectionID: r.SubCollectionID,
			InstanceID:      string(r.InstanceID),
		})
	}
	return ds
}

// Submit implements economy.Offer. A successful submit marks the offered
// items as in-trade until a terminal update arrives for the offer.
func (o *Offer) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.submitted {
		o.mu.Unlock()
		return fmt.Errorf("offer %s is already submitted", o.id)
	}
	our, their := o.our, o.their
	meta := o.meta
	o.mu.Unlock()

	type Request struct {
		OfferID  string         `json:"offer_id"`
		Partner  string         `json:"partner"`
		Our      []*itemRefData `json:"our_items"`
		Their    []*itemRefData `json:"their_items"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}
	type Response struct {
		Success bool   `json:"success"`
		OfferID string `json:"offer_id"`
		Error   string `json:"error,omitempty"`
	}

	url := &url.URL{
		Scheme: "https",
		Host:   o.client.opts.RestHostname,
		Path:   "/v1/offers",
	}
	req := &Request{
		OfferID:  o.id,
		Partner:  string(o.partner),
		Our:      refData(our),
		Their:    refData(their),
		Metadata: meta,
	}
	resp := new(Response)
	if err := o.client.postJSON(ctx, url, req, resp); err != nil {
		return fmt.Errorf("could not submit offer %s: %w", o.id, err)
	}
	if !resp.Success {
		return fmt.Errorf("offer %s was not accepted by the service: %s", o.id, resp.Error)
	}

	o.mu.Lock()
	o.submitted = true
	o.mu.Unlock()

	var items []economy.InstanceID
	for _, r := range our {
		items = append(items, r.InstanceID)
	}
	o.client.markActive(o.id, items)
	return nil
}
