// Copyright (c) 2025 BVK Chaitanya

package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"

	"github.com/bvk/barterbot/ctxutil"
	"github.com/bvk/barterbot/economy"
)

type Client struct {
	opts Options

	client *http.Client
}

func New(opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	if err := opts.Check(); err != nil {
		return nil, err
	}
	c := &Client{
		opts: *opts,
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
	}
	return c, nil
}

func (c *Client) Close() error {
	return nil
}

type itemData struct {
	ID          string   `json:"id"`
	SKU         string   `json:"sku"`
	Tradable    bool     `json:"tradable"`
	FullUses    bool     `json:"full_uses"`
	Attachments []string `json:"attachments,omitempty"`
}

type fetchResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Items   []*itemData `json:"items"`
}

// Fetch implements economy.InventorySource. Transient service failures are
// retried until the fetch deadline.
func (c *Client) Fetch(ctx context.Context, trader economy.TraderID) (economy.Inventory, error) {
	url := &url.URL{
		Scheme: "https",
		Host:   c.opts.RestHostname,
		Path:   path.Join("/v1/inventory", string(trader)),
	}

	resp := new(fetchResponse)
	fetch := func() error {
		return getJSON(ctx, c, url, resp)
	}
	if err := ctxutil.RetryTimeout(ctx, c.opts.RetryInterval, c.opts.FetchTimeout, fetch); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not fetch inventory", "trader", trader, "err", err)
		}
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("inventory service failed: %s", resp.Error)
	}

	items := make([]*Item, 0, len(resp.Items))
	for _, d := range resp.Items {
		items = append(items, &Item{
			InstanceRecord: economy.InstanceRecord{
				ID:          economy.InstanceID(d.ID),
				SKU:         economy.SKU(d.SKU),
				FullUses:    d.FullUses,
				Attachments: d.Attachments,
			},
			Tradable: d.Tradable,
		})
	}
	return NewStatic(items), nil
}

func getJSON[PT *T, T any](ctx context.Context, c *Client, url *url.URL, result PT) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url.String(), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not do http client request", "err", err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http GET returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		slog.Error("could not decode response to json", "err", err)
		return err
	}
	return nil
}
