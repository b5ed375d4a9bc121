// Copyright (c) 2025 BVK Chaitanya

// Package trust is the client for the reputation service. It answers
// counterparty risk questions (community bans, escrow holds) and verifies
// item instances against the duplicate registry.
package trust

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path"

	"github.com/bvk/barterbot/economy"
	"golang.org/x/time/rate"
)

type Client struct {
	opts Options

	client *http.Client

	// limiter paces duplicate checks only; ban and escrow lookups are
	// cheap.
	limiter *rate.Limiter
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
		limiter: rate.NewLimiter(rate.Limit(opts.DupeChecksPerSecond), 1),
	}
	return c, nil
}

func (c *Client) Close() error {
	return nil
}

// IsBanned implements economy.TrustChecker. A trader banned on any tracked
// community counts as banned.
func (c *Client) IsBanned(ctx context.Context, trader economy.TraderID) (bool, error) {
	url := &url.URL{
		Scheme: "https",
		Host:   c.opts.RestHostname,
		Path:   path.Join("/v1/bans", string(trader)),
	}
	type Response struct {
		Banned bool     `json:"banned"`
		Sites  []string `json:"sites,omitempty"`
	}
	resp := new(Response)
	if err := getJSON(ctx, c, url, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not check ban status", "trader", trader, "err", err)
		}
		return false, err
	}
	if resp.Banned {
		log.Printf("trader %s is banned on %v", trader, resp.Sites)
	}
	return resp.Banned, nil
}

// WouldEscrow implements economy.TrustChecker.
func (c *Client) WouldEscrow(ctx context.Context, trader economy.TraderID, offer economy.Offer) (bool, error) {
	url := &url.URL{
		Scheme: "https",
		Host:   c.opts.RestHostname,
		Path:   path.Join("/v1/escrow", string(trader)),
	}
	type Response struct {
		Escrow bool `json:"escrow"`
		Days   int  `json:"days,omitempty"`
	}
	resp := new(Response)
	if err := getJSON(ctx, c, url, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not check escrow status", "trader", trader, "err", err)
		}
		return false, err
	}
	return resp.Escrow, nil
}

// BlockTrader implements economy.TrustChecker.
func (c *Client) BlockTrader(ctx context.Context, trader economy.TraderID) error {
	url := &url.URL{
		Scheme: "https",
		Host:   c.opts.RestHostname,
		Path:   path.Join("/v1/blocks", string(trader)),
	}
	type Response struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
	resp := new(Response)
	if err := postJSON(ctx, c, url, nil, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not block trader", "trader", trader, "err", err)
		}
		return err
	}
	if !resp.Success {
		return fmt.Errorf("block failed: %s", resp.Error)
	}
	return nil
}

// CheckDuplicate implements economy.DupeChecker. Calls are paced by the
// client's rate limiter, so sequential bulk verification respects the
// service's limits without caller-side throttling.
func (c *Client) CheckDuplicate(ctx context.Context, id economy.InstanceID, contextID string) (economy.DupeVerdict, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return economy.DupeIndeterminate, err
	}
	url := &url.URL{
		Scheme: "https",
		Host:   c.opts.RestHostname,
		Path:   path.Join("/v1/dupes", contextID, string(id)),
	}
	type Response struct {
		Verdict string `json:"verdict"`
	}
	resp := new(Response)
	if err := getJSON(ctx, c, url, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not check for duplicate", "instance", id, "err", err)
		}
		return economy.DupeIndeterminate, err
	}
	return parseVerdict(resp.Verdict)
}

func parseVerdict(s string) (economy.DupeVerdict, error) {
	switch s {
	case "clean":
		return economy.DupeClean, nil
	case "duplicate":
		return economy.DupeConfirmed, nil
	case "unknown", "":
		return economy.DupeIndeterminate, nil
	}
	return economy.DupeIndeterminate, fmt.Errorf("unexpected dupe verdict %q", s)
}

func getJSON[PT *T, T any](ctx context.Context, c *Client, url *url.URL, result PT) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
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

func postJSON[PT *T, T any](ctx context.Context, c *Client, url *url.URL, request any, result PT) error {
	body := new(bytes.Buffer)
	if request != nil {
		if err := json.NewEncoder(body).Encode(request); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http POST returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		slog.Error("could not decode response to json", "err", err)
		return err
	}
	return nil
}
