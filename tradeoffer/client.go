// Copyright (c) 2025 BVK Chaitanya

// Package tradeoffer is the client for the trade-offer service. It creates
// and submits offers, streams offer state updates over a websocket, and
// tracks which item instances are tied up in active offers.
package tradeoffer

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/bvk/barterbot/ctxutil"
	"github.com/bvk/barterbot/economy"
	"github.com/bvk/barterbot/syncmap"
	"github.com/google/uuid"
	"github.com/visvasity/topic"
	"golang.org/x/time/rate"

	jose "gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

type Client struct {
	cg ctxutil.CloseGroup

	opts Options

	kid    string
	signer jose.Signer

	client *http.Client

	limiter *rate.Limiter

	updatesTopic *topic.Topic[*Update]

	// activeItemMap maps instance ids to the active offer holding them.
	activeItemMap syncmap.Map[economy.InstanceID, string]

	// offerItemMap remembers each active offer's items for cleanup.
	offerItemMap syncmap.Map[string, []economy.InstanceID]
}

// New creates a client for the trade-offer service. The private key signs
// short-lived JWT tokens for every request.
func New(ctx context.Context, kid, pemtext string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	if err := opts.Check(); err != nil {
		return nil, err
	}

	block, _ := pem.Decode([]byte(pemtext))
	if block == nil {
		slog.Error("could not parse the PEM private key")
		return nil, os.ErrInvalid
	}
	priKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		slog.Error("could not parse the EC private key", "err", err)
		return nil, err
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: priKey},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", kid),
	)
	if err != nil {
		slog.Error("could not create go-jose.v2 pkg signer", "err", err)
		return nil, err
	}

	c := &Client{
		opts:   *opts,
		kid:    kid,
		signer: signer,
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter:      rate.NewLimiter(10, 1),
		updatesTopic: topic.New[*Update](),
	}
	c.cg.Go(c.goGetUpdates)
	return c, nil
}

// Close shuts down the client and its websocket stream.
func (c *Client) Close() error {
	c.cg.Close()
	c.updatesTopic.Close()
	return nil
}

type apiKeyClaims struct {
	*jwt.Claims
	URI string `json:"uri"`
}

func (c *Client) signJWT(uri string) (string, error) {
	cl := &apiKeyClaims{
		Claims: &jwt.Claims{
			Subject:   c.kid,
			Issuer:    "barterbot",
			NotBefore: jwt.NewNumericDate(time.Now()),
			Expiry:    jwt.NewNumericDate(time.Now().Add(2 * time.Minute)),
		},
		URI: uri,
	}
	return jwt.Signed(c.signer).Claims(cl).CompactSerialize()
}

// CreateOffer implements economy.Transport. The offer is assembled locally;
// nothing reaches the service until Submit.
func (c *Client) CreateOffer(trader economy.TraderID) economy.Offer {
	return &Offer{
		client:  c,
		id:      uuid.New().String(),
		partner: trader,
		meta:    make(map[string]any),
	}
}

// Updates subscribes to offer state updates.
func (c *Client) Updates() (*topic.Receiver[*Update], error) {
	return topic.Subscribe(c.updatesTopic, 0, true)
}

// IsInTrade implements economy.ActiveTrades.
func (c *Client) IsInTrade(id economy.InstanceID) bool {
	_, ok := c.activeItemMap.Load(id)
	return ok
}

func (c *Client) markActive(offerID string, items []economy.InstanceID) {
	c.offerItemMap.Store(offerID, items)
	for _, id := range items {
		c.activeItemMap.Store(id, offerID)
	}
}

func (c *Client) clearActive(offerID string) {
	items, ok := c.offerItemMap.LoadAndDelete(offerID)
	if !ok {
		return
	}
	for _, id := range items {
		c.activeItemMap.Delete(id)
	}
}

func (c *Client) postJSON(ctx context.Context, url *url.URL, request, result any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		slog.Error("could not marshal post request body to json", "err", err)
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	token, err := c.signJWT(fmt.Sprintf("%s %s%s", req.Method, req.URL.Host, req.URL.Path))
	if err != nil {
		slog.Error("could not create signed jwt token for POST", "url", url, "err", err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not perform http post request", "url", url, "err", err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("http POST is unsuccessful", "status", resp.StatusCode, "url", url.String())
		return fmt.Errorf("http POST returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		slog.Error("could not decode response to json", "err", err)
		return err
	}
	return nil
}
