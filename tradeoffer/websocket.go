// Copyright (c) 2025 BVK Chaitanya

package tradeoffer

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bvk/barterbot/ctxutil"
	"github.com/gorilla/websocket"
)

// Update is one offer state change from the stream. Status is one of
// "active", "accepted", "declined", "canceled" or "invalid-items".
type Update struct {
	OfferID string `json:"offer_id"`
	Partner string `json:"partner"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (u *Update) IsTerminal() bool {
	switch u.Status {
	case "accepted", "declined", "canceled", "invalid-items":
		return true
	}
	return false
}

func (c *Client) goGetUpdates(ctx context.Context) {
	for i := 0; ctx.Err() == nil; i = min(i+1, 5) {
		if err := c.getUpdates(ctx); err != nil {
			slog.Warn("could not get offer updates over websocket (may retry)", "err", err)
			ctxutil.Sleep(ctx, time.Second<<i)
		}
	}
}

func (c *Client) getUpdates(ctx context.Context) (status error) {
	u := &url.URL{
		Scheme: "wss",
		Host:   c.opts.WebsocketHostname,
		Path:   "/v1/offers/stream",
	}
	token, err := c.signJWT("GET " + u.Host + u.Path)
	if err != nil {
		slog.Error("could not create signed jwt token for websocket", "err", err)
		return err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{
		EnableCompression: true,
	}
	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		slog.Error("could not dial to websocket feed", "err", err)
		return err
	}
	defer conn.Close()

	for ctx.Err() == nil {
		msg, err := c.readMessage(ctx, conn)
		if err != nil {
			return err
		}
		update := new(Update)
		if err := json.Unmarshal(msg, update); err != nil {
			log.Printf("message=%s", msg)
			slog.Error("could not unmarshal offer update (ignored)", "err", err)
			continue
		}
		c.handleUpdate(update)
	}
	return context.Cause(ctx)
}

func (c *Client) readMessage(ctx context.Context, conn *websocket.Conn) (json.RawMessage, error) {
	stopc := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
		close(stopc)
	})

	_, msg, err := conn.ReadMessage()
	if !stop() {
		// The AfterFunc was started. Wait for it to complete, and reset the
		// Conn's deadline.
		<-stopc
		conn.SetReadDeadline(time.Time{})
		return nil, context.Cause(ctx)
	}
	if err != nil {
		slog.Error("could not read websocket message", "err", err)
		return nil, err
	}
	return json.RawMessage(msg), nil
}

func (c *Client) handleUpdate(update *Update) {
	if update.IsTerminal() {
		c.clearActive(update.OfferID)
	}
	c.updatesTopic.Send(update)
}
