// Copyright (c) 2025 BVK Chaitanya

// Package notify delivers offer lifecycle notifications to the operator.
// Messages fan out to all configured senders; delivery failures are logged
// and dropped.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bvk/barterbot/cart"
	"github.com/bvk/barterbot/ctxutil"
	"github.com/bvk/barterbot/session"
	"github.com/bvk/barterbot/tradeoffer"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
)

// Sender delivers one notification message.
type Sender interface {
	SendMessage(ctx context.Context, at time.Time, msg string) error
}

type Notifier struct {
	cg ctxutil.CloseGroup

	senders []Sender
}

func New(senders ...Sender) *Notifier {
	return &Notifier{senders: senders}
}

func (n *Notifier) Close() {
	n.cg.Close()
}

// WatchSession forwards cart lifecycle events. Takes ownership of the
// receiver.
func (n *Notifier) WatchSession(events *topic.Receiver[*session.Event]) {
	n.cg.Go(func(ctx context.Context) {
		defer events.Close()

		stopf := context.AfterFunc(ctx, events.Close)
		defer stopf()

		for ctx.Err() == nil {
			ev, err := events.Receive()
			if err != nil {
				return
			}
			if msg := sessionMessage(ev); msg != "" {
				n.send(ctx, msg)
			}
		}
	})
}

// WatchOffers forwards offer state updates. Takes ownership of the receiver.
func (n *Notifier) WatchOffers(updates *topic.Receiver[*tradeoffer.Update]) {
	n.cg.Go(func(ctx context.Context) {
		defer updates.Close()

		stopf := context.AfterFunc(ctx, updates.Close)
		defer stopf()

		for ctx.Err() == nil {
			u, err := updates.Receive()
			if err != nil {
				return
			}
			if msg := updateMessage(u); msg != "" {
				n.send(ctx, msg)
			}
		}
	})
}

func (n *Notifier) send(ctx context.Context, msg string) {
	now := time.Now()
	for _, s := range n.senders {
		if err := s.SendMessage(ctx, now, msg); err != nil {
			slog.Error("could not deliver notification (ignored)", "err", err)
		}
	}
}

func sessionMessage(ev *session.Event) string {
	switch ev.Type {
	case session.EventOfferSent:
		msg := fmt.Sprintf("offer %s sent to %s: give %s, receive %s",
			ev.Descriptor.ID, ev.Partner,
			sideSummary(ev.Descriptor, ev.Descriptor.OurValue),
			sideSummary(ev.Descriptor, ev.Descriptor.TheirValue))
		if len(ev.Notes) != 0 {
			msg += " (altered: " + ev.Notes + ")"
		}
		if hv := ev.Descriptor.HighValue; hv != nil && hv.Mention {
			msg += " [contains high-value attachments]"
		}
		return msg

	case session.EventRejected:
		return fmt.Sprintf("offer for %s was rejected: %s", ev.Partner, ev.Notes)

	case session.EventCartExpired:
		// Expiry is routine; keep it out of the operator's channel.
		return ""
	}
	return ""
}

func updateMessage(u *tradeoffer.Update) string {
	switch u.Status {
	case "accepted":
		return fmt.Sprintf("offer %s with %s was accepted", u.OfferID, u.Partner)
	case "declined":
		return fmt.Sprintf("offer %s with %s was declined", u.OfferID, u.Partner)
	case "canceled":
		return fmt.Sprintf("offer %s with %s was canceled", u.OfferID, u.Partner)
	case "invalid-items":
		return fmt.Sprintf("offer %s with %s became invalid; some items are gone", u.OfferID, u.Partner)
	}
	return ""
}

func sideSummary(d *cart.Descriptor, v *cart.SideValue) string {
	var parts []string
	if v.Keys == 1 {
		parts = append(parts, "1 key")
	} else if v.Keys > 1 {
		parts = append(parts, fmt.Sprintf("%d keys", v.Keys))
	}
	if v.Metal.IsPositive() {
		parts = append(parts, refString(v.Metal))
	}
	keysValue := decimal.NewFromInt(int64(v.Keys)).Mul(d.KeyRate)
	if items := v.Total.Sub(v.Metal).Sub(keysValue); items.IsPositive() {
		parts = append(parts, "items worth "+refString(items))
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, " + ")
}

func refString(scrap decimal.Decimal) string {
	return scrap.Div(decimal.NewFromInt(9)).Round(2).String() + " ref"
}
