// Copyright (c) 2025 BVK Chaitanya

// Package session owns cart lifecycles. Every counterparty conversation gets
// at most one cart; idle carts expire in the background. Checkout drives a
// cart through offer construction, pre-send verification and submission.
package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bvk/barterbot/cart"
	"github.com/bvk/barterbot/ctxutil"
	"github.com/bvk/barterbot/economy"
	"github.com/bvk/barterbot/syncmap"
	"github.com/visvasity/topic"
)

const (
	EventOfferSent   = "offer-sent"
	EventRejected    = "rejected"
	EventCartExpired = "cart-expired"
)

// Event is one cart lifecycle notification.
type Event struct {
	Type    string
	Partner economy.TraderID

	// OfferID is the transport-side offer id on offer-sent events.
	OfferID string

	// Descriptor is set on offer-sent events.
	Descriptor *cart.Descriptor

	// Notes holds the alteration summary on offer-sent events and the
	// rejection reason on rejected events.
	Notes string
}

type Options struct {
	// IdleTimeout expires carts with no activity.
	IdleTimeout time.Duration

	// CheckInterval is the janitor wakeup interval.
	CheckInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.IdleTimeout == 0 {
		v.IdleTimeout = 15 * time.Minute
	}
	if v.CheckInterval == 0 {
		v.CheckInterval = time.Minute
	}
}

func (v *Options) Check() error {
	v.setDefaults()
	return nil
}

type entry struct {
	user *cart.UserCart

	// busyCh serializes checkouts; it holds at most one token.
	busyCh chan struct{}

	mu       sync.Mutex
	lastUsed time.Time
}

func (e *entry) touch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = time.Now()
}

func (e *entry) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUsed
}

type Manager struct {
	cg ctxutil.CloseGroup

	opts Options

	deps *cart.Deps

	entryMap syncmap.Map[economy.TraderID, *entry]

	eventsTopic *topic.Topic[*Event]
}

func New(deps *cart.Deps, opts *Options) (*Manager, error) {
	if opts == nil {
		opts = new(Options)
	}
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if err := deps.Check(); err != nil {
		return nil, err
	}
	m := &Manager{
		opts:        *opts,
		deps:        deps,
		eventsTopic: topic.New[*Event](),
	}
	m.cg.Go(m.goExpireCarts)
	return m, nil
}

func (m *Manager) Close() {
	m.cg.Close()
	m.eventsTopic.Close()
}

// Events subscribes to cart lifecycle events.
func (m *Manager) Events() (*topic.Receiver[*Event], error) {
	return topic.Subscribe(m.eventsTopic, 0, true)
}

func (m *Manager) getEntry(trader economy.TraderID) (*entry, error) {
	if e, ok := m.entryMap.Load(trader); ok {
		e.touch()
		return e, nil
	}
	user, err := cart.NewUser(trader, m.deps)
	if err != nil {
		return nil, err
	}
	e := &entry{
		user:   user,
		busyCh: make(chan struct{}, 1),
	}
	e, _ = m.entryMap.LoadOrStore(trader, e)
	e.touch()
	return e, nil
}

// Cart returns the trader's cart, creating one if necessary.
func (m *Manager) Cart(trader economy.TraderID) (*cart.UserCart, error) {
	e, err := m.getEntry(trader)
	if err != nil {
		return nil, err
	}
	return e.user, nil
}

// NumCarts returns the number of live carts.
func (m *Manager) NumCarts() int {
	n := 0
	for range m.entryMap.Range {
		n++
	}
	return n
}

// Clear drops the trader's cart. A checkout already in flight keeps its
// snapshot; its results are discarded with the cart.
func (m *Manager) Clear(trader economy.TraderID) {
	if e, ok := m.entryMap.LoadAndDelete(trader); ok {
		e.user.Clear()
	}
}

// Checkout constructs, verifies and submits the trader's offer. Only one
// checkout per cart can be in flight.
func (m *Manager) Checkout(ctx context.Context, trader economy.TraderID) (*cart.Descriptor, string, error) {
	e, ok := m.entryMap.Load(trader)
	if !ok {
		return nil, "", fmt.Errorf("trader %s has no cart: %w", trader, os.ErrNotExist)
	}

	select {
	case e.busyCh <- struct{}{}:
	default:
		return nil, "", fmt.Errorf("a checkout for trader %s is already in progress: %w", trader, os.ErrExist)
	}
	defer func() {
		<-e.busyCh
	}()
	e.touch()

	notes, err := e.user.ConstructOffer(ctx)
	if err != nil {
		m.publishRejection(trader, err)
		return nil, "", err
	}
	if err := e.user.PreSendOffer(ctx); err != nil {
		m.publishRejection(trader, err)
		return nil, "", err
	}
	if err := e.user.Offer().Submit(ctx); err != nil {
		m.publishRejection(trader, err)
		return nil, "", fmt.Errorf("could not submit offer: %w", err)
	}

	desc := e.user.Descriptor()
	offerID := desc.ID
	if v, ok := e.user.Offer().(interface{ ID() string }); ok {
		offerID = v.ID()
	}
	m.entryMap.Delete(trader)
	m.eventsTopic.Send(&Event{
		Type:       EventOfferSent,
		Partner:    trader,
		OfferID:    offerID,
		Descriptor: desc,
		Notes:      notes,
	})
	return desc, notes, nil
}

func (m *Manager) publishRejection(trader economy.TraderID, err error) {
	notes := err.Error()
	if r, ok := cart.AsRejection(err); ok {
		notes = r.Reason
	}
	m.eventsTopic.Send(&Event{
		Type:    EventRejected,
		Partner: trader,
		Notes:   notes,
	})
}

func (m *Manager) goExpireCarts(ctx context.Context) {
	for ctxutil.Sleep(ctx, m.opts.CheckInterval); ctx.Err() == nil; ctxutil.Sleep(ctx, m.opts.CheckInterval) {
		m.expireIdleCarts(time.Now())
	}
}

func (m *Manager) expireIdleCarts(now time.Time) {
	for trader, e := range m.entryMap.Range {
		if now.Sub(e.idleSince()) < m.opts.IdleTimeout {
			continue
		}
		if e.user.State() == cart.Constructing {
			continue
		}
		if _, ok := m.entryMap.LoadAndDelete(trader); ok {
			e.user.Clear()
			m.eventsTopic.Send(&Event{
				Type:    EventCartExpired,
				Partner: trader,
			})
		}
	}
}
