// Copyright (c) 2025 BVK Chaitanya

// Package server assembles the barterbot daemon: the pricelist, the bot
// inventory, the trust and trade-offer clients, per-counterparty cart
// sessions and the notification fan-out, with JSON POST handlers over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cart"
	"github.com/bvk/barterbot/ctxutil"
	"github.com/bvk/barterbot/economy"
	"github.com/bvk/barterbot/gobs"
	"github.com/bvk/barterbot/inventory"
	"github.com/bvk/barterbot/kvutil"
	"github.com/bvk/barterbot/notify"
	"github.com/bvk/barterbot/pricelist"
	"github.com/bvk/barterbot/pushover"
	"github.com/bvk/barterbot/session"
	"github.com/bvk/barterbot/telegram"
	"github.com/bvk/barterbot/tradeoffer"
	"github.com/bvk/barterbot/trust"
	"github.com/bvkgo/kv"
)

const (
	// StateKey holds the persistent server state.
	StateKey = "/server/state"

	// OffersKeyspace holds one record per constructed offer.
	OffersKeyspace = "/offers/"
)

type Server struct {
	cg ctxutil.CloseGroup

	opts Options

	db kv.Database

	startTime time.Time

	offerClient *tradeoffer.Client
	invClient   *inventory.Client
	invManager  *inventory.Manager
	trustClient *trust.Client
	priceList   *pricelist.Pricelist
	cartDeps    *cart.Deps
	sessions    *session.Manager
	notifier    *notify.Notifier

	telegramClient *telegram.Client
	pushoverClient *pushover.Client

	mu    sync.Mutex
	state *gobs.ServerState
}

func New(ctx context.Context, secrets *Secrets, db kv.Database, opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if err := secrets.Check(); err != nil {
		return nil, err
	}

	s := &Server{
		opts:      *opts,
		db:        db,
		startTime: time.Now(),
	}
	defer func() {
		if status != nil {
			s.Close()
		}
	}()

	state, err := kvutil.GetDB[gobs.ServerState](ctx, db, StateKey)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not load server state: %w", err)
		}
		state = &gobs.ServerState{UseKeys: true}
	}
	s.state = state

	offerClient, err := tradeoffer.New(ctx, secrets.Economy.KID, secrets.Economy.PEM, nil /* opts */)
	if err != nil {
		return nil, fmt.Errorf("could not create trade offer client: %w", err)
	}
	s.offerClient = offerClient

	invClient, err := inventory.New(nil /* opts */)
	if err != nil {
		return nil, fmt.Errorf("could not create inventory client: %w", err)
	}
	s.invClient = invClient

	s.invManager = inventory.NewManager(invClient, economy.TraderID(opts.BotID))
	if err := s.invManager.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "could not fetch bot inventory; will retry in the background", "error", err)
	}

	trustClient, err := trust.New(nil /* opts */)
	if err != nil {
		return nil, fmt.Errorf("could not create trust client: %w", err)
	}
	s.trustClient = trustClient

	priceList, err := pricelist.Load(ctx, db, s.invManager, nil /* refresher */)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf(`pricelist has no key-currency entry; add one with the "pricelist set" command: %w`, err)
		}
		return nil, fmt.Errorf("could not load pricelist: %w", err)
	}
	s.priceList = priceList

	deps := &cart.Deps{
		Pricer:    priceList,
		Policy:    priceList,
		Ours:      s.invManager,
		Theirs:    invClient,
		Trust:     trustClient,
		Dupes:     trustClient,
		Active:    offerClient,
		Transport: offerClient,

		Weapons:          toSKUs(opts.Weapons),
		LimitedUse:       toSKUs(opts.LimitedUse),
		SkipItemsInTrade: opts.SkipItemsInTrade,
		DupeCheckEnabled: opts.DupeCheckEnabled,
		MinKeysDupeCheck: opts.MinKeysDupeCheck,
		DupeContextID:    opts.DupeContextID,
	}
	s.cartDeps = deps

	sessions, err := session.New(deps, &session.Options{IdleTimeout: opts.CartIdleTimeout})
	if err != nil {
		return nil, fmt.Errorf("could not create session manager: %w", err)
	}
	s.sessions = sessions

	if secrets.Telegram != nil {
		v, err := telegram.New(ctx, db, secrets.Telegram)
		if err != nil {
			return nil, fmt.Errorf("could not create telegram client: %w", err)
		}
		s.telegramClient = v
	}
	if secrets.Pushover != nil {
		v, err := pushover.New(secrets.Pushover)
		if err != nil {
			return nil, fmt.Errorf("could not create pushover client: %w", err)
		}
		s.pushoverClient = v
	}

	var senders []notify.Sender
	if s.telegramClient != nil {
		senders = append(senders, s.telegramClient)
	}
	if s.pushoverClient != nil {
		senders = append(senders, s.pushoverClient)
	}
	s.notifier = notify.New(senders...)

	sessionEvents, err := sessions.Events()
	if err != nil {
		return nil, err
	}
	s.notifier.WatchSession(sessionEvents)

	offerUpdates, err := offerClient.Updates()
	if err != nil {
		return nil, err
	}
	s.notifier.WatchOffers(offerUpdates)

	recordEvents, err := sessions.Events()
	if err != nil {
		return nil, err
	}
	s.cg.Go(func(ctx context.Context) {
		s.goRecordSessionEvents(ctx, recordEvents)
	})

	recordUpdates, err := offerClient.Updates()
	if err != nil {
		return nil, err
	}
	s.cg.Go(func(ctx context.Context) {
		s.goRecordOfferUpdates(ctx, recordUpdates)
	})

	s.cg.Go(s.goRefreshInventory)

	if err := s.registerTelegramCommands(ctx); err != nil {
		return nil, fmt.Errorf("could not register telegram commands: %w", err)
	}
	return s, nil
}

func (s *Server) Close() error {
	s.cg.Close()
	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.sessions != nil {
		s.sessions.Close()
	}
	if s.telegramClient != nil {
		s.telegramClient.Close()
	}
	if s.offerClient != nil {
		s.offerClient.Close()
	}
	if s.invClient != nil {
		s.invClient.Close()
	}
	if s.trustClient != nil {
		s.trustClient.Close()
	}
	return nil
}

func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.CartAddPath:      httpPostJSONHandler(s.doCartAdd),
		api.CartRemovePath:   httpPostJSONHandler(s.doCartRemove),
		api.CartShowPath:     httpPostJSONHandler(s.doCartShow),
		api.CartCheckoutPath: httpPostJSONHandler(s.doCartCheckout),
		api.CartClearPath:    httpPostJSONHandler(s.doCartClear),

		api.PricelistGetPath:    httpPostJSONHandler(s.doPricelistGet),
		api.PricelistSetPath:    httpPostJSONHandler(s.doPricelistSet),
		api.PricelistListPath:   httpPostJSONHandler(s.doPricelistList),
		api.PricelistDeletePath: httpPostJSONHandler(s.doPricelistDelete),

		api.OfferListPath: httpPostJSONHandler(s.doOfferList),

		api.StatusPath: httpPostJSONHandler(s.doStatus),
	}
}

func (s *Server) useKeys() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UseKeys
}

func (s *Server) donationRecipient() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DonationRecipient
}

func (s *Server) updateState(ctx context.Context, fn func(*gobs.ServerState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := *s.state
	fn(&state)
	if err := kvutil.SetDB(ctx, s.db, StateKey, &state); err != nil {
		return fmt.Errorf("could not save server state: %w", err)
	}
	s.state = &state
	return nil
}

func (s *Server) goRefreshInventory(ctx context.Context) {
	for ctxutil.Sleep(ctx, s.opts.InventoryRefreshInterval); ctx.Err() == nil; ctxutil.Sleep(ctx, s.opts.InventoryRefreshInterval) {
		if err := s.invManager.Refresh(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.WarnContext(ctx, "could not refresh bot inventory (will retry)", "error", err)
			}
		}
	}
}

func toSKUs(vs []string) []economy.SKU {
	var skus []economy.SKU
	for _, v := range vs {
		skus = append(skus, economy.SKU(v))
	}
	return skus
}

func httpPostJSONHandler[T1, T2 any](fun func(context.Context, *T1) (*T2, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "invalid http method", http.StatusMethodNotAllowed)
			return
		}
		if v := r.Header.Get("content-type"); !strings.EqualFold(v, "application/json") {
			http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
			return
		}
		req := new(T1)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := fun(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data, err := json.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("content-type", "application/json")
		w.Write(data)
	})
}
