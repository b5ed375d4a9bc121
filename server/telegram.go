// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bvk/barterbot/cart"
	"github.com/bvk/barterbot/economy"
	"github.com/bvk/barterbot/gobs"
	"github.com/bvk/barterbot/telegram"
	"github.com/bvk/barterbot/timerange"
	"github.com/visvasity/cli"
)

func (s *Server) AddTelegramCommand(ctx context.Context, name, purpose string, handler telegram.CmdFunc) error {
	if s.telegramClient != nil {
		return s.telegramClient.AddCommand(ctx, name, purpose, handler)
	}
	return nil // Ignored
}

func (s *Server) registerTelegramCommands(ctx context.Context) error {
	cmds := []struct {
		name, purpose string
		handler       telegram.CmdFunc
	}{
		{"status", "Prints bot inventory and cart summary", s.statusTelegramCmd},
		{"stats", "Prints trade offer counts over standard time periods", s.statsTelegramCmd},
		{"usekeys", "Turns keys-as-currency on or off", s.useKeysTelegramCmd},
		{"donate", "Sends a donation offer to the configured recipient", s.donateTelegramCmd},
		{"setdonation", "Sets the donation recipient trader id", s.setDonationTelegramCmd},
	}
	for _, c := range cmds {
		if err := s.AddTelegramCommand(ctx, c.name, c.purpose, c.handler); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) statusTelegramCmd(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	fmt.Fprintf(stdout, "Uptime: %s\n", time.Since(s.startTime).Round(time.Second))
	fmt.Fprintf(stdout, "Items: %d\n", s.invManager.TotalItemCount())
	fmt.Fprintf(stdout, "Carts: %d\n", s.sessions.NumCarts())
	fmt.Fprintf(stdout, "Key value: %s scrap\n", s.priceList.KeyValue().String())
	fmt.Fprintf(stdout, "Use keys: %t\n", s.useKeys())
	return nil
}

func (s *Server) statsTelegramCmd(ctx context.Context, args []string) error {
	periods := []*timerange.Range{
		timerange.Today(time.Local),
		timerange.Yesterday(time.Local),
		timerange.ThisWeek(time.Local),
		timerange.ThisMonth(time.Local),
		timerange.Lifetime(time.Local),
	}
	names := []string{
		"Today",
		"Yesterday",
		"This Week",
		"This Month",
		"Lifetime",
	}

	stdout := cli.Stdout(ctx)
	for i, period := range periods {
		recs, err := OffersInRange(ctx, s.db, period)
		if err != nil {
			return err
		}
		nsent, naccepted := len(recs), 0
		for _, rec := range recs {
			if rec.Status == "accepted" {
				naccepted++
			}
		}
		fmt.Fprintf(stdout, "%s: %d offers, %d accepted\n", names[i], nsent, naccepted)
	}
	return nil
}

func (s *Server) useKeysTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usekeys requires one on/off argument")
	}
	v, err := strconv.ParseBool(args[0])
	if err != nil {
		switch args[0] {
		case "on":
			v = true
		case "off":
			v = false
		default:
			return fmt.Errorf("invalid usekeys argument %q", args[0])
		}
	}
	if err := s.updateState(ctx, func(state *gobs.ServerState) {
		state.UseKeys = v
	}); err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "use keys is now %t\n", v)
	return nil
}

func (s *Server) setDonationTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("setdonation requires one trader id argument")
	}
	if err := s.updateState(ctx, func(state *gobs.ServerState) {
		state.DonationRecipient = args[0]
	}); err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "donation recipient is now %s\n", args[0])
	return nil
}

// donateTelegramCmd builds a one-sided donation cart with the given item
// types and submits it to the configured recipient. Arguments are sku:amount
// pairs.
func (s *Server) donateTelegramCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("donate requires one or more sku:amount arguments")
	}
	recipient := s.donationRecipient()
	if len(recipient) == 0 {
		return fmt.Errorf(`donation recipient is not configured; use the "setdonation" command`)
	}

	c, err := cart.NewDonation(economy.TraderID(recipient), s.cartDeps)
	if err != nil {
		return err
	}
	for _, arg := range args {
		sku, amount, err := parseSKUAmount(arg)
		if err != nil {
			return err
		}
		if err := c.AddItem(true /* ours */, sku, amount); err != nil {
			return err
		}
	}

	if _, err := c.ConstructOffer(ctx); err != nil {
		return err
	}
	if err := c.PreSendOffer(ctx); err != nil {
		return err
	}
	if err := c.Offer().Submit(ctx); err != nil {
		return fmt.Errorf("could not submit donation offer: %w", err)
	}
	fmt.Fprintf(cli.Stdout(ctx), "donation offer sent to %s\n", recipient)
	return nil
}

func parseSKUAmount(arg string) (economy.SKU, int, error) {
	for i := len(arg) - 1; i >= 0; i-- {
		if arg[i] == ':' {
			amount, err := strconv.Atoi(arg[i+1:])
			if err != nil || amount <= 0 {
				return "", 0, fmt.Errorf("invalid item amount in argument %q", arg)
			}
			return economy.SKU(arg[:i]), amount, nil
		}
	}
	return economy.SKU(arg), 1, nil
}
