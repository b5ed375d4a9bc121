// Copyright (c) 2025 BVK Chaitanya

package pricelist

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/subcmds/cmdutil"
	"github.com/shopspring/decimal"
)

type Set struct {
	cmdutil.ClientFlags

	name string

	buy  string
	sell string

	min int
	max int

	disabled   bool
	duplicable bool
}

func (c *Set) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("set", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.name, "name", "", "human readable item name")
	fset.StringVar(&c.buy, "buy", "", "price the bot pays, in scrap")
	fset.StringVar(&c.sell, "sell", "", "price the bot asks, in scrap")
	fset.IntVar(&c.min, "min", 0, "stock amount below which the bot only buys")
	fset.IntVar(&c.max, "max", 0, "stock amount at which the bot stops buying (zero is unlimited)")
	fset.BoolVar(&c.disabled, "disabled", false, "when true, the entry is kept but not traded")
	fset.BoolVar(&c.duplicable, "duplicable", false, "when true, duplicate-check failures do not block the item")
	return fset, cli.CmdFunc(c.run)
}

func (c *Set) Synopsis() string {
	return "Creates or updates a pricelist entry"
}

func (c *Set) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (sku) argument")
	}

	buy, err := decimal.NewFromString(c.buy)
	if err != nil {
		return fmt.Errorf("invalid buy price %q: %w", c.buy, err)
	}
	sell, err := decimal.NewFromString(c.sell)
	if err != nil {
		return fmt.Errorf("invalid sell price %q: %w", c.sell, err)
	}

	req := &api.PricelistSetRequest{
		Entry: &api.PricelistEntry{
			SKU:        args[0],
			Name:       c.name,
			Buy:        buy,
			Sell:       sell,
			Min:        c.min,
			Max:        c.max,
			Enabled:    !c.disabled,
			Duplicable: c.duplicable,
		},
	}
	if err := req.Check(); err != nil {
		return err
	}
	resp, err := cmdutil.Post[api.PricelistSetResponse](ctx, &c.ClientFlags, api.PricelistSetPath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}
