// Copyright (c) 2025 BVK Chaitanya

// Package cart implements the client subcommands for manipulating shopping
// carts on the barterbot daemon.
package cart

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/subcmds/cmdutil"
)

type Add struct {
	cmdutil.ClientFlags

	trader string
	ours   bool
	amount int

	instances string
}

func (c *Add) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("add", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.trader, "trader", "", "counterparty trader id")
	fset.BoolVar(&c.ours, "ours", false, "when true, adds to the bot's side of the cart")
	fset.IntVar(&c.amount, "amount", 1, "number of items to add")
	fset.StringVar(&c.instances, "instances", "", "comma separated instance ids to pin")
	return fset, cli.CmdFunc(c.run)
}

func (c *Add) Synopsis() string {
	return "Adds items to a counterparty's cart"
}

func (c *Add) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (sku) argument")
	}
	if len(c.trader) == 0 {
		return fmt.Errorf("trader flag is required")
	}

	req := &api.CartAddRequest{
		Trader: c.trader,
		Ours:   c.ours,
		SKU:    args[0],
		Amount: c.amount,
	}
	if len(c.instances) != 0 {
		req.Instances = strings.Split(c.instances, ",")
	}
	if err := req.Check(); err != nil {
		return err
	}
	resp, err := cmdutil.Post[api.CartAddResponse](ctx, &c.ClientFlags, api.CartAddPath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}
