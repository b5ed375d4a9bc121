// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/subcmds/cmdutil"
)

type Remove struct {
	cmdutil.ClientFlags

	trader string
	ours   bool
	amount int
}

func (c *Remove) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("remove", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.trader, "trader", "", "counterparty trader id")
	fset.BoolVar(&c.ours, "ours", false, "when true, removes from the bot's side of the cart")
	fset.IntVar(&c.amount, "amount", 1, "number of items to remove")
	return fset, cli.CmdFunc(c.run)
}

func (c *Remove) Synopsis() string {
	return "Removes items from a counterparty's cart"
}

func (c *Remove) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (sku) argument")
	}
	if len(c.trader) == 0 {
		return fmt.Errorf("trader flag is required")
	}

	req := &api.CartRemoveRequest{
		Trader: c.trader,
		Ours:   c.ours,
		SKU:    args[0],
		Amount: c.amount,
	}
	if err := req.Check(); err != nil {
		return err
	}
	resp, err := cmdutil.Post[api.CartRemoveResponse](ctx, &c.ClientFlags, api.CartRemovePath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}
