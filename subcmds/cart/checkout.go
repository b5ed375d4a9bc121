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

type Checkout struct {
	cmdutil.ClientFlags
}

func (c *Checkout) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("checkout", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Checkout) Synopsis() string {
	return "Turns a counterparty's cart into a trade offer"
}

func (c *Checkout) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (trader id) argument")
	}

	req := &api.CartCheckoutRequest{
		Trader: args[0],
	}
	resp, err := cmdutil.Post[api.CartCheckoutResponse](ctx, &c.ClientFlags, api.CartCheckoutPath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}
	if len(resp.Rejection) != 0 {
		fmt.Printf("Rejected: %s\n", resp.Rejection)
		return nil
	}
	if len(resp.Notes) != 0 {
		fmt.Printf("Notes: %s\n", resp.Notes)
	}
	fmt.Printf("Offer %s sent\n", resp.OfferID)
	return nil
}
