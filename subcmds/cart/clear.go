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

type Clear struct {
	cmdutil.ClientFlags
}

func (c *Clear) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("clear", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Clear) Synopsis() string {
	return "Drops a counterparty's cart"
}

func (c *Clear) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (trader id) argument")
	}

	req := &api.CartClearRequest{
		Trader: args[0],
	}
	resp, err := cmdutil.Post[api.CartClearResponse](ctx, &c.ClientFlags, api.CartClearPath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}
