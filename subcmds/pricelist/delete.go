// Copyright (c) 2025 BVK Chaitanya

package pricelist

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/subcmds/cmdutil"
)

type Delete struct {
	cmdutil.ClientFlags
}

func (c *Delete) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("delete", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Delete) Synopsis() string {
	return "Removes a pricelist entry"
}

func (c *Delete) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (sku) argument")
	}

	req := &api.PricelistDeleteRequest{
		SKU: args[0],
	}
	resp, err := cmdutil.Post[api.PricelistDeleteResponse](ctx, &c.ClientFlags, api.PricelistDeletePath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}
