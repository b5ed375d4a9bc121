// Copyright (c) 2025 BVK Chaitanya

// Package pricelist implements the client subcommands for managing the
// barterbot daemon's pricelist.
package pricelist

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/subcmds/cmdutil"
)

type Get struct {
	cmdutil.ClientFlags
}

func (c *Get) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Get) Synopsis() string {
	return "Prints the pricelist entry for an item kind"
}

func (c *Get) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (sku) argument")
	}

	req := &api.PricelistGetRequest{
		SKU: args[0],
	}
	resp, err := cmdutil.Post[api.PricelistGetResponse](ctx, &c.ClientFlags, api.PricelistGetPath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}
	data, _ := json.MarshalIndent(resp.Entry, "", "  ")
	fmt.Printf("%s\n", data)
	return nil
}
