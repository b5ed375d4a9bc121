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

type Show struct {
	cmdutil.ClientFlags
}

func (c *Show) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("show", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Show) Synopsis() string {
	return "Prints the contents of a counterparty's cart"
}

func (c *Show) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (trader id) argument")
	}

	req := &api.CartShowRequest{
		Trader: args[0],
	}
	resp, err := cmdutil.Post[api.CartShowResponse](ctx, &c.ClientFlags, api.CartShowPath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}
	fmt.Printf("State: %s\n", resp.State)
	fmt.Printf("Our side:\n")
	for _, item := range resp.Our {
		fmt.Printf("  %s x%d\n", item.SKU, item.Amount)
	}
	fmt.Printf("Their side:\n")
	for _, item := range resp.Their {
		fmt.Printf("  %s x%d\n", item.SKU, item.Amount)
	}
	return nil
}
