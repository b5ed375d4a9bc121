// Copyright (c) 2025 BVK Chaitanya

package pricelist

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/subcmds/cmdutil"
)

type List struct {
	cmdutil.ClientFlags
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *List) Synopsis() string {
	return "Prints all pricelist entries"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	req := &api.PricelistListRequest{}
	resp, err := cmdutil.Post[api.PricelistListResponse](ctx, &c.ClientFlags, api.PricelistListPath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "SKU\tNAME\tBUY\tSELL\tMIN\tMAX\tENABLED\n")
	for _, e := range resp.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%t\n", e.SKU, e.Name, e.Buy.StringFixed(2), e.Sell.StringFixed(2), e.Min, e.Max, e.Enabled)
	}
	return tw.Flush()
}
