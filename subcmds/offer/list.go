// Copyright (c) 2025 BVK Chaitanya

// Package offer implements the client subcommands for inspecting the
// barterbot daemon's trade offer records.
package offer

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/subcmds/cmdutil"
)

type List struct {
	cmdutil.ClientFlags

	beginTime string
	endTime   string

	status string
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.beginTime, "begin-time", "", "list offers created at or after this RFC3339 timestamp")
	fset.StringVar(&c.endTime, "end-time", "", "list offers created before this RFC3339 timestamp")
	fset.StringVar(&c.status, "status", "", "list only offers with this status")
	return fset, cli.CmdFunc(c.run)
}

func (c *List) Synopsis() string {
	return "Prints trade offer records"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	req := &api.OfferListRequest{
		Status: c.status,
	}
	if len(c.beginTime) != 0 {
		v, err := time.Parse(time.RFC3339, c.beginTime)
		if err != nil {
			return fmt.Errorf("invalid begin-time value %q: %w", c.beginTime, err)
		}
		req.BeginTime = v
	}
	if len(c.endTime) != 0 {
		v, err := time.Parse(time.RFC3339, c.endTime)
		if err != nil {
			return fmt.Errorf("invalid end-time value %q: %w", c.endTime, err)
		}
		req.EndTime = v
	}
	if err := req.Check(); err != nil {
		return err
	}
	resp, err := cmdutil.Post[api.OfferListResponse](ctx, &c.ClientFlags, api.OfferListPath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "OFFER\tPARTNER\tSTATUS\tOURS\tTHEIRS\tCREATED\n")
	for _, o := range resp.Offers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", o.OfferID, o.Partner, o.Status, o.OurTotal.StringFixed(2), o.TheirTotal.StringFixed(2), o.CreateTime.Format(time.RFC3339))
	}
	return tw.Flush()
}
