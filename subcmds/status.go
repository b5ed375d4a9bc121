// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/barterbot/api"
	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/subcmds/cmdutil"
)

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Status) Synopsis() string {
	return "Prints barterbot daemon status"
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}
	req := &api.StatusRequest{}
	resp, err := cmdutil.Post[api.StatusResponse](ctx, &c.ClientFlags, api.StatusPath, req)
	if err != nil {
		return err
	}
	if len(resp.Error) != 0 {
		return fmt.Errorf("%s", resp.Error)
	}
	fmt.Printf("Server PID: %d\n", resp.PID)
	fmt.Printf("Start time: %s\n", resp.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("Uptime: %s\n", resp.Uptime)
	fmt.Println()
	fmt.Printf("Open carts: %d\n", resp.NumCarts)
	fmt.Printf("Inventory items: %d\n", resp.NumItems)
	fmt.Printf("Pricelist entries: %d\n", resp.NumPricelist)
	fmt.Printf("Key value in scrap: %s\n", resp.KeyValueScrap.StringFixed(2))
	fmt.Println()
	fmt.Printf("Load averages: %.2f %.2f %.2f\n", resp.LoadAvg1, resp.LoadAvg5, resp.LoadAvg15)
	fmt.Printf("Memory used: %.1f%%\n", resp.MemUsedPercent)
	return nil
}
