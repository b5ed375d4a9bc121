// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/envfile"
	"github.com/bvk/barterbot/subcmds"
	"github.com/bvk/barterbot/subcmds/cart"
	"github.com/bvk/barterbot/subcmds/db"
	"github.com/bvk/barterbot/subcmds/offer"
	"github.com/bvk/barterbot/subcmds/pricelist"
	"github.com/bvk/barterbot/subcmds/setup"
)

func main() {
	// Pick up BARTERBOT_ prefixed defaults from a barterbot.env file when one
	// exists in the current directory or a parent.
	if err := envfile.UpdateEnv("barterbot.env", envfile.SearchCurrentDir(true), envfile.VariableNamePrefix("BARTERBOT_")); err != nil {
		log.Fatal(err)
	}

	cartCmds := []cli.Command{
		new(cart.Add),
		new(cart.Remove),
		new(cart.Show),
		new(cart.Checkout),
		new(cart.Clear),
	}

	pricelistCmds := []cli.Command{
		new(pricelist.Get),
		new(pricelist.Set),
		new(pricelist.List),
		new(pricelist.Delete),
	}

	offerCmds := []cli.Command{
		new(offer.List),
	}

	dbCmds := []cli.Command{
		new(db.Get),
		new(db.Set),
		new(db.Delete),
		new(db.List),
		new(db.Backup),
		new(db.Restore),
	}

	setupCmds := []cli.Command{
		new(setup.Economy),
		new(setup.Telegram),
		new(setup.PushOver),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Status),
		cli.CommandGroup("cart", cartCmds...),
		cli.CommandGroup("pricelist", pricelistCmds...),
		cli.CommandGroup("offer", offerCmds...),
		cli.CommandGroup("db", dbCmds...),
		cli.CommandGroup("setup", setupCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
