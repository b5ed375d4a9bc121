// Copyright (c) 2025 BVK Chaitanya

// Package setup implements subcommands that write service credentials into
// the secrets file.
package setup

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/server"
	"github.com/bvk/barterbot/tradeoffer"
)

type Economy struct {
	dataDir     string
	skipTesting bool

	kid     string
	pemFile string
}

func (c *Economy) Synopsis() string {
	return "Configures the trading platform API keys"
}

func (c *Economy) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("economy", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.kid, "kid", "", "API key id issued by the trading platform")
	fset.StringVar(&c.pemFile, "pem-file", "", "path to the API key PEM file")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the parameters")
	return fset, cli.CmdFunc(c.run)
}

func (c *Economy) CommandHelp() string {
	return `

Command "economy" saves the trading platform API keys into the secrets
file. These keys are required to run the bot. They can be configured as
follows:

  $ barterbot setup economy --kid=111111111 --pem-file=/path/to/key.pem

`
}

func (c *Economy) run(ctx context.Context, args []string) error {
	if len(c.kid) == 0 {
		return fmt.Errorf("kid flag is required")
	}
	if len(c.pemFile) == 0 {
		return fmt.Errorf("pem-file flag is required")
	}
	pemData, err := os.ReadFile(c.pemFile)
	if err != nil {
		return fmt.Errorf("could not read pem file %q: %w", c.pemFile, err)
	}

	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".barterbot")
	}
	if _, err := os.Stat(c.dataDir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not stat data directory %q: %w", c.dataDir, err)
		}
		if err := os.MkdirAll(c.dataDir, 0700); err != nil {
			return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	secretsPath := filepath.Join(dataDir, "secrets.json")
	secrets, err := server.SecretsFromFile(secretsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if secrets == nil {
		secrets = &server.Secrets{}
	}

	secrets.Economy = &tradeoffer.Credentials{
		KID: c.kid,
		PEM: string(pemData),
	}
	if err := secrets.Economy.Check(); err != nil {
		return err
	}

	if !c.skipTesting {
		// Attempt to open a session to validate the keys.
		client, err := tradeoffer.New(ctx, secrets.Economy.KID, secrets.Economy.PEM, nil /* opts */)
		if err != nil {
			return err
		}
		client.Close()
	}

	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(secretsPath, js, os.FileMode(0600)); err != nil {
		return err
	}
	return nil
}
