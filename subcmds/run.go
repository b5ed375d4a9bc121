// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bvk/barterbot/cli"
	"github.com/bvk/barterbot/ctxutil"
	"github.com/bvk/barterbot/daemonize"
	"github.com/bvk/barterbot/httputil"
	"github.com/bvk/barterbot/server"
	"github.com/bvk/barterbot/subcmds/cmdutil"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/sglog"
)

type Run struct {
	cmdutil.ServerFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	noPprof bool

	secretsPath string
	dataDir     string
	logDir      string

	botID string

	refreshInterval time.Duration
	cartIdleTimeout time.Duration

	weapons    string
	limitedUse string

	skipItemsInTrade bool
	dupeCheck        bool
}

func (c *Run) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.logDir, "log-dir", "", "path to the log directory")
	fset.StringVar(&c.botID, "bot-id", "", "bot's trader id on the trading platform")
	fset.DurationVar(&c.refreshInterval, "refresh-interval", 5*time.Minute, "bot inventory refresh interval")
	fset.DurationVar(&c.cartIdleTimeout, "cart-idle-timeout", 15*time.Minute, "idle timeout before carts are dropped")
	fset.StringVar(&c.weapons, "weapons", "", "comma separated craftable-weapon skus usable as half-scrap currency")
	fset.StringVar(&c.limitedUse, "limited-use", "", "comma separated limited-use item skus")
	fset.BoolVar(&c.skipItemsInTrade, "skip-items-in-trade", true, "skip instances engaged in another active exchange")
	fset.BoolVar(&c.dupeCheck, "dupe-check", true, "verify high-value duplicable items before sending offers")
	return fset, cli.CmdFunc(c.run)
}

func (c *Run) Synopsis() string {
	return "Runs barterbot in foreground or background"
}

func (c *Run) CommandHelp() string {
	return `

Command "run" starts the barterbot service. The service keeps per-counterparty
shopping carts, turns checkouts into trade offers and follows the offers
through to completion.

SECRETS FILE

The trading platform requires API keys to create trade offers. Users are
expected to create a secrets file with API keys in JSON format. An example
secrets file format is given below:

    {
        "economy":{
            "kid":"111111111",
            "pem":"-----BEGIN EC PRIVATE ... PRIVATE KEY-----\n"
        }
    }

Telegram and Pushover notification keys can be added with the "setup"
subcommands.

`
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(c.botID) == 0 {
		return fmt.Errorf("bot trader id argument is required")
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

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets, err := server.SecretsFromFile(c.secretsPath)
	if err != nil {
		return err
	}

	if ip := net.ParseIP(c.IP); ip == nil {
		return fmt.Errorf("invalid ip address")
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port number")
	}
	addr := &net.TCPAddr{
		IP:   net.ParseIP(c.IP),
		Port: c.Port,
	}

	// Health checker for the background process initialization. We need to
	// verify that responding http server is really our child and not an
	// older instance.
	check := func(ctx context.Context) error {
		client := http.Client{Timeout: time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/pid", addr.String()))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http status: %d", resp.StatusCode)
		}
		if _, err := io.ReadAll(resp.Body); err != nil {
			return err
		}
		return nil
	}

	if c.background {
		if err := daemonize.Daemonize(ctx, check); err != nil {
			return err
		}
	}

	if len(c.logDir) == 0 {
		c.logDir = dataDir
	}
	backend := sglog.NewBackend(&sglog.Options{
		LogDirs: []string{c.logDir},
	})
	defer backend.Close()
	slog.SetDefault(slog.New(backend.Handler()))

	log.SetFlags(log.Flags() | log.Lmicroseconds)
	log.Printf("using data directory %s and secrets file %s", dataDir, c.secretsPath)

	lockPath := filepath.Join(dataDir, "barterbot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			log.Printf("waiting for the previous instance to shutdown")
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Start HTTP server.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	tcpServer, err := s.StartTCP(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer s.Stop(tcpServer)

	if !c.noPprof {
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
		s.AddHandler("/debug/pprof/block", pprof.Handler("block"))
		s.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	// Open the database.
	bopts := badger.DefaultOptions(dataDir)
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, isGoodKey)

	s.AddHandler("/db/", http.StripPrefix("/db", kvhttp.Handler(db)))

	// Start the trading service.
	sopts := &server.Options{
		BotID:                    c.botID,
		InventoryRefreshInterval: c.refreshInterval,
		CartIdleTimeout:          c.cartIdleTimeout,
		SkipItemsInTrade:         c.skipItemsInTrade,
		DupeCheckEnabled:         c.dupeCheck,
	}
	if len(c.weapons) != 0 {
		sopts.Weapons = strings.Split(c.weapons, ",")
	}
	if len(c.limitedUse) != 0 {
		sopts.LimitedUse = strings.Split(c.limitedUse, ",")
	}
	bot, err := server.New(ctx, secrets, db, sopts)
	if err != nil {
		return err
	}
	defer bot.Close()

	// Add bot api handlers.
	botAPIs := bot.HandlerMap()
	for k, v := range botAPIs {
		s.AddHandler(k, v)
	}
	defer func() {
		for k := range botAPIs {
			s.RemoveHandler(k)
		}
	}()

	// Wait for the signals.

	log.Printf("started barterbot server at %s", addr)
	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))

	<-ctx.Done()
	log.Printf("barterbot server is shutting down")
	return nil
}

func isGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}
