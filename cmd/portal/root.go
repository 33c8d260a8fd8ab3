package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/career-compass/internal/app"
	"github.com/honeycarbs/career-compass/internal/config"
	"github.com/honeycarbs/career-compass/internal/domain/auth"
	"github.com/honeycarbs/career-compass/pkg/logging"
)

var errSignedOut = errors.New("not signed in to the portal; run `portal login` first")

// cli carries the state shared by every command of one invocation
type cli struct {
	configPath string
	verbose    bool
	jsonOut    bool

	cfg    config.Config
	logger *logging.Logger

	core     *app.Core
	closeFns []func()
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "portal",
		Short: "Career Compass: browse the career portal from the terminal",
		Long: `portal talks to the career recommendation portal backend.

It browses the career catalogue and category tree, manages favorites,
fetches recommendations and serves the same operations as MCP tools.

Configuration is read from --config (YAML), then .env, then the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			c.close()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "portal.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.careersCmd(),
		c.categoriesCmd(),
		c.recommendCmd(),
		c.favoritesCmd(),
		c.cacheCmd(),
		c.exportCmd(),
		c.snapshotCmd(),
		c.serveCmd(),
		c.mockCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.verbose {
		cfg.LogLevel = "debug"
	}
	c.cfg = cfg
	c.logger = logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Console: true})
	return nil
}

func (c *cli) close() {
	for i := len(c.closeFns) - 1; i >= 0; i-- {
		c.closeFns[i]()
	}
	c.closeFns = nil
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// coreFor wires the services the interactive commands share, once per run
func (c *cli) coreFor(ctx context.Context) (*app.Core, error) {
	if c.core != nil {
		return c.core, nil
	}
	core, cleanup, err := app.InitializeCore(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise: %w", err)
	}
	c.core = core
	c.closeFns = append(c.closeFns, cleanup)
	return core, nil
}

// resourcesFor wires Core plus the optional integrations
func (c *cli) resourcesFor(ctx context.Context) (*app.Resources, error) {
	res, cleanup, err := app.InitializeResources(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise: %w", err)
	}
	c.core = res.Core
	c.closeFns = append(c.closeFns, cleanup)
	return res, nil
}

// signedIn returns Core when a session is held
func (c *cli) signedIn(ctx context.Context) (*app.Core, error) {
	core, err := c.coreFor(ctx)
	if err != nil {
		return nil, err
	}
	if !core.Session.LoggedIn() {
		return nil, errSignedOut
	}
	return core, nil
}

// sessionErr ends the session on a 401 so the next command asks for a login
func sessionErr(ctx context.Context, session *auth.Session, err error) error {
	if err != nil && session.HandleUnauthorized(ctx, err) {
		return errors.Join(errSignedOut, err)
	}
	return err
}

func (c *cli) emit(w io.Writer, v any, human func(io.Writer) error) error {
	if c.jsonOut {
		return writeJSON(w, v)
	}
	return human(w)
}
