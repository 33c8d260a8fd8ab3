package main

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/career-compass/internal/mcp"
	"github.com/honeycarbs/career-compass/internal/mockapi"
	"github.com/honeycarbs/career-compass/pkg/shutdown"
)

const shutdownTimeout = 10 * time.Second

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP}

func (c *cli) serveCmd() *cobra.Command {
	var noPrefetch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the portal operations as MCP tools over streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			res, err := c.resourcesFor(ctx)
			if err != nil {
				return err
			}
			srv := mcp.NewServer(c.logger, res)

			var prefetch shutdown.Stoppable
			if !noPrefetch && len(c.cfg.Prefetch.Categories) > 0 {
				if err := res.Prefetcher.Start(ctx); err != nil {
					return err
				}
				prefetch = shutdown.Func(func(context.Context) error {
					cancel()
					res.Prefetcher.Stop()
					return nil
				})
			}

			go shutdown.Graceful(shutdownSignals, shutdownTimeout, c.logger, prefetch, srv)

			c.logger.Info("MCP server initialized and starting", "addr", c.cfg.Addr(), "tools", len(srv.Tools()))
			if err := srv.Run(); err != nil {
				c.logger.Error("MCP server exited with error", "err", err)
				return err
			}
			c.logger.Info("MCP server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noPrefetch, "no-prefetch", false, "do not schedule category prefetching")
	return cmd
}

func (c *cli) mockCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run an in-memory portal backend for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.cfg.Mock.Addr
			}
			srv := mockapi.New(mockapi.Config{
				Addr:     addr,
				Secret:   c.cfg.Mock.Secret,
				TokenTTL: c.cfg.Mock.TTL,
				Logger:   c.logger,
			})

			go shutdown.Graceful(shutdownSignals, shutdownTimeout, c.logger, srv)

			return srv.Run()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
