package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fumiya-kume/cra/pkg/config"
	"github.com/fumiya-kume/cra/pkg/logger"
	"github.com/fumiya-kume/cra/pkg/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API over HTTP",
		Long: `Start the HTTP API with review, repository, migration and webhook endpoints.

The server stops gracefully on SIGINT or SIGTERM. When a configuration file
is in use, changes to its logging level are applied without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	return cmd
}

func (a *app) runServe(ctx context.Context, addr string) error {
	log := a.log

	manager := config.NewManager(a.loader, log)
	if err := manager.Load(); err == nil {
		manager.OnChange(func(_, newConfig *config.Config) error {
			level := logger.ParseLevel(newConfig.Logging.Level)
			log.SetLevel(level)
			log.Info("Log level set to %s", level)
			return nil
		})
		if err := manager.StartHotReload(); err != nil {
			log.Debug("Configuration hot reload disabled (error: %v)", err)
		} else {
			defer func() { _ = manager.StopHotReload() }()
		}
	}

	svc, err := a.buildServices(serviceNeeds{store: true, github: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := server.OptionsFromConfig(a.cfg, version)
	if addr != "" {
		opts.Addr = addr
	}

	deps := server.Dependencies{
		Reviews:  svc.review,
		Migrator: svc.reviewer,
		Cache:    svc.cache,
	}
	if svc.store != nil {
		deps.Store = svc.store
	}

	return server.New(opts, deps, log).ListenAndServe(ctx)
}

