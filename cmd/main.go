package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "LogoSync/internal/adapter/duckduckgo"
	_ "LogoSync/internal/adapter/htmlsearch"
	"LogoSync/internal/api"
	"LogoSync/internal/config"
	"LogoSync/internal/model"
	"LogoSync/internal/scheduler"
	"LogoSync/internal/seed"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "logosync",
		Short:         "Keeps sports league and TV channel logos up to date",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newRefreshCmd(), newResolveCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Seed the catalog, start the refresh scheduler and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newRefreshCmd() *cobra.Command {
	var catalog string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one catalog refresh and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalogs, err := parseCatalogs(catalog)
			if err != nil {
				return err
			}
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			for _, c := range catalogs {
				summary, err := a.refresh.RunCatalog(ctx, c, model.TriggerManual)
				if err != nil {
					return fmt.Errorf("refresh %s: %w", c, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: processed=%d updated=%d skipped=%d failed=%d\n",
					c, summary.Processed, summary.Updated, summary.Skipped, summary.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalog, "catalog", "all", "catalog to refresh: leagues, channels or all")
	return cmd
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <query>",
		Short: "Resolve an image url for a query without touching the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.Close()

			out := a.refresh.ResolveImageForQuery(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", out.Source, out.URL)
			return nil
		},
	}
}

func parseCatalogs(s string) ([]model.Catalog, error) {
	switch s {
	case "all", "":
		return []model.Catalog{model.CatalogLeagues, model.CatalogChannels}, nil
	case string(model.CatalogLeagues), string(model.CatalogChannels):
		return []model.Catalog{model.Catalog(s)}, nil
	}
	return nil, fmt.Errorf("unknown catalog %q (leagues, channels or all)", s)
}

func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Log)
	logger.Info("config loaded")
	return newApp(cfg, logger)
}

func runServe(parent context.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := seed.NewLoader(a.store, logger).Seed(ctx, a.cfg.Seed)
	if err != nil {
		logger.Fatalf("seed catalog: %v", err)
	}
	logger.WithFields(logrus.Fields{"leagues": res.Leagues, "channels": res.Channels, "skipped": res.Skipped}).Info("catalog ready")

	sched, err := scheduler.New(a.cfg.Refresh, a.refresh, logger)
	if err != nil {
		logger.Fatalf("create scheduler: %v", err)
	}
	if err := sched.Start(); err != nil {
		logger.Fatalf("start scheduler: %v", err)
	}

	gin.SetMode(a.cfg.Server.Mode)
	router := api.NewRouter(api.Deps{
		Store:     a.store,
		Refresher: a.refresh,
		Rotation:  a.rotation,
		Registry:  a.registry,
		Logger:    logger,
	})
	logger.Infof("gin mode: %s", a.cfg.Server.Mode)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("http server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// SIGHUP queues an immediate refresh of both catalogs
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

wait:
	for {
		select {
		case err := <-serveErr:
			if err != nil {
				logger.Fatalf("http server: %v", err)
			}
			break wait
		case <-hup:
			for _, c := range []model.Catalog{model.CatalogLeagues, model.CatalogChannels} {
				if err := sched.Trigger(c); err != nil {
					logger.WithError(err).WithField("catalog", c).Warn("trigger refresh")
				}
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			break wait
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http server shutdown")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("scheduler shutdown")
	}
	return nil
}
