package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/config"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("port", "", "HTTP port")
	cmd.Flags().String("amqp-url", "", "AMQP broker URL for change events (optional)")
	cmd.Flags().Bool("seed-demo", false, "load sample expenses at startup")
	cmd.Flags().String("trusted-proxies", "", "comma separated proxy CIDRs allowed to set X-Forwarded-For")
	return cmd
}

func newLogger(cfg *config.Config) *applog.Logger {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	lc := applog.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)

	opts := []services.Option{services.WithLogger(logger)}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("connect AMQP: %w", err)
		}
		opts = append(opts, services.WithPublisher(client))
		logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP_URL not set, change events disabled")
	}

	views := cache.NewLRUCache[aggregate.View](cfg.ViewCacheSize, cfg.ViewCacheTTL)
	cacheMgr := cache.NewManager(logger)
	cacheMgr.Register(views)
	cacheMgr.StartCleanup(cfg.ViewCacheTTL)
	opts = append(opts, services.WithViewCache(views))

	svc := services.NewExpenseService(store.New(), opts...)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close event publisher", applog.FieldError, err)
		}
	}()

	if cfg.SeedDemo {
		if err := svc.Seed(ctx, services.DemoExpenses()); err != nil {
			return err
		}
		logger.Info("Loaded demo expenses", "count", len(services.DemoExpenses()))
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc,
		apphttp.WithLogger(logger),
		apphttp.WithRateLimiter(ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})),
		apphttp.WithAllowedOrigin(cfg.AllowedOrigin),
		apphttp.WithTrustedProxies(cfg.TrustedProxies...),
		apphttp.WithCacheManager(cacheMgr),
	)
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker", "port", cfg.Port, "version", version, applog.FieldOperation, applog.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
