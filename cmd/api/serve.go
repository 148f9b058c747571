package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-order-catalog/internal/audit"
	"github.com/ariefcatur/go-order-catalog/internal/catalog"
	"github.com/ariefcatur/go-order-catalog/internal/config"
	"github.com/ariefcatur/go-order-catalog/internal/httpx"
	kafkax "github.com/ariefcatur/go-order-catalog/internal/kafka"
	"github.com/ariefcatur/go-order-catalog/internal/logger"
	"github.com/ariefcatur/go-order-catalog/internal/memstore"
	"github.com/ariefcatur/go-order-catalog/internal/orders"
	"github.com/ariefcatur/go-order-catalog/internal/postgres"
	"github.com/ariefcatur/go-order-catalog/internal/redisx"
)

func serveCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func serve(parent context.Context, cfg config.Config, autoMigrate bool) error {
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		catalogStore catalog.Store
		orderStore   orders.Store
		history      httpx.EventHistory
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := memstore.New()
		catalogStore, orderStore = mem, mem
		log.Warn("using in-memory store, data is lost on exit")
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()
		if autoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
		}
		catalogStore, orderStore = &catalog.Repo{DB: db}, &orders.Repo{DB: db}
		history = &audit.Repo{DB: db}
	}

	mgr := orders.NewManager(orderStore, cfg.StatusPolicy, log)
	mgr.Service = cfg.ServiceName

	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn("redis unavailable, order cache disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			mgr.Cache = redisx.NewOrderCache(rdb, cfg.CacheTTL, log)
		}
	}

	var prod *kafkax.Producer
	if cfg.EventsOn() {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
		prod.Start(ctx)
		mgr.Events = kafkax.EventPublisher{P: prod}
	}

	router := httpx.NewRouter(log)
	(&httpx.ProductsHandler{Service: catalog.NewService(catalogStore, log)}).Register(router)
	(&httpx.OrdersHandler{Manager: mgr, History: history}).Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "policy", cfg.StatusPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if prod != nil {
			// In-flight requests are done; flush what they published.
			prod.Close()
			prod.WaitClosed()
		}
		return err
	})
	return g.Wait()
}
