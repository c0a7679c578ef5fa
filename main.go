// main.go
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"luxvision/cli"
	"luxvision/config"
	"luxvision/controllers"
	"luxvision/logger"
	"luxvision/middleware"
	"luxvision/routes"
	"luxvision/seed"
	"luxvision/services"
	"luxvision/store/mongodb"
	"luxvision/store/sqlite"
	"luxvision/store/sqlite/migrations"
	"luxvision/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnv()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "luxvision",
		Short: "LuxVision eyewear store API",
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var cfg config.Config
	return cli.NewCommand(viper.New(), config.EnvPrefix, &cli.Program{
		Name:  "serve",
		Short: "Start the HTTP API",
		Opts:  cfg.Opts(),
		Run:   func() error { return serve(&cfg) },
	})
}

func newMigrateCommand() *cobra.Command {
	var cfg config.Config
	return cli.NewCommand(viper.New(), config.EnvPrefix, &cli.Program{
		Name:  "migrate",
		Short: "Apply pending sqlite migrations or create MongoDB indexes",
		Opts:  cfg.StoreOpts(),
		Run: func() error {
			return withStore(&cfg, func(context.Context, services.Store, *zap.Logger) error {
				return nil
			})
		},
	})
}

func newSeedCommand() *cobra.Command {
	var cfg config.Config
	return cli.NewCommand(viper.New(), config.EnvPrefix, &cli.Program{
		Name:  "seed",
		Short: "Load the demonstration catalog and accounts",
		Opts:  cfg.StoreOpts(),
		Run: func() error {
			return withStore(&cfg, func(ctx context.Context, store services.Store, log *zap.Logger) error {
				_, err := seed.New(store, log).Run(ctx)
				return err
			})
		},
	})
}

// withStore opens and prepares the configured store, runs fn and closes it.
func withStore(cfg *config.Config, fn func(context.Context, services.Store, *zap.Logger) error) error {
	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open store", zap.Error(err))
		return err
	}
	defer store.Close()

	if err := fn(ctx, store, log); err != nil {
		log.Error("Command failed", zap.Error(err))
		return err
	}
	return nil
}

// openStore connects to the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		store, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.NewSqlStore(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		if err := sqlite.NewMigrator(store, log).Up(ctx, migrations.AllUp); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}

func newMailer(cfg config.MailConfig) utils.Mailer {
	switch cfg.Provider {
	case config.MailPostmark:
		return utils.NewPostmarkMailer(cfg.Token, cfg.From)
	case config.MailSendGrid:
		return utils.NewSendGridMailer(cfg.Token, cfg.From)
	default:
		return nil
	}
}

func serve(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open store", zap.Error(err))
		return err
	}
	defer store.Close()

	tokens := utils.NewTokenIssuer(utils.TokenConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
	})
	authSvc := services.NewAuthService(store, tokens, log)

	cache := services.NewCache(cfg.CacheTTL, time.Minute)
	defer cache.Close()
	products := services.NewProductService(store, cache, log)

	feed := services.NewFeed(32)
	orders := services.NewOrderService(services.OrderServiceConfig{
		Store:        store,
		Products:     products,
		Emails:       utils.NewEmailService(newMailer(cfg.Mail), log),
		Feed:         feed,
		ShippingCost: cfg.ShippingCost,
		Logger:       log,
	})

	eh := controllers.NewErrorHandler(log, !cfg.IsProduction())
	rc := routes.Config{
		Users:       controllers.NewUserController(authSvc, eh),
		Products:    controllers.NewProductController(products, eh),
		Cart:        controllers.NewCartController(services.NewCartService(store), eh),
		Wishlist:    controllers.NewWishlistController(services.NewWishlistService(store), eh),
		Orders:      controllers.NewOrderController(orders, eh),
		OrderFeed:   controllers.NewOrderFeed(feed, cfg.CORSOrigin, log),
		Reviews:     controllers.NewReviewController(services.NewReviewService(store, products, log), eh),
		Addresses:   controllers.NewAddressController(services.NewAddressService(store), eh),
		Auth:        middleware.NewAuth(authSvc, eh.HandleHTTPError),
		Errors:      eh,
		Logger:      log,
		CORSOrigin:  cfg.CORSOrigin,
		Environment: cfg.Env,
	}
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rc.Metrics = middleware.NewMetrics(reg)
		rc.Gatherer = reg
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           routes.New(rc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Listening",
			zap.String("transport", "http"),
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("db", cfg.DBDriver))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to serve", zap.Error(err))
			return err
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	// websocket connections are hijacked and ignored by Shutdown
	feed.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down cleanly", zap.Error(err))
	}
	orders.Wait()
	log.Info("Stopped")
	return nil
}
