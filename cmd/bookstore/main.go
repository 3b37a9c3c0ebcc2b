package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/config"
	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/httpserver"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/search"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/tokens"
)

func main() {
	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(initCtx, gdb); err != nil {
		cancel()
		log.Fatalf("db migrate error: %v", err)
	}

	store := &repo.GormRepo{DB: gdb}
	if n, err := store.PurgeRevokedTokens(initCtx, time.Now().Unix()); err != nil {
		logger.Warn("purge_revoked_tokens_error", "error", err)
	} else if n > 0 {
		logger.Info("purge_revoked_tokens", "removed", n)
	}

	producer := events.New(cfg.KafkaBrokers)

	searcher, indexer, err := newSearch(cfg, store)
	if err != nil {
		cancel()
		log.Fatalf("search init error: %v", err)
	}

	authSvc := service.NewAuthService(store, tokens.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), producer)
	catalogSvc := &service.CatalogService{Repo: store, Searcher: searcher, Indexer: indexer}
	orderSvc := &service.OrderService{Repo: store}

	if cfg.ReindexOnStart {
		if _, err := catalogSvc.Reindex(logging.IntoContext(initCtx, logger)); err != nil {
			logger.Error("reindex_error", "error", err)
		}
	}
	cancel()

	e := httpserver.NewEcho(logger, cfg.FrontendURL)
	httpserver.Register(e, &httpserver.Deps{
		Users: &httpserver.UsersHTTP{
			Auth:     authSvc,
			Cart:     &service.CartService{Repo: store, Events: producer},
			Checkout: &service.CheckoutService{Repo: store, Events: producer, Indexer: indexer},
			Orders:   orderSvc,
			Cookies:  httpserver.CookieConfig{Secure: cfg.CookieSecure},
		},
		Books: &httpserver.BooksHTTP{Svc: catalogSvc},
		Admin: &httpserver.AdminHTTP{Orders: orderSvc, Catalog: catalogSvc, Auth: authSvc},
		Auth:  auth.New(authSvc),
		Ready: func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		},
		ImagesDir: cfg.ImagesDir,
	})

	go func() {
		logger.Info("server_start", "port", cfg.ServerPort)
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown error", "error", err)
	}
	closeAll(logger, gdb, producer)
	logger.Info("shutdown complete")
}

func newSearch(cfg config.Config, r *repo.GormRepo) (search.Searcher, search.Indexer, error) {
	if cfg.ESURL == "" {
		return &search.DBSearcher{Repo: r}, search.NopIndexer{}, nil
	}
	client, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		return nil, nil, err
	}
	idx := &search.ESIndex{Client: client, Index: cfg.ESIndex}
	return idx, idx, nil
}

func closeAll(logger *slog.Logger, gdb *gorm.DB, producer events.Publisher) {
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}
	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}
}
