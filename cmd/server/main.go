package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Skotchmaster/museum/internal/config"
	"github.com/Skotchmaster/museum/internal/es"
	"github.com/Skotchmaster/museum/internal/handlers"
	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/internal/mykafka"
	"github.com/Skotchmaster/museum/internal/refreshstore/redisstore"
	"github.com/Skotchmaster/museum/internal/repo"
	"github.com/Skotchmaster/museum/internal/service"
	httpserver "github.com/Skotchmaster/museum/internal/transport/http"
	pkgdb "github.com/Skotchmaster/museum/pkg/db"
	"github.com/Skotchmaster/museum/pkg/tokens"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	defer func() { _ = logger.Sync() }()

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatalw("db open", "error", err)
	}
	if err := pkgdb.Migrate(db); err != nil {
		logger.Fatalw("db migrate", "error", err)
	}

	r := repo.New(db)

	sessions, closeSessions := refreshStore(cfg, db, logger)
	defer closeSessions()

	issuer := tokens.NewIssuer(cfg.AccessSecret, cfg.RefreshSecret)
	issuer.AccessTTL = cfg.AccessTTL
	issuer.RefreshTTL = cfg.RefreshTTL
	issuer.Margin = cfg.ExpiryMargin

	pub, err := mykafka.New(cfg.KafkaBrokers)
	if err != nil {
		logger.Fatalw("kafka producer", "error", err)
	}
	events := service.Events{Publisher: pub, Topic: cfg.KafkaTopic}

	auth := &service.AuthService{Users: r, Sessions: sessions, Issuer: issuer, Events: events}
	catalog := &service.CatalogService{Repo: r, Search: searcher(cfg, r, logger), Events: events}
	admin := &service.AdminService{Users: r, Auth: auth, Events: events}

	e := httpserver.New(&httpserver.Deps{
		DB:      db,
		Log:     logger,
		Auth:    auth,
		Catalog: catalog,
		Admin:   admin,
		Cookies: handlers.CookieConfig{
			SameSite: cfg.CookieSameSite,
			Secure:   cfg.CookieSecure,
			Path:     cfg.CookiePath,
		},
		CORSOrigins: cfg.CORSOrigins,
	})

	ctx, stopPurge := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go auth.RunPurge(ctx, cfg.PurgeInterval)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Infow("listening", "addr", srv.Addr, "refresh_store", cfg.RefreshStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("listen", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Infow("shutting down")
	stopPurge()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("server shutdown", "error", err)
	}
	if err := pub.Close(); err != nil {
		logger.Errorw("kafka close", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Errorw("db close", "error", err)
	}

	logger.Infow("shutdown complete")
}

func refreshStore(cfg config.Config, db *gorm.DB, logger *zap.SugaredLogger) (repo.RefreshStore, func()) {
	if cfg.RefreshStore != config.StoreRedis {
		return repo.NewRefreshStore(db), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalw("redis ping", "addr", cfg.RedisAddr, "error", err)
	}
	return redisstore.New(rdb), func() {
		if err := rdb.Close(); err != nil {
			logger.Errorw("redis close", "error", err)
		}
	}
}

// searcher uses Elasticsearch when configured and reachable, the database otherwise.
func searcher(cfg config.Config, r *repo.GormRepo, logger *zap.SugaredLogger) es.Searcher {
	if cfg.ESURL == "" {
		return es.NewFallback(r)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := es.NewClient(ctx, es.Config{
		URL:      cfg.ESURL,
		User:     cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESIndex,
	})
	if err != nil {
		logger.Warnw("elasticsearch unavailable, searching the database", "error", err)
		return es.NewFallback(r)
	}
	return client
}
