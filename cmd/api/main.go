package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/bookcatalog/book"
	"github.com/marcelsud/bookcatalog/book/postgres"
	bookredis "github.com/marcelsud/bookcatalog/book/redis"
	"github.com/marcelsud/bookcatalog/book/sqlite"
	"github.com/marcelsud/bookcatalog/config"
	"github.com/marcelsud/bookcatalog/internal/http/chi"
	"github.com/marcelsud/bookcatalog/metrics"
	"github.com/marcelsud/bookcatalog/seed"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/*
 * main wires the packages together: config, then storage, then the service,
 * then the HTTP layer. Imports only go downwards.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	logger := chi.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("opening storage")
		return
	}
	defer repo.Close(context.Background())

	s := book.NewService(repo)
	if cfg.SeedFile != "" {
		if err := applySeed(ctx, cfg.SeedFile, s, logger); err != nil {
			logger.Error().Err(err).Msg("seeding catalog")
			return
		}
	}

	exporter, err := metrics.NewOTelExporter(metrics.NewCatalogCollector(repo))
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())

	r := chi.Handlers(ctx, s, logger, exporter)
	http.Handle("/", r)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      http.DefaultServeMux,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("serving")
		return
	}
	err = <-errShutdown
	if err != nil {
		logger.Error().Err(err).Msg("shutting down")
		return
	}
	logger.Info().Msg("server stopped")
}

func openRepository(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (book.Repository, error) {
	var repo book.Repository
	switch cfg.Storage {
	case config.StoragePostgres:
		if err := cfg.ValidatePostgres(); err != nil {
			return nil, err
		}
		pg, err := postgres.NewRepositoryWithPoolConfig(
			cfg.PostgresConnectionString(),
			cfg.PostgresMaxOpenConns,
			cfg.PostgresMaxIdleConns,
			cfg.PostgresConnMaxLifeMinutes,
		)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(pg.DB, postgres.Up); err != nil {
			pg.Close(ctx)
			return nil, err
		}
		repo = pg
	default:
		lite, err := sqlite.NewRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := lite.CreateTable(ctx); err != nil {
			lite.Close(ctx)
			return nil, err
		}
		repo = lite
	}

	if !cfg.CacheEnabled() {
		return repo, nil
	}
	client, err := bookredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		repo.Close(ctx)
		return nil, err
	}
	logger.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL()).Msg("redis cache enabled")
	return bookredis.NewCachedRepository(repo, client, cfg.CacheTTL(), logger), nil
}

func applySeed(ctx context.Context, path string, s book.UseCase, logger zerolog.Logger) error {
	loader := seed.NewLoader()
	if err := loader.Load(path); err != nil {
		return err
	}
	n, err := loader.ApplyIfEmpty(ctx, s)
	if err != nil {
		return err
	}
	logger.Info().Str("file", path).Int("created", n).Msg("seed applied")
	return nil
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	default:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	}
}
