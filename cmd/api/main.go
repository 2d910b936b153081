package main

import (
	"context"

	"github.com/mufasadev/lps-adaptor/internal/app"
	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/di"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/api/routers"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/database/db_client"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/queue"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/mufasadev/lps-adaptor/pkg/postgresql"
)

const (
	appName = "lps-adaptor"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	log.Init(appName, log.WithConsoleLogger(), log.WithLogLevel(cfg.Log.Level), log.WithFileLogger(cfg.Log.File))
	logger := log.GetLogger()

	var db postgresql.Client
	if cfg.Store.Backend != di.BackendMemory {
		pool, err := db_client.NewPGClient(cfg.PostgreSQL).Connect()
		if err != nil {
			logger.Fatal().Err(err).Msg(errors.ErrorFailedToConnectToTheDatabase)
		}
		defer pool.Close()

		if err = db_client.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg(errors.ErrorFailedToConnectToTheDatabase)
		}
		db = pool
	}

	producer, err := queue.NewProducer(cfg.Queue.URL, cfg.Queue.PublishTimeoutDuration())
	if err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorFailedToConnectToTheQueue)
	}
	defer producer.Close()

	container, err := di.NewContainer(cfg, db, producer)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build the service")
	}

	reconcile := app.NewReconcileProcess(container.ReconcileInteractor, cfg.Reconcile)
	go func() {
		if err := reconcile.Run(ctx); err != nil {
			logger.Error().Err(err).Msg(errors.ErrFailedReconcileTransactions)
		}
	}()

	router := routers.NewRouter(container)
	service := app.NewService(cfg, container.Dispatcher.Wait)
	service.Run(ctx, router)
}
