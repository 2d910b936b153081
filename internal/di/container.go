package di

import (
	"fmt"

	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/domain/gateways"
	domain "github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/api/handlers"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/database/memory"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/database/repositories"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/fees"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/ilp"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/scheme"
	"github.com/mufasadev/lps-adaptor/internal/usecases/interactor"
	"github.com/mufasadev/lps-adaptor/pkg/postgresql"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Container struct {
	LegacyHandler       *handlers.LegacyHandler
	SchemeHandler       *handlers.SchemeHandler
	TransactionHandler  *handlers.TransactionHandler
	ReconcileInteractor *interactor.ReconcileInteractor
	Dispatcher          *handlers.Dispatcher
}

type stores struct {
	transactions domain.TransactionRepository
	quotes       domain.QuoteRepository
	transfers    domain.TransferRepository
}

func newStores(cfg *config.Config, db postgresql.Client) (*stores, error) {
	timeout := cfg.Store.SideEffectTimeoutDuration()
	switch cfg.Store.Backend {
	case BackendMemory:
		return &stores{
			transactions: memory.NewTransactionStore(timeout),
			quotes:       memory.NewQuoteStore(),
			transfers:    memory.NewTransferStore(),
		}, nil
	case BackendPostgres, "":
		if db == nil {
			return nil, fmt.Errorf("store backend %s needs a database connection", BackendPostgres)
		}
		return &stores{
			transactions: repositories.NewTransactionRepositoryImpl(db, timeout),
			quotes:       repositories.NewQuoteRepositoryImpl(db),
			transfers:    repositories.NewTransferRepositoryImpl(db),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// NewContainer creates a new Container instance. db may be nil for the memory backend.
func NewContainer(cfg *config.Config, db postgresql.Client, queue gateways.QueueService) (*Container, error) {
	s, err := newStores(cfg, db)
	if err != nil {
		return nil, err
	}

	feeCalculator, err := fees.NewCalculatorFromConfig(cfg.Fees)
	if err != nil {
		return nil, err
	}

	schemeClient := scheme.NewClient(cfg.Scheme)
	ilpService := ilp.New(cfg.ILP.Secret)
	dispatcher := handlers.NewDispatcher(cfg.Server.CallbackTimeoutDuration())

	transactionInteractor := interactor.NewTransactionInteractor(s.transactions, schemeClient, cfg.Scheme)
	legacyInteractor := interactor.NewLegacyInteractor(transactionInteractor, schemeClient)
	partiesInteractor := interactor.NewPartiesInteractor(transactionInteractor, cfg.Scheme.SendAttemptsCount(), cfg.Scheme.SendRetryDelayDuration())
	responseInteractor := interactor.NewTransactionRequestResponseInteractor(transactionInteractor)
	quoteInteractor := interactor.NewQuoteInteractor(transactionInteractor, s.quotes, schemeClient, feeCalculator, ilpService)
	transferInteractor := interactor.NewTransferInteractor(transactionInteractor, s.quotes, s.transfers, schemeClient, ilpService)
	transferResponseInteractor := interactor.NewTransferResponseInteractor(transactionInteractor, s.transfers, queue)

	reconcileInteractor := interactor.NewReconcileInteractor(
		transactionInteractor,
		s.transfers,
		schemeClient,
		cfg.Reconcile.StaleAfterDuration(),
		cfg.Reconcile.BatchSizeCount(),
	)

	return &Container{
		LegacyHandler: handlers.NewLegacyHandler(legacyInteractor),
		SchemeHandler: handlers.NewSchemeHandler(
			partiesInteractor,
			responseInteractor,
			quoteInteractor,
			transferInteractor,
			transferResponseInteractor,
			dispatcher,
		),
		TransactionHandler:  handlers.NewTransactionHandler(transactionInteractor),
		ReconcileInteractor: reconcileInteractor,
		Dispatcher:          dispatcher,
	}, nil
}
