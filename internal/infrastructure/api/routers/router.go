package routers

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mufasadev/lps-adaptor/internal/di"
	http2 "github.com/mufasadev/lps-adaptor/internal/infrastructure/api/http"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/api/middlewares"
)

func param(name string) string {
	return fmt.Sprintf("/{%s}", name)
}

func NewRouter(container *di.Container) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	lh := container.LegacyHandler
	router.Post("/iso8583/transactionRequests", lh.ProcessTransactionRequest)

	// scheme requests and callbacks
	sh := container.SchemeHandler
	router.Group(func(r chi.Router) {
		r.Use(middlewares.FspiopSourceMiddleware)
		r.Put("/parties"+param(http2.PartyIDTypeParam)+param(http2.PartyIdentifierParam), sh.PutParties)
		r.Put("/transactionRequests"+param(http2.IDParam), sh.PutTransactionRequest)
		r.Post("/quotes", sh.PostQuote)
		r.Post("/transfers", sh.PostTransfer)
		r.Put("/transfers"+param(http2.IDParam), sh.PutTransfer)
	})

	// Set up v1 routes with a path prefix
	router.Route("/api/v1", func(r chi.Router) {
		th := container.TransactionHandler
		r.Get("/transactions"+param(http2.IDParam), th.Get)
		r.Route("/lps"+param(http2.LpsKeyParam)+"/transactions", func(r chi.Router) {
			r.Get("/", th.GetByLpsKeyAndState)
			r.Get("/incomplete", th.FindIncomplete)
		})
		r.Get("/payers"+param(http2.PayerIdentifierParam)+"/transactions/received", th.GetReceivedByPayer)
	})

	return router
}
