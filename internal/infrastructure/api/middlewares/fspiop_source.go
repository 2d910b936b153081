package middlewares

import (
	"net/http"

	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
)

// FspiopSourceMiddleware rejects scheme callbacks that do not declare their sender.
func FspiopSourceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(mojaloop.HeaderSource) == "" {
			logger := log.Component("api")
			logger.Warn().Str("path", r.URL.Path).Msg(errors.ErrFspiopSourceRequired)
			errors.HandleHTTPError(w, errors.NewValidationError(errors.ErrFspiopSourceRequired))
			return
		}

		next.ServeHTTP(w, r)
	})
}
