package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFspiopSourceMiddleware(t *testing.T) {
	var reached bool
	handler := FspiopSourceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/transfers/1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, reached)

	req := httptest.NewRequest(http.MethodPut, "/transfers/1", nil)
	req.Header.Set("FSPIOP-Source", "payerfsp")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}
