package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHTTPError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", NewValidationError("bad amount"), http.StatusBadRequest, ""},
		{"not_found", NewNotFoundError("transaction", "1"), http.StatusNotFound, ""},
		{"corrupt_reads_as_not_found", NewCorruptStateError("tr-1", "payee"), http.StatusNotFound, NewNotFoundError("transaction", "tr-1").Error()},
		{"wrapped_corrupt", fmt.Errorf("load: %w", NewCorruptStateError("tr-2", "payer")), http.StatusNotFound, ""},
		{"duplicate", NewTransactionDuplicateError("key"), http.StatusConflict, ""},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleHTTPError(rec, tt.err)

			assert.Equal(t, tt.code, rec.Code)

			var body HTTPError
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Message)
			}
		})
	}
}

func TestIsNotFoundCoversCorruptState(t *testing.T) {
	assert.True(t, IsNotFound(NewCorruptStateError("tr-1", "payer")))
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", NewNotFoundError("quote", "q"))))
	assert.False(t, IsNotFound(NewValidationError("x")))
}
