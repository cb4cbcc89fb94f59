package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"blogcloud/internal/repository"
	"blogcloud/internal/service"
)

func TestWriteServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", service.NewValidationError("mode", "bad"), http.StatusBadRequest},
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"setting not found", repository.ErrSettingNotFound, http.StatusNotFound},
		{"fetch in progress", service.ErrFetchInProgress, http.StatusConflict},
		{"upstream", &service.UpstreamError{StatusCode: 503, Message: "overloaded"}, http.StatusBadGateway},
		{"parse", &service.ParseError{Message: "no tags"}, http.StatusUnprocessableEntity},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":-1`)
		})
	}
}

func TestParseIntHelper(t *testing.T) {
	assert.Equal(t, 5, parseInt("5", 1))
	assert.Equal(t, 1, parseInt("", 1))
	assert.Equal(t, 1, parseInt("abc", 1))
}
