package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAdminAuth_ValidToken(t *testing.T) {
	called := false
	handler := AdminAuth("secret", zap.NewNop(), func(w http.ResponseWriter, r *http.Request) {
		called = true
		writeJSON(w, http.StatusOK, Ok("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/blog/api/v1/admin/tags", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuth_InvalidToken(t *testing.T) {
	handler := AdminAuth("secret", zap.NewNop(), func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/blog/api/v1/admin/tags", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid admin token")
}

func TestAdminAuth_MissingToken(t *testing.T) {
	handler := AdminAuth("secret", zap.NewNop(), func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/blog/api/v1/admin/tags", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuth_NoTokenConfigured(t *testing.T) {
	// 未配置token：管理面整体关闭
	handler := AdminAuth("", zap.NewNop(), func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/blog/api/v1/admin/tags", nil)
	req.Header.Set("X-Admin-Token", "")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
