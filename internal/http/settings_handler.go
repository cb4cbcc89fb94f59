package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"blogcloud/internal/repository"
)

// SettingsHandler 站点设置接口
type SettingsHandler struct {
	settings repository.SettingsRepository
	logger   *zap.Logger
}

func NewSettingsHandler(settings repository.SettingsRepository, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

type upsertSettingRequest struct {
	Category string `json:"category"`
	KeyName  string `json:"key_name"`
	KeyValue string `json:"key_value"`
	KeyType  string `json:"key_type"`
}

// ListPublic 公开设置（前台无需鉴权）
// GET /blog/api/v1/settings/public
func (h *SettingsHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.ListPublic(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(settings))
}

// List 管理端设置列表
// GET /blog/api/v1/admin/settings?category=
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(settings))
}

// Upsert 写入设置
// PUT /blog/api/v1/admin/settings
func (h *SettingsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertSettingRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.KeyName) == "" {
		writeJSON(w, http.StatusBadRequest, Fail("category and key_name are required"))
		return
	}

	if err := h.settings.Upsert(r.Context(), req.Category, req.KeyName, req.KeyValue, req.KeyType); err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.Info("Setting updated",
		zap.String("category", req.Category),
		zap.String("key", req.KeyName),
	)
	writeJSON(w, http.StatusOK, Ok(map[string]any{"updated": true}))
}
