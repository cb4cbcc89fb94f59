package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"blogcloud/internal/repository"
	"blogcloud/internal/service"
)

// TagsHandler 标签云接口（公开展示 + 管理维护）
type TagsHandler struct {
	tags   *service.TagService
	logger *zap.Logger
}

func NewTagsHandler(tags *service.TagService, logger *zap.Logger) *TagsHandler {
	return &TagsHandler{tags: tags, logger: logger}
}

// GetTagCloud 公开标签云（仅激活标签，Redis缓存）
// GET /blog/api/v1/tag-cloud?limit=100
func (h *TagsHandler) GetTagCloud(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 100)

	tags, err := h.tags.ActiveTagCloud(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load tag cloud", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(tags))
}

// ListTags 管理端标签列表
// GET /blog/api/v1/admin/tags?page=1&size=20&category=&source=&is_active=
func (h *TagsHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TagsFilter{
		Category: q.Get("category"),
		Source:   q.Get("source"),
	}
	if v := q.Get("is_active"); v != "" {
		active := v == "true" || v == "1"
		filter.IsActive = &active
	}

	tags, total, err := h.tags.ListTags(r.Context(), filter, parseInt(q.Get("page"), 1), parseInt(q.Get("size"), 20))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": tags,
		"total": total,
	}))
}

// CreateTag 手动创建标签
// POST /blog/api/v1/admin/tags
func (h *TagsHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTagRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	tag, err := h.tags.CreateTag(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(tag))
}

// UpdateTag 更新标签
// PUT /blog/api/v1/admin/tags/{id}
func (h *TagsHandler) UpdateTag(w http.ResponseWriter, r *http.Request, id int64) {
	var req service.UpdateTagRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	tag, err := h.tags.UpdateTag(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(tag))
}

// DeleteTag 删除标签
// DELETE /blog/api/v1/admin/tags/{id}
func (h *TagsHandler) DeleteTag(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.tags.DeleteTag(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}

// ToggleTag 切换激活状态
// POST /blog/api/v1/admin/tags/{id}/toggle
func (h *TagsHandler) ToggleTag(w http.ResponseWriter, r *http.Request, id int64) {
	tag, err := h.tags.ToggleTagActive(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(tag))
}

// GetStats 标签统计
// GET /blog/api/v1/admin/tags/stats
func (h *TagsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tags.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// GetHistory 获取历史
// GET /blog/api/v1/admin/tag-cloud/history?limit=30
func (h *TagsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 30)
	records, err := h.tags.ListHistory(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(records))
}

// Export 导出标签与历史为xlsx
// GET /blog/api/v1/admin/tags/export
func (h *TagsHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.tags.ExportXLSX(r.Context())
	if err != nil {
		h.logger.Error("Failed to export tags", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="tag_cloud.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ServeAdminTag 分发 /admin/tags/{id} 与 /admin/tags/{id}/toggle
func (h *TagsHandler) ServeAdminTag(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, Fail("invalid tag id"))
		return
	}

	if len(parts) == 2 && parts[1] == "toggle" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ToggleTag(w, r, id)
		return
	}
	if len(parts) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.UpdateTag(w, r, id)
	case http.MethodDelete:
		h.DeleteTag(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
