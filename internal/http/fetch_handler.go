package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"blogcloud/internal/repository"
	"blogcloud/internal/service"
)

// FetchHandler 标签云获取管道与调度配置接口
type FetchHandler struct {
	tagCloud  *service.TagCloudService
	schedule  *service.ScheduleService
	scheduler *service.SchedulerLoop
	logger    *zap.Logger
}

func NewFetchHandler(
	tagCloud *service.TagCloudService,
	schedule *service.ScheduleService,
	scheduler *service.SchedulerLoop,
	logger *zap.Logger,
) *FetchHandler {
	return &FetchHandler{
		tagCloud:  tagCloud,
		schedule:  schedule,
		scheduler: scheduler,
		logger:    logger,
	}
}

// fetchRequest 手动获取请求体
type fetchRequest struct {
	Keywords []string `json:"keywords"`
	Mode     string   `json:"mode"` // merge|replace，默认replace
}

// applyRequest 直接应用标签请求体
type applyRequest struct {
	Tags []repository.TagEntry `json:"tags"`
	Mode string                `json:"mode"`
}

// RunFetch 阻塞式手动获取
// POST /blog/api/v1/admin/tag-cloud/fetch
// 已有获取在执行时返回409，不排队不重试
func (h *FetchHandler) RunFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	opts := service.RunOptions{
		Keywords: req.Keywords,
		Mode:     req.Mode,
		Source:   "ai_manual",
	}
	if len(opts.Keywords) == 0 {
		cfg, err := h.schedule.Get(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		opts.Keywords = cfg.SearchKeywords
	}

	result, err := h.tagCloud.Run(r.Context(), opts, nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(result))
}

// StreamFetch 流式手动获取（SSE）
// POST /blog/api/v1/admin/tag-cloud/fetch/stream
// 事件帧: data: {"type":"start"|"ai_request"|"ai_response"|...}
func (h *FetchHandler) StreamFetch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, Fail("streaming not supported"))
		return
	}

	var req fetchRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	opts := service.RunOptions{
		Keywords: req.Keywords,
		Mode:     req.Mode,
		Source:   "ai_manual",
	}
	if len(opts.Keywords) == 0 {
		cfg, err := h.schedule.Get(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		opts.Keywords = cfg.SearchKeywords
	}

	events, err := h.tagCloud.RunStream(r.Context(), opts)
	if err != nil {
		// 校验或互斥冲突：流尚未开始，按普通JSON错误返回
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("Failed to encode stream event", zap.Error(err))
			continue
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			// 客户端断开；管道goroutine由ctx取消收尾
			h.logger.Warn("Stream client disconnected", zap.Error(err))
			return
		}
		flusher.Flush()
	}
}

// ApplyTags 直接应用标签条目（不经AI调用）
// POST /blog/api/v1/admin/tag-cloud/apply
func (h *FetchHandler) ApplyTags(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	result, err := h.tagCloud.Apply(r.Context(), req.Tags, req.Mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(result))
}

// GetSchedule 读取调度配置
// GET /blog/api/v1/admin/schedule
func (h *FetchHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.schedule.Resolved(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(cfg))
}

// UpdateSchedule 更新调度节奏
// PUT /blog/api/v1/admin/schedule
func (h *FetchHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateScheduleRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	cfg, err := h.schedule.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(cfg))
}

// UpdateAI 更新关键词与提示词模板
// PUT /blog/api/v1/admin/schedule/ai
func (h *FetchHandler) UpdateAI(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateAIRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	cfg, err := h.schedule.UpdateAI(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(cfg))
}

// GetStatus 调度器与管道运行状态
// GET /blog/api/v1/admin/schedule/status
func (h *FetchHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.schedule.Resolved(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"scheduler_running": h.scheduler.Running(),
		"fetch_running":     h.tagCloud.Running(),
		"next_run_time":     cfg.NextRunTime,
	}))
}
