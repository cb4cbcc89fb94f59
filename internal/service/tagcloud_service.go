package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blogcloud/internal/domain"
	"blogcloud/internal/repository"
	"blogcloud/internal/store"
)

// 流式事件类型（固定顺序：start → ai_request → ai_response* → parse_start →
// parse_success|parse_error → complete；任何阶段失败以error终止）
const (
	EventStart        = "start"
	EventAIRequest    = "ai_request"
	EventAIResponse   = "ai_response"
	EventParseStart   = "parse_start"
	EventParseSuccess = "parse_success"
	EventParseError   = "parse_error"
	EventComplete     = "complete"
	EventError        = "error"
)

// reconcile模式
const (
	ModeMerge   = "merge"
	ModeReplace = "replace"
)

// 激活标签云缓存键（公开接口读路径）
const activeTagCloudCacheKey = "blogcloud:tagcloud:active"

// StreamEvent 获取管道的流式进度事件
type StreamEvent struct {
	Type    string       `json:"type"`
	RunID   string       `json:"run_id,omitempty"`
	Message string       `json:"message,omitempty"`
	Chunk   string       `json:"chunk,omitempty"`
	Result  *FetchResult `json:"result,omitempty"`
}

// FetchResult 一次获取的统计结果
type FetchResult struct {
	RunID       string    `json:"run_id"`
	FetchDate   time.Time `json:"fetch_date"`
	Source      string    `json:"source"`
	Mode        string    `json:"mode"`
	TotalTags   int       `json:"total_tags"`
	NewTags     int       `json:"new_tags"`
	UpdatedTags int       `json:"updated_tags"`
	SkippedTags int       `json:"skipped_tags"`
	Status      string    `json:"status"`
}

// RunOptions 一次获取的参数
type RunOptions struct {
	Keywords []string
	Template string // 为空时使用持久化模板
	Mode     string // merge|replace，默认replace
	Source   string // 写入历史的来源标识
}

// TagCloudService AI标签云获取管道
// 同一时刻仅允许一次获取在执行（互斥，不排队）；
// 每次执行（无论成败）恰好写入一条fetch history。
type TagCloudService struct {
	tags     repository.TagsRepository
	ai       *AIClient
	schedule *ScheduleService
	cache    store.KV
	logger   *zap.Logger
	running  int32
}

// NewTagCloudService 创建标签云服务
func NewTagCloudService(
	tags repository.TagsRepository,
	ai *AIClient,
	schedule *ScheduleService,
	cache store.KV,
	logger *zap.Logger,
) *TagCloudService {
	return &TagCloudService{
		tags:     tags,
		ai:       ai,
		schedule: schedule,
		cache:    cache,
		logger:   logger,
	}
}

// tryAcquire 获取运行互斥锁（失败返回false，不等待）
func (s *TagCloudService) tryAcquire() bool {
	return atomic.CompareAndSwapInt32(&s.running, 0, 1)
}

func (s *TagCloudService) release() {
	atomic.StoreInt32(&s.running, 0)
}

// Running 当前是否有获取在执行
func (s *TagCloudService) Running() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// RunScheduled 调度触发的获取：使用持久化的关键词与模板，merge模式
func (s *TagCloudService) RunScheduled(ctx context.Context) (*FetchResult, error) {
	cfg, err := s.schedule.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, RunOptions{
		Keywords: cfg.SearchKeywords,
		Template: cfg.PromptTemplate,
		Mode:     ModeMerge,
		Source:   "ai_scheduled",
	}, nil)
}

// Run 阻塞式获取。onEvent为nil时不产生进度事件。
// 校验在取锁前完成：校验失败不占锁、不外呼、不写历史。
func (s *TagCloudService) Run(ctx context.Context, opts RunOptions, onEvent func(StreamEvent)) (*FetchResult, error) {
	opts, err := s.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	if !s.tryAcquire() {
		return nil, ErrFetchInProgress
	}
	defer s.release()

	return s.execute(ctx, opts, onEvent, false)
}

// RunStream 流式获取：返回事件通道，执行在独立goroutine完成，通道关闭即结束。
// 事件顺序固定；AI回复逐chunk以ai_response事件转发。
func (s *TagCloudService) RunStream(ctx context.Context, opts RunOptions) (<-chan StreamEvent, error) {
	opts, err := s.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	if !s.tryAcquire() {
		return nil, ErrFetchInProgress
	}

	events := make(chan StreamEvent, 16)
	go func() {
		defer s.release()
		defer close(events)

		emit := func(ev StreamEvent) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		if _, err := s.execute(ctx, opts, emit, true); err != nil {
			emit(StreamEvent{Type: EventError, Message: err.Error()})
		}
	}()

	return events, nil
}

// Apply 直接应用标签条目（不经AI调用），同样写入一条历史
func (s *TagCloudService) Apply(ctx context.Context, entries []repository.TagEntry, mode string) (*FetchResult, error) {
	mode, err := normalizeMode(mode)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, NewValidationError("tags", "at least one tag entry is required")
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, NewValidationError("tags", "tag name must not be blank")
		}
	}

	if !s.tryAcquire() {
		return nil, ErrFetchInProgress
	}
	defer s.release()

	now := time.Now().UTC()
	result := &FetchResult{RunID: uuid.NewString(), FetchDate: now, Source: "manual_apply", Mode: mode}

	created, updated, err := s.reconcile(ctx, entries, mode, now)
	if err != nil {
		s.recordHistory(ctx, result, domain.FetchStatusFailed, err.Error())
		return nil, err
	}

	result.TotalTags = len(entries)
	result.NewTags = created
	result.UpdatedTags = updated
	result.Status = domain.FetchStatusSuccess
	s.recordHistory(ctx, result, domain.FetchStatusSuccess, "")
	s.invalidateCache(ctx)

	return result, nil
}

// prepare 校验并补全运行参数（取锁前调用）
func (s *TagCloudService) prepare(ctx context.Context, opts RunOptions) (RunOptions, error) {
	if err := ValidateKeywords(opts.Keywords); err != nil {
		return opts, err
	}

	mode, err := normalizeMode(opts.Mode)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode

	if opts.Template == "" {
		cfg, err := s.schedule.Get(ctx)
		if err != nil {
			return opts, err
		}
		opts.Template = cfg.PromptTemplate
	}
	if opts.Source == "" {
		opts.Source = "ai_manual"
	}

	return opts, nil
}

// execute 管道主体。锁必须已持有。
// 从这里开始无论成败都写一条历史。
func (s *TagCloudService) execute(ctx context.Context, opts RunOptions, onEvent func(StreamEvent), streamAI bool) (*FetchResult, error) {
	emit := func(ev StreamEvent) {
		if onEvent != nil {
			onEvent(ev)
		}
	}

	runID := uuid.NewString()
	now := time.Now().UTC()
	result := &FetchResult{RunID: runID, FetchDate: now, Source: opts.Source, Mode: opts.Mode}
	prompt := buildPrompt(opts.Template, opts.Keywords)

	s.logger.Info("Tag fetch started",
		zap.String("run_id", runID),
		zap.String("source", opts.Source),
		zap.String("mode", opts.Mode),
		zap.Strings("keywords", opts.Keywords),
	)
	emit(StreamEvent{Type: EventStart, RunID: runID, Message: "tag fetch started"})
	emit(StreamEvent{Type: EventAIRequest, Message: "calling AI provider"})

	var reply string
	var err error
	if streamAI {
		reply, err = s.ai.CompleteStream(ctx, prompt, func(delta string) {
			emit(StreamEvent{Type: EventAIResponse, Chunk: delta})
		})
	} else {
		reply, err = s.ai.Complete(ctx, prompt)
	}
	if err != nil {
		s.recordHistory(ctx, result, domain.FetchStatusFailed, err.Error())
		return nil, err
	}

	emit(StreamEvent{Type: EventParseStart, Message: "parsing AI reply"})

	entries, skipped, err := ExtractTagEntries(reply)
	if err != nil {
		s.recordHistory(ctx, result, domain.FetchStatusFailed, err.Error())
		emit(StreamEvent{Type: EventParseError, Message: err.Error()})
		return nil, err
	}
	result.SkippedTags = skipped
	emit(StreamEvent{Type: EventParseSuccess,
		Message: fmt.Sprintf("parsed %d tags, skipped %d", len(entries), skipped)})

	created, updated, err := s.reconcile(ctx, entries, opts.Mode, now)
	if err != nil {
		s.recordHistory(ctx, result, domain.FetchStatusFailed, err.Error())
		return nil, err
	}

	result.TotalTags = len(entries)
	result.NewTags = created
	result.UpdatedTags = updated

	status := domain.FetchStatusSuccess
	errMsg := ""
	if skipped > 0 {
		status = domain.FetchStatusPartial
		errMsg = (&PartialError{Applied: len(entries), Skipped: skipped}).Error()
	}
	result.Status = status
	s.recordHistory(ctx, result, status, errMsg)
	s.invalidateCache(ctx)

	s.logger.Info("Tag fetch completed",
		zap.String("status", status),
		zap.Int("total", result.TotalTags),
		zap.Int("new", created),
		zap.Int("updated", updated),
		zap.Int("skipped", skipped),
	)
	emit(StreamEvent{Type: EventComplete, Result: result})

	return result, nil
}

func (s *TagCloudService) reconcile(ctx context.Context, entries []repository.TagEntry, mode string, now time.Time) (int, int, error) {
	if mode == ModeReplace {
		return s.tags.ReplaceAuto(ctx, entries, now)
	}
	return s.tags.UpsertMerge(ctx, entries, now)
}

// recordHistory 写入历史（尽力而为：历史写入失败只记日志，不覆盖主错误）
// 不随调用方取消：客户端中途断开的运行同样要留痕
func (s *TagCloudService) recordHistory(ctx context.Context, result *FetchResult, status, errMsg string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	rec := &domain.FetchHistory{
		FetchDate:   result.FetchDate,
		Source:      result.Source,
		TotalTags:   result.TotalTags,
		NewTags:     result.NewTags,
		UpdatedTags: result.UpdatedTags,
		Status:      status,
	}
	if errMsg != "" {
		rec.ErrorMessage = &errMsg
	}
	if err := s.tags.AppendFetchHistory(ctx, rec); err != nil {
		s.logger.Error("Failed to append fetch history", zap.Error(err))
	}
}

func (s *TagCloudService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, activeTagCloudCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate tag cloud cache", zap.Error(err))
	}
}

// normalizeMode 模式归一化。空值默认replace：关键词搜索与直接应用都是
// "以本次结果为准"的流程；调度触发在RunScheduled里显式传merge。
func normalizeMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeMerge:
		return ModeMerge, nil
	}
	return "", NewValidationError("mode", "must be merge or replace")
}

// keywordsPlaceholder 提示词模板中的关键词占位符
const keywordsPlaceholder = "{keywords}"

// buildPrompt 组装提示词：模板含{keywords}时原位替换，否则追加关键词行。
// 纯文本替换，模板中的%等字面字符不受影响。
func buildPrompt(template string, keywords []string) string {
	joined := strings.Join(keywords, ", ")
	if strings.Contains(template, keywordsPlaceholder) {
		return strings.ReplaceAll(template, keywordsPlaceholder, joined)
	}
	return template + "\n\nKeywords: " + joined
}
