package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"blogcloud/internal/config"
	"blogcloud/internal/domain"
	"blogcloud/internal/repository"
)

// system_setting键名
const (
	settingCategorySchedule = "schedule"
	settingCategoryAI       = "ai"

	keyScheduleFrequency = "schedule_frequency"
	keyScheduleTime      = "schedule_time"
	keyScheduleDay       = "schedule_day"
	keyNextRunTime       = "next_run_time"

	keySearchKeywords = "search_keywords"
	keyPromptTemplate = "prompt_template"
)

// 关键词与模板的校验上限
const (
	maxKeywords       = 10
	maxKeywordLength  = 50
	maxTemplateLength = 1000
)

// DefaultPromptTemplate 默认标签云提示词（{keywords}处填入关键词列表）
const DefaultPromptTemplate = `Generate a JSON array of trending technology tags related to: {keywords}. ` +
	`Each element must have "name" (string), "count" (integer popularity score) and ` +
	`"category" (one of frontend, backend, database, devops, programming, tools, general). ` +
	`Reply with the JSON array only.`

// DefaultSearchKeywords 默认搜索关键词
var DefaultSearchKeywords = []string{"programming", "web development", "cloud"}

// UpdateScheduleRequest 调度配置更新请求（nil字段不修改）
type UpdateScheduleRequest struct {
	Frequency *string `json:"frequency,omitempty"`
	Time      *string `json:"time,omitempty"`
	Day       *string `json:"day,omitempty"`
}

// UpdateAIRequest AI配置更新请求（nil字段不修改）
type UpdateAIRequest struct {
	SearchKeywords []string `json:"search_keywords,omitempty"`
	PromptTemplate *string  `json:"prompt_template,omitempty"`
}

// ScheduleService 调度配置服务
// 配置持久化在system_setting表（category=schedule/ai），更新串行化
type ScheduleService struct {
	settings repository.SettingsRepository
	defaults config.ScheduleDefaults
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewScheduleService 创建调度配置服务
func NewScheduleService(settings repository.SettingsRepository, defaults config.ScheduleDefaults, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		settings: settings,
		defaults: defaults,
		logger:   logger,
	}
}

// Seed 首次启动时写入默认配置（已有持久化记录则不动）
func (s *ScheduleService) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.settings.GetCategory(ctx, settingCategorySchedule)
	if err != nil {
		return fmt.Errorf("failed to load schedule settings: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	frequency := s.defaults.Frequency
	if !domain.ValidFrequency(frequency) {
		frequency = domain.FrequencyDaily
	}
	timeOfDay := s.defaults.Time
	if _, _, err := parseTimeOfDay(timeOfDay); err != nil {
		timeOfDay = "02:00"
	}
	day := strings.ToLower(s.defaults.Day)
	if _, ok := domain.ParseWeekday(day); !ok {
		day = "monday"
	}

	cfg := &domain.ScheduleConfig{
		Frequency:      frequency,
		Time:           timeOfDay,
		Day:            day,
		SearchKeywords: DefaultSearchKeywords,
		PromptTemplate: DefaultPromptTemplate,
	}
	cfg.NextRunTime = NextRunAfter(cfg, time.Now())

	if err := s.persistSchedule(ctx, cfg); err != nil {
		return err
	}
	if err := s.persistAI(ctx, cfg.SearchKeywords, cfg.PromptTemplate); err != nil {
		return err
	}

	s.logger.Info("Seeded default schedule config",
		zap.String("frequency", cfg.Frequency),
		zap.String("time", cfg.Time),
		zap.Time("next_run_time", cfg.NextRunTime),
	)
	return nil
}

// Get 读取当前调度配置
func (s *ScheduleService) Get(ctx context.Context) (*domain.ScheduleConfig, error) {
	scheduleValues, err := s.settings.GetCategory(ctx, settingCategorySchedule)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule settings: %w", err)
	}
	aiValues, err := s.settings.GetCategory(ctx, settingCategoryAI)
	if err != nil {
		return nil, fmt.Errorf("failed to load ai settings: %w", err)
	}

	cfg := &domain.ScheduleConfig{
		Frequency:      valueOr(scheduleValues, keyScheduleFrequency, domain.FrequencyDaily),
		Time:           valueOr(scheduleValues, keyScheduleTime, "02:00"),
		Day:            valueOr(scheduleValues, keyScheduleDay, "monday"),
		PromptTemplate: valueOr(aiValues, keyPromptTemplate, DefaultPromptTemplate),
	}

	if raw := aiValues[keySearchKeywords]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.SearchKeywords); err != nil {
			s.logger.Warn("Stored search_keywords is not valid JSON, using defaults", zap.Error(err))
			cfg.SearchKeywords = DefaultSearchKeywords
		}
	}
	if len(cfg.SearchKeywords) == 0 {
		cfg.SearchKeywords = DefaultSearchKeywords
	}

	if raw := scheduleValues[keyNextRunTime]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			cfg.NextRunTime = t
		}
	}
	if cfg.NextRunTime.IsZero() {
		cfg.NextRunTime = NextRunAfter(cfg, time.Now())
	}

	return cfg, nil
}

// Resolved 面向接口展示的读取：持久化的next_run_time已落后于当前时刻时
// 按配置重算后返回。不回写，调度tick的到期判定仍依据Get的持久化原值。
func (s *ScheduleService) Resolved(ctx context.Context) (*domain.ScheduleConfig, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if now := time.Now(); !cfg.NextRunTime.After(now) {
		cfg.NextRunTime = NextRunAfter(cfg, now)
	}
	return cfg, nil
}

// Update 更新调度节奏（校验后整体重算next_run_time）
func (s *ScheduleService) Update(ctx context.Context, req UpdateScheduleRequest) (*domain.ScheduleConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.Frequency != nil {
		f := strings.ToLower(strings.TrimSpace(*req.Frequency))
		if !domain.ValidFrequency(f) {
			return nil, NewValidationError("frequency", "must be one of hourly, daily, weekly")
		}
		cfg.Frequency = f
	}
	if req.Time != nil {
		t := strings.TrimSpace(*req.Time)
		if _, _, err := parseTimeOfDay(t); err != nil {
			return nil, NewValidationError("time", "must be HH:MM in 24-hour format")
		}
		cfg.Time = t
	}
	if req.Day != nil {
		d := strings.ToLower(strings.TrimSpace(*req.Day))
		if _, ok := domain.ParseWeekday(d); !ok {
			return nil, NewValidationError("day", "must be a lowercase weekday name")
		}
		cfg.Day = d
	}

	cfg.NextRunTime = NextRunAfter(cfg, time.Now())
	if err := s.persistSchedule(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("Schedule config updated",
		zap.String("frequency", cfg.Frequency),
		zap.String("time", cfg.Time),
		zap.String("day", cfg.Day),
		zap.Time("next_run_time", cfg.NextRunTime),
	)
	return cfg, nil
}

// UpdateAI 更新AI关键词与提示词模板
func (s *ScheduleService) UpdateAI(ctx context.Context, req UpdateAIRequest) (*domain.ScheduleConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.SearchKeywords != nil {
		if err := ValidateKeywords(req.SearchKeywords); err != nil {
			return nil, err
		}
		cfg.SearchKeywords = req.SearchKeywords
	}
	if req.PromptTemplate != nil {
		t := strings.TrimSpace(*req.PromptTemplate)
		if utf8.RuneCountInString(t) > maxTemplateLength {
			return nil, NewValidationError("prompt_template", fmt.Sprintf("must be at most %d characters", maxTemplateLength))
		}
		if t == "" {
			t = DefaultPromptTemplate
		}
		cfg.PromptTemplate = t
	}

	if err := s.persistAI(ctx, cfg.SearchKeywords, cfg.PromptTemplate); err != nil {
		return nil, err
	}

	s.logger.Info("AI config updated", zap.Int("keyword_count", len(cfg.SearchKeywords)))
	return cfg, nil
}

// AdvanceNextRun 一次调度触发后推进next_run_time
func (s *ScheduleService) AdvanceNextRun(ctx context.Context, now time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Get(ctx)
	if err != nil {
		return time.Time{}, err
	}

	next := NextRunAfter(cfg, now)
	if err := s.settings.Upsert(ctx, settingCategorySchedule, keyNextRunTime,
		next.Format(time.RFC3339), domain.SettingTypeString); err != nil {
		return time.Time{}, fmt.Errorf("failed to persist next_run_time: %w", err)
	}
	return next, nil
}

// ValidateKeywords 校验关键词列表（≤10个，每个≤50字符，不可为空白）
func ValidateKeywords(keywords []string) error {
	if len(keywords) == 0 {
		return NewValidationError("search_keywords", "at least one keyword is required")
	}
	if len(keywords) > maxKeywords {
		return NewValidationError("search_keywords", fmt.Sprintf("at most %d keywords allowed", maxKeywords))
	}
	for _, kw := range keywords {
		trimmed := strings.TrimSpace(kw)
		if trimmed == "" {
			return NewValidationError("search_keywords", "keywords must not be blank")
		}
		// 上限按字符数计，CJK等多字节关键词不吃亏
		if utf8.RuneCountInString(trimmed) > maxKeywordLength {
			return NewValidationError("search_keywords", fmt.Sprintf("each keyword must be at most %d characters", maxKeywordLength))
		}
	}
	return nil
}

// NextRunAfter 纯函数：给定配置与当前时刻，计算下一次运行时刻
//   - hourly: 下一个整点的配置分钟；当前时刻已过本小时该分钟则进位到下小时
//   - daily: 今天的HH:MM，已过则明天
//   - weekly: 配置星期的HH:MM；今天就是该星期时一律推到下周
func NextRunAfter(cfg *domain.ScheduleConfig, now time.Time) time.Time {
	hour, minute, err := parseTimeOfDay(cfg.Time)
	if err != nil {
		hour, minute = 2, 0
	}

	switch cfg.Frequency {
	case domain.FrequencyHourly:
		next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(time.Hour)
		}
		return next

	case domain.FrequencyWeekly:
		day, ok := domain.ParseWeekday(cfg.Day)
		if !ok {
			day = time.Monday
		}
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		offset := (int(day) - int(now.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		return next.AddDate(0, 0, offset)

	default: // daily
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}

func (s *ScheduleService) persistSchedule(ctx context.Context, cfg *domain.ScheduleConfig) error {
	pairs := map[string]string{
		keyScheduleFrequency: cfg.Frequency,
		keyScheduleTime:      cfg.Time,
		keyScheduleDay:       cfg.Day,
		keyNextRunTime:       cfg.NextRunTime.Format(time.RFC3339),
	}
	for key, value := range pairs {
		if err := s.settings.Upsert(ctx, settingCategorySchedule, key, value, domain.SettingTypeString); err != nil {
			return fmt.Errorf("failed to persist %s: %w", key, err)
		}
	}
	return nil
}

func (s *ScheduleService) persistAI(ctx context.Context, keywords []string, template string) error {
	raw, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}
	if err := s.settings.Upsert(ctx, settingCategoryAI, keySearchKeywords, string(raw), domain.SettingTypeJSON); err != nil {
		return fmt.Errorf("failed to persist search_keywords: %w", err)
	}
	if err := s.settings.Upsert(ctx, settingCategoryAI, keyPromptTemplate, template, domain.SettingTypeString); err != nil {
		return fmt.Errorf("failed to persist prompt_template: %w", err)
	}
	return nil
}

// parseTimeOfDay 解析"HH:MM"（24小时制）
func parseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func valueOr(values map[string]string, key, def string) string {
	if v := values[key]; v != "" {
		return v
	}
	return def
}
