package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"blogcloud/internal/domain"
	"blogcloud/internal/repository"
	"blogcloud/internal/store"
)

// activeTagCloudCacheTTL 公开标签云缓存时长
const activeTagCloudCacheTTL = 5 * time.Minute

const maxTagNameLength = 50

// CreateTagRequest 手动创建标签请求
type CreateTagRequest struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Category string `json:"category"`
}

// UpdateTagRequest 手动更新标签请求（nil字段不修改）
type UpdateTagRequest struct {
	Name     *string `json:"name,omitempty"`
	Count    *int    `json:"count,omitempty"`
	Category *string `json:"category,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// TagService 标签维护服务（手动CRUD、公开标签云、统计、导出）
type TagService struct {
	tags   repository.TagsRepository
	cache  store.KV
	logger *zap.Logger
}

// NewTagService 创建标签服务
func NewTagService(tags repository.TagsRepository, cache store.KV, logger *zap.Logger) *TagService {
	return &TagService{tags: tags, cache: cache, logger: logger}
}

// ActiveTagCloud 公开标签云（Redis缓存优先，miss时回源并回填）
func (s *TagService) ActiveTagCloud(ctx context.Context, limit int) ([]*domain.Tag, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, activeTagCloudCacheKey); err == nil {
			var tags []*domain.Tag
			if err := json.Unmarshal([]byte(cached), &tags); err == nil {
				if len(tags) > limit {
					tags = tags[:limit]
				}
				return tags, nil
			}
			s.logger.Warn("Cached tag cloud is corrupt, falling back to database", zap.Error(err))
		} else if err != store.ErrMiss {
			s.logger.Warn("Tag cloud cache read failed", zap.Error(err))
		}
	}

	tags, err := s.tags.ListActiveTags(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(tags); err == nil {
			if err := s.cache.Set(ctx, activeTagCloudCacheKey, string(raw), activeTagCloudCacheTTL); err != nil {
				s.logger.Warn("Tag cloud cache write failed", zap.Error(err))
			}
		}
	}

	return tags, nil
}

// ListTags 管理端标签列表（分页+过滤）
func (s *TagService) ListTags(ctx context.Context, filter repository.TagsFilter, page, size int) ([]*domain.Tag, int, error) {
	return s.tags.ListTags(ctx, filter, page, size)
}

// CreateTag 手动创建标签
func (s *TagService) CreateTag(ctx context.Context, req CreateTagRequest) (*domain.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if len(name) > maxTagNameLength {
		return nil, NewValidationError("name", fmt.Sprintf("name must be at most %d characters", maxTagNameLength))
	}
	if req.Count < 0 {
		return nil, NewValidationError("count", "count must not be negative")
	}

	if existing, err := s.tags.GetTagByName(ctx, name); err == nil && existing != nil {
		return nil, NewValidationError("name", "a tag with this name already exists")
	}

	count := req.Count
	if count == 0 {
		count = 1
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = defaultTagCategory
	}

	tag, err := s.tags.CreateManualTag(ctx, &domain.Tag{
		Name:     name,
		Count:    count,
		Category: category,
		IsActive: true,
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	s.logger.Info("Manual tag created", zap.Int64("id", tag.ID), zap.String("name", tag.Name))
	return tag, nil
}

// UpdateTag 手动更新标签
func (s *TagService) UpdateTag(ctx context.Context, id int64, req UpdateTagRequest) (*domain.Tag, error) {
	patch := repository.TagPatch{
		Count:    req.Count,
		IsActive: req.IsActive,
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewValidationError("name", "name must not be blank")
		}
		if len(name) > maxTagNameLength {
			return nil, NewValidationError("name", fmt.Sprintf("name must be at most %d characters", maxTagNameLength))
		}
		patch.Name = &name
	}
	if req.Count != nil && *req.Count < 0 {
		return nil, NewValidationError("count", "count must not be negative")
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return nil, NewValidationError("category", "category must not be blank")
		}
		patch.Category = &category
	}

	tag, err := s.tags.UpdateManualTag(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return tag, nil
}

// DeleteTag 删除标签
func (s *TagService) DeleteTag(ctx context.Context, id int64) error {
	if err := s.tags.DeleteTag(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// ToggleTagActive 切换标签激活状态
func (s *TagService) ToggleTagActive(ctx context.Context, id int64) (*domain.Tag, error) {
	tag, err := s.tags.ToggleTagActive(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return tag, nil
}

// Stats 标签统计
func (s *TagService) Stats(ctx context.Context) (*repository.TagStats, error) {
	return s.tags.TagStats(ctx)
}

// ListHistory 获取历史列表
func (s *TagService) ListHistory(ctx context.Context, limit int) ([]*domain.FetchHistory, error) {
	return s.tags.ListFetchHistory(ctx, limit)
}

// ExportXLSX 导出标签与获取历史为xlsx
func (s *TagService) ExportXLSX(ctx context.Context) ([]byte, error) {
	tags, _, err := s.tags.ListTags(ctx, repository.TagsFilter{}, 1, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags for export: %w", err)
	}
	history, err := s.tags.ListFetchHistory(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const tagSheet = "Tags"
	f.SetSheetName("Sheet1", tagSheet)

	tagHeaders := []string{"ID", "Name", "Count", "Size", "Color", "Category", "Source", "Active", "Updated At"}
	for i, h := range tagHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(tagSheet, cell, h)
	}
	for row, tag := range tags {
		values := []any{
			tag.ID, tag.Name, tag.Count, tag.Size, tag.Color,
			tag.Category, tag.Source, tag.IsActive,
			tag.UpdatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(tagSheet, cell, v)
		}
	}

	const historySheet = "Fetch History"
	f.NewSheet(historySheet)
	historyHeaders := []string{"ID", "Fetch Date", "Source", "Total", "New", "Updated", "Status", "Error"}
	for i, h := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(historySheet, cell, h)
	}
	for row, rec := range history {
		errMsg := ""
		if rec.ErrorMessage != nil {
			errMsg = *rec.ErrorMessage
		}
		values := []any{
			rec.ID, rec.FetchDate.Format(time.RFC3339), rec.Source,
			rec.TotalTags, rec.NewTags, rec.UpdatedTags, rec.Status, errMsg,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(historySheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *TagService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, activeTagCloudCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate tag cloud cache", zap.Error(err))
	}
}
