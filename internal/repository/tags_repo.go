package repository

import (
	"context"
	"time"

	"blogcloud/internal/domain"
)

// TagEntry 解析后的标签条目（管道reconcile的输入）
type TagEntry struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Category string `json:"category"`
}

// TagsFilter 标签查询过滤器
type TagsFilter struct {
	Category string // 可选，按分类过滤
	Source   string // 可选，按来源过滤
	IsActive *bool  // 可选，按激活状态过滤
}

// TagPatch 手动标签更新（nil字段不修改）
// count/category变化时size/color由Repository重新派生
type TagPatch struct {
	Name     *string
	Count    *int
	Category *string
	IsActive *bool
}

// TagStats 标签统计
type TagStats struct {
	TotalTags     int            `json:"total_tags"`
	ActiveTags    int            `json:"active_tags"`
	CategoryStats map[string]int `json:"category_stats"`
	SourceStats   map[string]int `json:"source_stats"`
}

// TagsRepository 标签云Repository接口
// 使用强类型领域模型；Repository层只负责数据访问与size/color派生不变式
type TagsRepository interface {
	// ========== 查询 ==========
	// GetTagByName 按名称精确匹配（区分大小写，name为去重键）
	GetTagByName(ctx context.Context, name string) (*domain.Tag, error)

	// ListTags 查询标签列表（支持分页、过滤），按count降序
	ListTags(ctx context.Context, filter TagsFilter, page, size int) ([]*domain.Tag, int, error)

	// ListActiveTags 获取激活标签（公开标签云展示用），按count降序
	ListActiveTags(ctx context.Context, limit int) ([]*domain.Tag, error)

	// TagStats 标签统计（总数/激活数/按分类/按来源）
	TagStats(ctx context.Context) (*TagStats, error)

	// ========== 手动维护 ==========
	CreateManualTag(ctx context.Context, tag *domain.Tag) (*domain.Tag, error)
	UpdateManualTag(ctx context.Context, id int64, patch TagPatch) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id int64) error
	ToggleTagActive(ctx context.Context, id int64) (*domain.Tag, error)

	// ========== 管道reconcile ==========
	// UpsertMerge 合并模式：按name精确查找，存在则count=max(旧,新)并刷新
	// size/color/source/last_fetched_at，不存在则以source=auto插入。
	// 不删除任何行。返回(新增数, 更新数)。
	UpsertMerge(ctx context.Context, entries []TagEntry, now time.Time) (int, int, error)

	// ReplaceAuto 替换模式：删除所有source=auto/trending的行后逐条插入。
	// manual行永不触碰。返回(新增数, 更新数=0)。
	ReplaceAuto(ctx context.Context, entries []TagEntry, now time.Time) (int, int, error)

	// ========== 获取历史（仅追加）==========
	AppendFetchHistory(ctx context.Context, rec *domain.FetchHistory) error
	ListFetchHistory(ctx context.Context, limit int) ([]*domain.FetchHistory, error)
}
