package repository

import (
	"context"
	"errors"

	"blogcloud/internal/domain"
)

// ErrSettingNotFound 设置项不存在
var ErrSettingNotFound = errors.New("setting not found")

// SettingsRepository 通用键值设置Repository接口
// category "schedule" / "ai" 由标签云管道使用，其余为站点设置
type SettingsRepository interface {
	// Get 读取单个设置值
	Get(ctx context.Context, category, key string) (string, error)

	// GetCategory 读取一个分类下的全部键值
	GetCategory(ctx context.Context, category string) (map[string]string, error)

	// Upsert 写入设置值（不存在则创建）
	Upsert(ctx context.Context, category, key, value, keyType string) error

	// List 列出一个分类下的设置（category为空时列出全部）
	List(ctx context.Context, category string) ([]*domain.SystemSetting, error)

	// ListPublic 列出公开设置（前台无需鉴权可读）
	ListPublic(ctx context.Context) ([]*domain.SystemSetting, error)
}
