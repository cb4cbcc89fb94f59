package domain

import "time"

// 设置值类型
const (
	SettingTypeString  = "string"
	SettingTypeNumber  = "number"
	SettingTypeBoolean = "boolean"
	SettingTypeJSON    = "json"
	SettingTypeURL     = "url"
)

// SystemSetting 通用键值设置（按category分组）
// category "schedule" / "ai" 由标签云管道独占，其余供站点设置使用
type SystemSetting struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	KeyName     string    `json:"key_name"`
	KeyValue    *string   `json:"key_value,omitempty"`
	KeyType     string    `json:"key_type"`
	Description *string   `json:"description,omitempty"`
	IsEditable  bool      `json:"is_editable"`
	IsPublic    bool      `json:"is_public"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
