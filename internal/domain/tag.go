package domain

import "time"

// 标签尺寸（由count派生，见SizeForCount）
const (
	TagSizeSmall  = "small"
	TagSizeMedium = "medium"
	TagSizeLarge  = "large"
)

// 标签来源
const (
	TagSourceManual   = "manual"   // 管理员手动创建
	TagSourceAuto     = "auto"     // 获取管道写入
	TagSourceTrending = "trending" // 热门来源（历史遗留，replace时同样清除）
)

// 获取状态
const (
	FetchStatusSuccess = "success"
	FetchStatusFailed  = "failed"
	FetchStatusPartial = "partial"
)

// Tag 标签云条目
// name在表内唯一（去重键）；size/color始终由count/category重新派生
type Tag struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Count         int        `json:"count"`
	Size          string     `json:"size"`
	Color         string     `json:"color"`
	Category      string     `json:"category"`
	Source        string     `json:"source"`
	IsActive      bool       `json:"is_active"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FetchHistory 获取历史（仅追加，不更新不删除）
// 每次管道执行恰好写入一条，无论成功失败
type FetchHistory struct {
	ID           int64     `json:"id"`
	FetchDate    time.Time `json:"fetch_date"`
	Source       string    `json:"source"`
	TotalTags    int       `json:"total_tags"`
	NewTags      int       `json:"new_tags"`
	UpdatedTags  int       `json:"updated_tags"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SizeForCount 根据使用次数派生标签尺寸
// count < 20 -> small, 20 <= count < 50 -> medium, count >= 50 -> large
func SizeForCount(count int) string {
	switch {
	case count >= 50:
		return TagSizeLarge
	case count >= 20:
		return TagSizeMedium
	default:
		return TagSizeSmall
	}
}

// DefaultTagColor 未知分类的默认颜色
const DefaultTagColor = "#ff6b6b"

var categoryColors = map[string]string{
	"frontend":    "#4fc08d",
	"backend":     "#3776ab",
	"database":    "#4479a1",
	"devops":      "#2496ed",
	"programming": "#f7df1e",
	"tools":       "#f05032",
	"general":     "#ff6b6b",
}

// ColorForCategory 根据分类派生标签颜色（未知分类返回默认色）
func ColorForCategory(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return DefaultTagColor
}

// ValidTagSource 校验来源枚举
func ValidTagSource(source string) bool {
	switch source {
	case TagSourceManual, TagSourceAuto, TagSourceTrending:
		return true
	}
	return false
}
