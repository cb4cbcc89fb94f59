package service

import (
	"encoding/json"
	"strings"

	"blogcloud/internal/repository"
)

// rawTagEntry AI回复中的宽松标签条目（字段缺失时取默认值）
type rawTagEntry struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Category string `json:"category"`
}

const (
	defaultTagCount    = 1
	defaultTagCategory = "general"
)

// ExtractTagEntries 从AI回复文本中提取标签条目
// AI回复常在JSON前后夹杂说明文字或markdown围栏，这里做括号扫描：
// 取首个'['到末个']'的切片；失败则回退首个'{'到末个'}'（{"tags": [...]}包装）。
// name缺失的条目跳过并计数，count/category缺失取默认值。
// 返回(条目, 跳过数, 错误)；完全无法提取时返回*ParseError。
func ExtractTagEntries(reply string) ([]repository.TagEntry, int, error) {
	entries, skipped, ok := extractArray(reply)
	if !ok {
		entries, skipped, ok = extractObject(reply)
	}
	if !ok {
		return nil, 0, &ParseError{
			Message: "no tag JSON found in reply",
			Snippet: snippet(reply),
		}
	}
	if len(entries) == 0 && skipped == 0 {
		return nil, 0, &ParseError{
			Message: "extracted JSON contains no tags",
			Snippet: snippet(reply),
		}
	}

	return entries, skipped, nil
}

func extractArray(reply string) ([]repository.TagEntry, int, bool) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, 0, false
	}

	var raw []rawTagEntry
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, 0, false
	}

	entries, skipped := normalize(raw)
	return entries, skipped, true
}

func extractObject(reply string) ([]repository.TagEntry, int, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, 0, false
	}

	var wrapper struct {
		Tags []rawTagEntry `json:"tags"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &wrapper); err != nil {
		return nil, 0, false
	}
	if wrapper.Tags == nil {
		return nil, 0, false
	}

	entries, skipped := normalize(wrapper.Tags)
	return entries, skipped, true
}

func normalize(raw []rawTagEntry) ([]repository.TagEntry, int) {
	entries := []repository.TagEntry{}
	skipped := 0
	for _, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			skipped++
			continue
		}

		count := r.Count
		if count <= 0 {
			count = defaultTagCount
		}
		category := strings.TrimSpace(r.Category)
		if category == "" {
			category = defaultTagCategory
		}

		entries = append(entries, repository.TagEntry{
			Name:     name,
			Count:    count,
			Category: category,
		})
	}
	return entries, skipped
}

func snippet(s string) string {
	const max = 200
	s = strings.TrimSpace(s)
	if len(s) > max {
		return s[:max]
	}
	return s
}
