package domain

import "time"

// 调度频度
const (
	FrequencyHourly = "hourly"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// ScheduleConfig 调度配置（每个部署一条，持久化在system_setting表）
type ScheduleConfig struct {
	Frequency      string    `json:"frequency"`
	Time           string    `json:"time"` // "HH:MM"（24小时制）
	Day            string    `json:"day"`  // weekly时有效
	SearchKeywords []string  `json:"search_keywords"`
	PromptTemplate string    `json:"prompt_template"`
	NextRunTime    time.Time `json:"next_run_time"`
}

// ValidFrequency 校验频度枚举
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyHourly, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseWeekday 解析星期几名称（小写英文名）
func ParseWeekday(day string) (time.Weekday, bool) {
	d, ok := weekdays[day]
	return d, ok
}
