package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// AIConfig AI提供商配置（OpenAI兼容chat-completions端点）
// 显式强类型字段，加载时校验，拒绝不完整配置
type AIConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Validate 校验AI配置完整性（在启动时调用，而非请求时）
func (c *AIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("ai base_url is required")
	}
	if c.Model == "" {
		return fmt.Errorf("ai model is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("ai api_key is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("ai max_tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("ai temperature must be in [0, 2]")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("ai timeout must be positive")
	}
	return nil
}

// ScheduleDefaults 调度初始配置（仅在settings表无持久化记录时生效）
type ScheduleDefaults struct {
	Frequency string
	Time      string
	Day       string
}

// Config blogcloud（博客后端HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	AI       AIConfig
	Schedule ScheduleDefaults
	// AdminToken 管理端点鉴权token（X-Admin-Token）
	AdminToken string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "blogcloud")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// AI提供商配置
	cfg.AI.BaseURL = getEnv("AI_BASE_URL", "")
	cfg.AI.Model = getEnv("AI_MODEL", "")
	cfg.AI.APIKey = getEnv("AI_API_KEY", "")
	cfg.AI.MaxTokens = parseInt(getEnv("AI_MAX_TOKENS", "2000"), 2000)
	cfg.AI.Temperature = parseFloat(getEnv("AI_TEMPERATURE", "0.7"), 0.7)
	cfg.AI.Timeout = time.Duration(parseInt(getEnv("AI_TIMEOUT_SECONDS", "60"), 60)) * time.Second

	// 调度默认值（首次启动seed到settings表）
	cfg.Schedule.Frequency = getEnv("SCHEDULE_FREQUENCY", "daily")
	cfg.Schedule.Time = getEnv("SCHEDULE_TIME", "02:00")
	cfg.Schedule.Day = getEnv("SCHEDULE_DAY", "monday")

	cfg.AdminToken = getEnv("ADMIN_TOKEN", "")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
