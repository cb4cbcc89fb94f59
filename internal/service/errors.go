package service

import (
	"errors"
	"fmt"
)

// ErrFetchInProgress 已有获取在执行（互斥锁占用，不排队不重试）
var ErrFetchInProgress = errors.New("a fetch run is already in progress")

// ValidationError 输入校验失败（调用方错误，不会产生外呼）
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// NewValidationError 创建校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError AI提供商调用失败（网络错误或非2xx响应）
type UpstreamError struct {
	StatusCode int // 0表示未收到HTTP响应
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error: status %d: %s", e.StatusCode, e.Message)
	}
	return "upstream error: " + e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ParseError AI回复中无法提取出有效标签JSON
type ParseError struct {
	Message string
	Snippet string // 原始回复片段，便于排查
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Message
}

// PartialError 部分条目被跳过但其余已入库
type PartialError struct {
	Applied int
	Skipped int
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partial result: %d entries applied, %d skipped", e.Applied, e.Skipped)
}

// IsValidationError 判断是否为校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
