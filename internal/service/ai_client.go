package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"blogcloud/internal/config"
)

// ChatMessage chat-completions消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest chat-completions请求体（OpenAI兼容）
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// ChatResponse 非流式响应
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// streamChunk 流式响应的单个SSE data帧
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// AIClient OpenAI兼容chat-completions客户端
// 不做自动重试：失败即失败，由调用方记录历史后返回
type AIClient struct {
	httpClient *resty.Client
	cfg        config.AIConfig
	logger     *zap.Logger
}

// NewAIClient 创建AI客户端
func NewAIClient(cfg config.AIConfig, logger *zap.Logger) *AIClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+cfg.APIKey)

	return &AIClient{
		httpClient: client,
		cfg:        cfg,
		logger:     logger,
	}
}

func (c *AIClient) buildRequest(prompt string, stream bool) ChatRequest {
	return ChatRequest{
		Model: c.cfg.Model,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Stream:      stream,
	}
}

// Complete 阻塞式补全，返回完整回复文本
func (c *AIClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.logger.Info("Calling AI chat completions",
		zap.String("model", c.cfg.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	var response ChatResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(c.buildRequest(prompt, false)).
		SetResult(&response).
		SetError(&response).
		Post("/chat/completions")

	if err != nil {
		c.logger.Error("AI call failed", zap.Error(err))
		return "", &UpstreamError{Message: err.Error(), Err: err}
	}

	if resp.IsError() {
		msg := resp.Status()
		if response.Error != nil && response.Error.Message != "" {
			msg = response.Error.Message
		}
		c.logger.Error("AI returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("message", msg),
		)
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Message: msg}
	}

	if len(response.Choices) == 0 {
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Message: "response has no choices"}
	}

	content := response.Choices[0].Message.Content
	c.logger.Info("AI call succeeded", zap.Int("content_length", len(content)))
	return content, nil
}

// CompleteStream 流式补全：逐chunk回调onChunk，返回拼接后的完整文本
// SSE帧格式 "data: {...}"，以 "data: [DONE]" 结束
func (c *AIClient) CompleteStream(ctx context.Context, prompt string, onChunk func(delta string)) (string, error) {
	c.logger.Info("Calling AI chat completions (stream)",
		zap.String("model", c.cfg.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(c.buildRequest(prompt, true)).
		SetDoNotParseResponse(true).
		Post("/chat/completions")

	if err != nil {
		c.logger.Error("AI stream call failed", zap.Error(err))
		return "", &UpstreamError{Message: err.Error(), Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Message: resp.Status()}
	}

	var full strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// 单帧解析失败不中断流，按原始文本累积
			c.logger.Warn("Failed to decode stream chunk", zap.Error(err))
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onChunk != nil {
			onChunk(delta)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", &UpstreamError{Message: fmt.Sprintf("stream interrupted: %v", err), Err: err}
	}

	content := full.String()
	c.logger.Info("AI stream completed", zap.Int("content_length", len(content)))
	return content, nil
}
