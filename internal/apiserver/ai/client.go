// Package ai 生成式 AI 辅助：聊天、职位描述生成、简历建议、匹配分
//
// 上游为 Gemini（langchaingo googleai 模型）。上游失败不向调用方报错，
// 而是返回固定的降级文本。
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotConfigured 未配置 API Key
var ErrNotConfigured = errors.New("gemini api key not configured")

// ErrEmptyResponse 上游拒绝请求或没有候选文本
var ErrEmptyResponse = errors.New("gemini returned no content")

// ClientConfig Gemini 客户端配置
type ClientConfig struct {
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Client Gemini 客户端
type Client struct {
	model   llms.Model
	apiKey  string
	timeout time.Duration
}

// NewClient 创建 googleai 模型，Timeout 为 0 时使用 30s
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newClient(model, cfg.APIKey, cfg.Timeout), nil
}

func newClient(model llms.Model, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{model: model, apiKey: apiKey, timeout: timeout}
}

// Generate 发送单轮提示词并返回第一个候选文本
//
// 上游返回状态码（限流、鉴权失败等）或空内容时返回 ErrEmptyResponse；
// 网络错误与超时原样返回（去掉 API Key）。
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		if rejected(err) {
			return "", fmt.Errorf("%w: %s", ErrEmptyResponse, redactKey(err, c.apiKey))
		}
		return "", redactKey(err, c.apiKey)
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

// rejected 上游已应答但拒绝或无内容
func rejected(err error) bool {
	if errors.Is(err, googleai.ErrNoContentInResponse) {
		return true
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.Unknown:
		return false
	}
	return true
}

// redactKey 错误信息里可能带上完整请求地址，去掉其中的 key
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "***"))
}
