package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fakeModel 替代 googleai 模型
type fakeModel struct {
	resp        *llms.ContentResponse
	err         error
	block       bool
	prompt      string
	role        llms.ChatMessageType
	hasDeadline bool
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	_, m.hasDeadline = ctx.Deadline()
	if len(messages) > 0 {
		m.role = messages[0].Role
		if len(messages[0].Parts) > 0 {
			if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
				m.prompt = tc.Text
			}
		}
	}
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.resp, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func answer(text string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}
}

func TestClientGenerate(t *testing.T) {
	m := &fakeModel{resp: answer("hello there")}
	c := newClient(m, "k1", 0)

	text, err := c.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	assert.Equal(t, "hi", m.prompt)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.role)
	assert.True(t, m.hasDeadline)
	assert.Equal(t, 30*time.Second, c.timeout)
}

func TestClientFailures(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
		empty bool
	}{
		{"限流", &fakeModel{err: status.Error(codes.ResourceExhausted, "quota exceeded")}, true},
		{"鉴权失败", &fakeModel{err: status.Error(codes.PermissionDenied, "bad key")}, true},
		{"无内容", &fakeModel{err: googleai.ErrNoContentInResponse}, true},
		{"无候选", &fakeModel{resp: &llms.ContentResponse{}}, true},
		{"空文本", &fakeModel{resp: answer("  ")}, true},
		{"网络不可达", &fakeModel{err: status.Error(codes.Unavailable, "connection refused")}, false},
		{"其他错误", &fakeModel{err: errors.New("dial tcp: lookup failed")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newClient(tt.model, "k", time.Second).Generate(context.Background(), "hi")
			require.Error(t, err)
			if tt.empty {
				assert.ErrorIs(t, err, ErrEmptyResponse)
			} else {
				assert.NotErrorIs(t, err, ErrEmptyResponse)
			}
		})
	}
}

func TestClientTimeout(t *testing.T) {
	c := newClient(&fakeModel{block: true}, "k", 20*time.Millisecond)
	_, err := c.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrEmptyResponse)
}

func TestClientErrorHidesKey(t *testing.T) {
	m := &fakeModel{err: errors.New(`Post "https://example/v1?key=secret-key": connection reset`)}
	_, err := newClient(m, "secret-key", time.Second).Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "secret-key"))
}

func TestNewClientWithoutKey(t *testing.T) {
	_, err := NewClient(context.Background(), ClientConfig{Model: "gemini-2.5-flash"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
