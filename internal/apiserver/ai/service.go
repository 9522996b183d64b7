package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/matching"
	"jobboard/internal/apiserver/metrics"
	"jobboard/internal/shared/apperr"
	"jobboard/pkg/logging"
)

// 降级文本
const (
	PlaceholderResponse = "AI Assistance is currently in preview mode. (Please configure GEMINI_API_KEY to enable full AI features). \n\n" +
		"Placeholder Response: Based on your input, I recommend highlighting your Java and Spring Boot experience to better match the Senior Developer role."
	UnavailableResponse = "I'm sorry, I couldn't process that request right now."
	errorResponsePrefix = "Error calling Gemini AI: "
)

// Generator 文本生成
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service AI 辅助服务
type Service struct {
	gen      Generator
	matcher  *matching.Service
	resolver *access.Resolver
	log      *logging.Logger
	metrics  *metrics.Metrics
}

// NewService 创建 AI 服务，gen 为 nil 时所有生成接口返回占位文本
func NewService(gen Generator, matcher *matching.Service, profiles access.ProfileLookup, m *metrics.Metrics) *Service {
	return &Service{
		gen:      gen,
		matcher:  matcher,
		resolver: access.NewResolver(profiles),
		log:      logging.Default("ai"),
		metrics:  m,
	}
}

// ask 调用上游；任何失败都转成降级文本，不返回错误
func (s *Service) ask(ctx context.Context, feature, prompt string) string {
	start := time.Now()
	text, err := "", ErrNotConfigured
	if s.gen != nil {
		text, err = s.gen.Generate(ctx, prompt)
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConfigured):
		outcome, text = "placeholder", PlaceholderResponse
	case errors.Is(err, ErrEmptyResponse):
		outcome, text = "empty", UnavailableResponse
		s.log.WithContext(ctx).WithError(err).Warn("gemini returned no usable content", "feature", feature)
	default:
		outcome, text = "error", errorResponsePrefix+err.Error()
		s.log.WithContext(ctx).WithError(err).Warn("gemini call failed", "feature", feature)
	}
	s.metrics.RecordAICall(feature, outcome, time.Since(start))
	return text
}

// Chat 职业助手聊天
func (s *Service) Chat(ctx context.Context, p *access.Principal, message string) (string, error) {
	if p == nil {
		return "", apperr.Unauthenticated("authentication required")
	}
	if strings.TrimSpace(message) == "" {
		return "", apperr.Validation("message is required")
	}
	return s.ask(ctx, "chat", ChatPrompt(message)), nil
}

// OptimizeJob 生成职位描述
func (s *Service) OptimizeJob(ctx context.Context, p *access.Principal, title, industry string) (string, error) {
	if p == nil {
		return "", apperr.Unauthenticated("authentication required")
	}
	if strings.TrimSpace(title) == "" {
		return "", apperr.Validation("title is required")
	}
	return s.ask(ctx, "optimize_job", JobDescriptionPrompt(title, industry)), nil
}

// AnalyzeMyCV 根据当前求职者资料给出改进建议
func (s *Service) AnalyzeMyCV(ctx context.Context, p *access.Principal) (string, error) {
	seeker, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return "", err
	}
	js := seeker.Profile
	var b strings.Builder
	for _, f := range []struct{ label, value string }{
		{"Headline", js.Headline},
		{"Skills", js.Skills},
		{"Experience", js.Experience},
		{"Education", js.Education},
	} {
		if v := strings.TrimSpace(f.value); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", f.label, v)
		}
	}
	if b.Len() == 0 {
		return "", apperr.Validation("complete your profile before requesting cv feedback")
	}
	return s.ask(ctx, "analyze_cv", AnalyzeCVPrompt(b.String())), nil
}

// MatchScore 当前求职者与职位的匹配分
func (s *Service) MatchScore(ctx context.Context, p *access.Principal, jobID string) (*matching.Result, error) {
	return s.matcher.MatchScore(ctx, p, jobID)
}

// ChatPrompt 聊天提示词
func ChatPrompt(message string) string {
	return "You are a helpful AI Career Assistant for a Job Portal system. " +
		"Help the user with their question: '" + message + "'. " +
		"Keep the response concise, encouraging, and professional. " +
		"Mention that they can find jobs, update their profile, or post jobs depending on whether they are a seeker or employer."
}

// JobDescriptionPrompt 职位描述提示词
func JobDescriptionPrompt(title, industry string) string {
	return "Generate a professional and detailed job description for a '" + title + "' role in the '" + industry + "' industry. " +
		"Include sections for Responsibilities, Requirements (skills/experience), and Benefits. Format it in a clear way."
}

// AnalyzeCVPrompt 简历分析提示词
func AnalyzeCVPrompt(cvText string) string {
	return "Analyze the following CV/Profile text and provide 3-5 specific suggestions for improvement. " +
		"Focus on keyword optimization for job search, highlighting key achievements, and identifying any skill gaps based on modern market trends." +
		"\n\nCV Text:\n" + cvText
}
