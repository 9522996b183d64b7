// Package logging 结构化日志
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ContextKey 上下文键类型
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	RoleKey      ContextKey = "role"
)

// Logger 结构化日志器
type Logger struct {
	*slog.Logger
	component string
}

// Config 日志配置
type Config struct {
	Level     string    `json:"level"`
	Format    string    `json:"format"` // json or text
	Output    string    `json:"output"` // stdout, stderr, or file path
	Writer    io.Writer `json:"-"`      // 非空时优先于 Output（测试用）
	Component string    `json:"component"`
}

var (
	defaultsMu     sync.RWMutex
	defaultLevel   string
	defaultFormat  string
	defaultsLoaded bool
)

// SetDefaults 设置 Default 使用的级别和格式（进程启动时由配置调用）
func SetDefaults(level, format string) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultLevel, defaultFormat, defaultsLoaded = level, format, true
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New 创建新的日志器
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	output := cfg.Writer
	if output == nil {
		switch cfg.Output {
		case "stdout", "":
			output = os.Stdout
		case "stderr":
			output = os.Stderr
		default:
			f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				output = os.Stdout
			} else {
				output = f
			}
		}
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		Logger:    slog.New(handler),
		component: cfg.Component,
	}
}

// Default 创建默认日志器
//
// 级别与格式取自 SetDefaults，未设置时读取 LOG_LEVEL / LOG_FORMAT。
func Default(component string) *Logger {
	defaultsMu.RLock()
	level, format, loaded := defaultLevel, defaultFormat, defaultsLoaded
	defaultsMu.RUnlock()
	if !loaded {
		level, format = os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")
	}
	return New(Config{
		Level:     level,
		Format:    format,
		Output:    "stdout",
		Component: component,
	})
}

// Component 日志器所属组件
func (l *Logger) Component() string {
	return l.component
}

// ContextWith 将请求信息写入上下文，WithContext 会读取这些值
func ContextWith(ctx context.Context, key ContextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// WithContext 从上下文提取请求信息
func (l *Logger) WithContext(ctx context.Context) *Logger {
	attrs := []any{slog.String("component", l.component)}

	for _, key := range []ContextKey{RequestIDKey, UserIDKey, RoleKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}

	return &Logger{
		Logger:    l.Logger.With(attrs...),
		component: l.component,
	}
}

// WithError 添加错误信息
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{
		Logger:    l.Logger.With(slog.String("error", err.Error())),
		component: l.component,
	}
}

// WithDuration 添加持续时间
func (l *Logger) WithDuration(d time.Duration) *Logger {
	return &Logger{
		Logger:    l.Logger.With(slog.Float64("duration_ms", float64(d.Milliseconds()))),
		component: l.component,
	}
}

// HTTPRequestLog HTTP 请求日志
func (l *Logger) HTTPRequestLog(method, path string, status int, duration time.Duration, clientIP string) {
	l.Logger.Info("HTTP request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
		slog.String("client_ip", clientIP),
	)
}

// AuditLog 业务事件日志（审核、状态变更、账号启停）
func (l *Logger) AuditLog(action, actorID, targetID string, extra ...any) {
	attrs := []any{
		slog.String("action", action),
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID),
	}
	attrs = append(attrs, extra...)
	l.Logger.Info("Audit event", attrs...)
}
