// Package ratelimit 基于 Redis 的固定窗口限流
//
// 用于注册、登录、刷新令牌等凭证接口。Redis 不可用时放行（fail open），
// 限流只是防护层，不能因为缓存故障挡住正常登录。
package ratelimit

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const script = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// Limiter 固定窗口限流器，nil 表示不限流
type Limiter struct {
	client *redis.Client
	script *redis.Script
	limit  int
	window time.Duration
	prefix string
}

// New 创建限流器；client 为 nil 或参数无效时返回 nil
func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	if client == nil || limit <= 0 || window <= 0 {
		return nil
	}
	return &Limiter{
		client: client,
		script: redis.NewScript(script),
		limit:  limit,
		window: window,
		prefix: "jobboard:ratelimit:",
	}
}

// Allow 判断 key 在当前窗口内是否还有配额
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || key == "" {
		return true
	}
	ttl := l.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, ttl, l.limit).Int64()
	if err != nil {
		log.Printf("[ratelimit] redis error, allowing request: %v", err)
		return true
	}
	return allowed == 1
}

// Middleware 按 keyFn 计算的键限流，超限返回 429
//
// 键中包含路由，登录与注册分别计数。
func (l *Limiter) Middleware(keyFn func(*http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	if l == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.Context(), r.URL.Path+"|"+keyFn(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter(l.window))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
			return
		}
		next(w, r)
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
