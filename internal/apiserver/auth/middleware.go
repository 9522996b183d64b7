package auth

import (
	"net/http"
	"strings"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/shared/apperr"
)

// 免认证路由（前缀匹配）
var publicPrefixes = []string{
	"/health",
	"/metrics",
}

// 免认证路由（精确匹配）
var publicExact = map[string]bool{
	"POST /api/v1/auth/register":   true,
	"POST /api/v1/auth/login":      true,
	"POST /api/v1/auth/refresh":    true,
	"GET /api/v1/auth/check-email": true,
	"GET /api/v1/jobs/public":      true,
	"GET /api/v1/jobs/search":      true,
}

// GET /api/v1/jobs/{id} 中不是 ID 的段
var jobsReservedSegments = map[string]bool{
	"my-jobs": true,
	"admin":   true,
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if publicExact[method+" "+path] {
		return true
	}
	// 职位详情：GET /api/v1/jobs/{id}
	if method == http.MethodGet {
		if rest, ok := strings.CutPrefix(path, "/api/v1/jobs/"); ok {
			return rest != "" && !strings.Contains(rest, "/") && !jobsReservedSegments[rest]
		}
	}
	return false
}

// Middleware 创建 JWT 认证中间件
//
// 公开路由在携带有效令牌时也会注入主体（例如雇主查看自己未上线的职位），
// 令牌无效时按匿名处理。其余路由必须携带有效令牌。
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			public := isPublicRoute(r.Method, r.URL.Path)
			token, ok := httpx.BearerToken(r)
			if !ok {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				httpx.WriteError(w, r, apperr.Unauthenticated("missing or invalid authorization header"))
				return
			}

			p, err := svc.Authenticate(token)
			if err != nil {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				svc.log.WithContext(r.Context()).Debug("token rejected", "path", r.URL.Path)
				httpx.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), p)))
		})
	}
}
