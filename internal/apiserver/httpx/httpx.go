// Package httpx HTTP 处理器共用的响应、解码和分页工具
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"

	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/pkg/logging"
)

// maxBodyBytes JSON 请求体上限（文件上传走 multipart，不受此限制）
const maxBodyBytes = 1 << 20

// 延迟创建，确保 main 已调用 logging.SetDefaults
var logger = sync.OnceValue(func() *logging.Logger { return logging.Default("http") })

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteMessage 写入 {"message": ...}
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}

// WriteError 按错误分类写入 {"error": ...}
//
// Internal 错误只返回通用信息，原始错误和堆栈写日志。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		l := logger().WithContext(r.Context()).WithError(err)
		if stack := apperr.Stack(err); stack != "" {
			l.Error("internal error", "method", r.Method, "path", r.URL.Path, "stack", stack)
		} else {
			l.Error("internal error", "method", r.Method, "path", r.URL.Path)
		}
	}
	WriteJSON(w, kind.HTTPStatus(), map[string]string{"error": apperr.PublicMessage(err)})
}

// DecodeJSON 解码请求体，失败时返回 Validation 错误
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperr.Validation("request body too large")
		}
		return apperr.Validation("invalid request body")
	}
	return nil
}

// ============================================================================
// 分页
// ============================================================================

// PageRequest 解析 page / size / sort 查询参数
//
// page 从 0 开始，上限 model.MaxPage；size 缺省为 defaultSize，上限 model.MaxPageSize；
// sort 为 "field" 或 "field,asc|desc"，缺省降序。非法数字按缺省值处理。
func PageRequest(r *http.Request, defaultSize int) model.PageRequest {
	q := r.URL.Query()
	req := model.PageRequest{Size: defaultSize}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		req.Page = min(v, model.MaxPage)
	}
	if v, err := strconv.Atoi(q.Get("size")); err == nil && v > 0 {
		req.Size = v
	}
	if req.Size > model.MaxPageSize {
		req.Size = model.MaxPageSize
	}

	if sort := strings.TrimSpace(q.Get("sort")); sort != "" {
		field, dir, _ := strings.Cut(sort, ",")
		req.Sort = strings.TrimSpace(field)
		req.Asc = strings.EqualFold(strings.TrimSpace(dir), "asc")
	}
	return req
}

// ============================================================================
// 请求信息
// ============================================================================

// RemoteIP 直连对端地址（不读取代理头）
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// TrustedProxies 可信反向代理地址段
//
// 只有直连对端属于可信代理时才读取 X-Forwarded-For / X-Real-IP，
// 否则客户端可以随意伪造来源地址。为空时始终使用 RemoteIP。
type TrustedProxies []netip.Prefix

// ParseTrustedProxies 解析 IP 或 CIDR 列表
func ParseTrustedProxies(list []string) (TrustedProxies, error) {
	var out TrustedProxies
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			prefix, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", s, err)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", s, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func (t TrustedProxies) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range t {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP 客户端地址
//
// 对端是可信代理时，从 X-Forwarded-For 右侧向左取第一个非可信地址；
// 链上全部可信时退回 X-Real-IP，再退回对端地址。
func (t TrustedProxies) ClientIP(r *http.Request) string {
	remote := RemoteIP(r)
	if len(t) == 0 || !t.trusts(remote) {
		return remote
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(ip); err != nil {
				break
			}
			if !t.trusts(ip) {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		if _, err := netip.ParseAddr(ip); err == nil {
			return ip
		}
	}
	return remote
}

// BearerToken 提取 Authorization: Bearer <token>
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
