package auth

import (
	"net/http"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/shared/ratelimit"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	svc      *Service
	limiter  *ratelimit.Limiter
	clientIP func(*http.Request) string
}

// NewHandler 创建认证处理器
//
// limiter 为 nil 时不限流；clientIP 决定限流键，为 nil 时使用直连对端地址。
func NewHandler(svc *Service, limiter *ratelimit.Limiter, clientIP func(*http.Request) string) *Handler {
	if clientIP == nil {
		clientIP = httpx.RemoteIP
	}
	return &Handler{svc: svc, limiter: limiter, clientIP: clientIP}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.limiter.Middleware(h.clientIP, h.Register))
	mux.HandleFunc("POST /api/v1/auth/login", h.limiter.Middleware(h.clientIP, h.Login))
	mux.HandleFunc("POST /api/v1/auth/refresh", h.limiter.Middleware(h.clientIP, h.Refresh))
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
	mux.HandleFunc("PUT /api/v1/auth/change-password", h.ChangePassword)
	mux.HandleFunc("GET /api/v1/auth/check-email", h.CheckEmail)
}

// ============================================================================
// 请求类型
// ============================================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// Refresh 刷新访问令牌
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.svc.Refresh(r.Context(), req.Token)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// Logout 令牌无服务端状态，客户端丢弃即可
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httpx.WriteMessage(w, http.StatusOK, "Logged out successfully")
}

// Me 获取当前用户信息
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), access.FromContext(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Password changed successfully")
}

// CheckEmail 邮箱是否已注册
func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	exists, err := h.svc.EmailExists(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}
