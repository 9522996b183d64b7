// Package server 路由配置与 HTTP 中间件
//
// 本包只负责组装：各领域服务在 New 中创建，路由由各领域包自行注册，
// 中间件顺序为 CORS → 请求 ID → 访问日志/恢复 → 指标 → 认证。
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"jobboard/internal/apiserver/admin"
	"jobboard/internal/apiserver/ai"
	"jobboard/internal/apiserver/application"
	"jobboard/internal/apiserver/auth"
	"jobboard/internal/apiserver/cv"
	"jobboard/internal/apiserver/employer"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/apiserver/job"
	"jobboard/internal/apiserver/matching"
	"jobboard/internal/apiserver/metrics"
	"jobboard/internal/apiserver/profile"
	"jobboard/internal/apiserver/seeker"
	"jobboard/internal/shared/objstore"
	"jobboard/internal/shared/ratelimit"
	"jobboard/internal/shared/storage"
	"jobboard/pkg/logging"
)

// Deps 服务器依赖
type Deps struct {
	Store   storage.PersistentStore
	Objects objstore.Store

	// Limiter 为 nil 时凭证接口不限流
	Limiter *ratelimit.Limiter

	// Generator 生成式 AI 客户端，为 nil 时 AI 接口返回占位文本
	Generator ai.Generator

	// Metrics/Gatherer 为 nil 时不采集指标，/metrics 不注册
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Auth        auth.Config
	CORSOrigins []string

	// TrustedProxies 为空时限流与访问日志只使用直连对端地址
	TrustedProxies httpx.TrustedProxies
}

// Handler API 入口，持有全部领域服务
type Handler struct {
	deps Deps
	log  *logging.Logger

	auth         *auth.Service
	jobs         *job.Service
	applications *application.Service
	profiles     *profile.Service
	matcher      *matching.Service
	cvs          *cv.Service
	ai           *ai.Service
	employers    *employer.Service
	seekers      *seeker.Service
	admin        *admin.Service
}

// New 创建 Handler 并装配领域服务
func New(deps Deps) *Handler {
	store := deps.Store
	h := &Handler{
		deps: deps,
		log:  logging.Default("server"),
	}

	h.auth = auth.NewService(store, deps.Auth, deps.Metrics)
	h.jobs = job.NewService(store, deps.Metrics)
	h.applications = application.NewService(store, deps.Metrics)
	h.profiles = profile.NewService(store)
	h.matcher = matching.NewService(store)
	h.cvs = cv.NewService(store, deps.Objects, deps.Metrics)
	h.ai = ai.NewService(deps.Generator, h.matcher, store, deps.Metrics)
	h.employers = employer.NewService(store, h.jobs, h.applications, h.profiles, h.matcher)
	h.seekers = seeker.NewService(store, h.jobs, h.applications)
	h.admin = admin.NewService(store, h.jobs, deps.Metrics)
	return h
}

// Auth 认证服务（启动时创建初始管理员）
func (h *Handler) Auth() *auth.Service {
	return h.auth
}

// Router 返回配置好的 HTTP 路由
//
// 路由分组：
//   - GET /health、GET /metrics
//   - /api/v1/auth/**          注册、登录、刷新令牌
//   - /api/v1/jobs/**          职位发布与公开检索
//   - /api/v1/applications/**  投递与状态流转
//   - /api/v1/profile/**       个人资料
//   - /api/v1/cvs/**           简历上传、生成、下载
//   - /api/v1/ai/**            AI 助手
//   - /api/v1/employers/**     雇主工作台
//   - /api/v1/job-seekers/**   求职者工作台
//   - /api/v1/admin/**、/api/v1/users/**  管理后台与账号
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	if h.deps.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(h.deps.Gatherer))
	}

	auth.NewHandler(h.auth, h.deps.Limiter, h.deps.TrustedProxies.ClientIP).RegisterRoutes(mux)
	job.NewHandler(h.jobs).RegisterRoutes(mux)
	application.NewHandler(h.applications).RegisterRoutes(mux)
	profile.NewHandler(h.profiles).RegisterRoutes(mux)
	cv.NewHandler(h.cvs).RegisterRoutes(mux)
	ai.NewHandler(h.ai).RegisterRoutes(mux)
	employer.NewHandler(h.employers).RegisterRoutes(mux)
	seeker.NewHandler(h.seekers).RegisterRoutes(mux)
	admin.NewHandler(h.admin).RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = auth.Middleware(h.auth)(handler)
	handler = h.deps.Metrics.Middleware(handler)
	handler = accessLog(h.log, h.deps.TrustedProxies, handler)
	handler = requestID(handler)
	handler = cors(h.deps.CORSOrigins, handler)
	return handler
}

// Health 健康检查
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
