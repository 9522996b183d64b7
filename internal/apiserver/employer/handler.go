package employer

import (
	"net/http"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/application"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
)

// Handler 雇主工作台 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建雇主工作台处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册 /employers 路由
//
// jobs/status/{status} 与 jobs/{jobId}/applications 在 ServeMux 中互相冲突，
// 统一注册为 jobs/{seg}/{rest} 再分发。
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/employers/profile", h.GetProfile)
	mux.HandleFunc("PUT /api/v1/employers/profile", h.UpdateProfile)
	mux.HandleFunc("GET /api/v1/employers/jobs", h.Jobs)
	mux.HandleFunc("GET /api/v1/employers/jobs/{seg}/{rest}", h.JobsSubroute)
	mux.HandleFunc("GET /api/v1/employers/applications", h.Applications)
	mux.HandleFunc("PUT /api/v1/employers/applications/{id}/status", h.UpdateApplicationStatus)
	mux.HandleFunc("GET /api/v1/employers/approved", h.Approved)
	mux.HandleFunc("GET /api/v1/employers/statistics", h.Statistics)
}

// GetProfile GET /api/v1/employers/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Profile(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

// UpdateProfile PUT /api/v1/employers/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch model.EmployerPatch
	if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	e, err := h.svc.UpdateProfile(r.Context(), access.FromContext(r.Context()), patch)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

// Jobs 我的职位
// GET /api/v1/employers/jobs
func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.Jobs(r.Context(), access.FromContext(r.Context()), "")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, jobs)
}

// JobsSubroute 分发：
//
//	GET /api/v1/employers/jobs/status/{status}
//	GET /api/v1/employers/jobs/{jobId}/applications
//	GET /api/v1/employers/jobs/{jobId}/ranking
func (h *Handler) JobsSubroute(w http.ResponseWriter, r *http.Request) {
	seg, rest := r.PathValue("seg"), r.PathValue("rest")
	p := access.FromContext(r.Context())

	var (
		v   any
		err error
	)
	switch {
	case seg == "status":
		st, ok := model.ParseJobStatus(rest)
		if !ok {
			httpx.WriteError(w, r, apperr.Validation("unknown job status %q", rest))
			return
		}
		v, err = h.svc.Jobs(r.Context(), p, st)
	case rest == "applications":
		v, err = h.svc.JobApplications(r.Context(), p, seg)
	case rest == "ranking":
		v, err = h.svc.Ranking(r.Context(), p, seg)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v)
}

// Applications 投递到我职位的全部申请
// GET /api/v1/employers/applications
func (h *Handler) Applications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.Applications(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, apps)
}

// UpdateApplicationStatus PUT /api/v1/employers/applications/{id}/status
func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := application.StatusFrom(w, r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	app, err := h.svc.UpdateApplicationStatus(r.Context(), access.FromContext(r.Context()), r.PathValue("id"), status)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

// Approved GET /api/v1/employers/approved
func (h *Handler) Approved(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Approval(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

// Statistics GET /api/v1/employers/statistics
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Statistics(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}
