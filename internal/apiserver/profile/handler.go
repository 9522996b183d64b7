package profile

import (
	"net/http"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/shared/model"
)

// Handler 资料 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建资料处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册资料路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/profile", h.Complete)
	mux.HandleFunc("GET /api/v1/profile/job-seeker", h.GetSeeker)
	mux.HandleFunc("PUT /api/v1/profile/job-seeker", h.UpdateSeeker)
	mux.HandleFunc("GET /api/v1/profile/employer", h.GetEmployer)
	mux.HandleFunc("PUT /api/v1/profile/employer", h.UpdateEmployer)
}

// Complete 当前用户的完整资料
// GET /api/v1/profile
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Complete(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v)
}

// GetSeeker GET /api/v1/profile/job-seeker
func (h *Handler) GetSeeker(w http.ResponseWriter, r *http.Request) {
	js, err := h.svc.Seeker(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, js)
}

// UpdateSeeker PUT /api/v1/profile/job-seeker
func (h *Handler) UpdateSeeker(w http.ResponseWriter, r *http.Request) {
	var patch model.JobSeekerPatch
	if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	js, err := h.svc.UpdateSeeker(r.Context(), access.FromContext(r.Context()), patch)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, js)
}

// GetEmployer GET /api/v1/profile/employer
func (h *Handler) GetEmployer(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Employer(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

// UpdateEmployer PUT /api/v1/profile/employer
func (h *Handler) UpdateEmployer(w http.ResponseWriter, r *http.Request) {
	var patch model.EmployerPatch
	if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	e, err := h.svc.UpdateEmployer(r.Context(), access.FromContext(r.Context()), patch)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}
