package seeker

import (
	"net/http"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/application"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/apiserver/job"
	"jobboard/internal/shared/model"
)

// Handler 求职者工作台 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建求职者工作台处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册 /job-seekers 路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/job-seekers/jobs", h.Jobs)
	mux.HandleFunc("GET /api/v1/job-seekers/jobs/{id}", h.Job)
	mux.HandleFunc("GET /api/v1/job-seekers/jobs/search", h.SearchByKeyword)
	mux.HandleFunc("GET /api/v1/job-seekers/jobs/search/location", h.SearchByLocation)
	mux.HandleFunc("GET /api/v1/job-seekers/jobs/type/{type}", h.ByType)
	mux.HandleFunc("GET /api/v1/job-seekers/applications", h.Applications)
	mux.HandleFunc("GET /api/v1/job-seekers/applications/{id}", h.Application)
	mux.HandleFunc("POST /api/v1/job-seekers/applications", h.Apply)
	mux.HandleFunc("GET /api/v1/job-seekers/statistics", h.Statistics)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, q job.SearchQuery) {
	page, err := h.svc.Search(r.Context(), access.FromContext(r.Context()), q, httpx.PageRequest(r, model.DefaultPageSize))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// Jobs GET /api/v1/job-seekers/jobs
func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Jobs(r.Context(), access.FromContext(r.Context()), httpx.PageRequest(r, model.DefaultPageSize))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// Job GET /api/v1/job-seekers/jobs/{id}
func (h *Handler) Job(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Job(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, j)
}

// SearchByKeyword GET /api/v1/job-seekers/jobs/search?keyword=
func (h *Handler) SearchByKeyword(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, job.SearchQuery{Keyword: r.URL.Query().Get("keyword")})
}

// SearchByLocation GET /api/v1/job-seekers/jobs/search/location?location=
func (h *Handler) SearchByLocation(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, job.SearchQuery{Location: r.URL.Query().Get("location")})
}

// ByType GET /api/v1/job-seekers/jobs/type/{type}
func (h *Handler) ByType(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, job.SearchQuery{Type: r.PathValue("type")})
}

// Applications GET /api/v1/job-seekers/applications
func (h *Handler) Applications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.Applications(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, apps)
}

// Application GET /api/v1/job-seekers/applications/{id}
func (h *Handler) Application(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.Application(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

// Apply POST /api/v1/job-seekers/applications
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var req application.SubmitInput
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	app, err := h.svc.Apply(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

// Statistics GET /api/v1/job-seekers/statistics
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Statistics(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}
