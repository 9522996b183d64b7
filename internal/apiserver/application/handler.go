package application

import (
	"net/http"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
)

// Handler 投递 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建投递处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册投递相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/applications", h.Submit)
	mux.HandleFunc("GET /api/v1/applications", h.List)
	mux.HandleFunc("GET /api/v1/applications/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/applications/my-applications", h.ListMine)
	mux.HandleFunc("GET /api/v1/applications/job/{jobId}", h.ListByJob)
	mux.HandleFunc("GET /api/v1/applications/my-jobs/applications", h.ListForMyJobs)
	mux.HandleFunc("GET /api/v1/applications/status/{status}", h.ListByStatus)
	mux.HandleFunc("PUT /api/v1/applications/{id}/status", h.UpdateStatus)
	mux.HandleFunc("PUT /api/v1/applications/{id}/notes", h.UpdateNotes)
	mux.HandleFunc("DELETE /api/v1/applications/{id}", h.Delete)
}

// StatusRequest 状态变更请求
type StatusRequest struct {
	Status string `json:"status"`
}

// NotesRequest 备注请求
type NotesRequest struct {
	Notes string `json:"notes"`
}

// Submit 提交投递
// POST /api/v1/applications
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitInput
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	app, err := h.svc.Submit(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

// List 可见投递分页
// GET /api/v1/applications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), access.FromContext(r.Context()), "", httpx.PageRequest(r, model.DefaultPageSize))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// Get 投递详情
// GET /api/v1/applications/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.Get(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

// ListMine 我的投递
// GET /api/v1/applications/my-applications
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.ListMine(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, apps)
}

// ListByJob 某职位的投递
// GET /api/v1/applications/job/{jobId}
func (h *Handler) ListByJob(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.ListByJob(r.Context(), access.FromContext(r.Context()), r.PathValue("jobId"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, apps)
}

// ListForMyJobs 我的职位收到的投递
// GET /api/v1/applications/my-jobs/applications
func (h *Handler) ListForMyJobs(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.ListForMyJobs(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, apps)
}

// ListByStatus 按状态列出可见投递
// GET /api/v1/applications/status/{status}
func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("status")
	st, ok := model.ParseApplicationStatus(raw)
	if !ok {
		httpx.WriteError(w, r, apperr.Validation("unknown application status %q", raw))
		return
	}
	page, err := h.svc.List(r.Context(), access.FromContext(r.Context()), st, httpx.PageRequest(r, model.DefaultPageSize))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// UpdateStatus 修改投递状态，状态也可以放在 ?status= 中
// PUT /api/v1/applications/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	status, err := StatusFrom(w, r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	app, err := h.svc.UpdateStatus(r.Context(), access.FromContext(r.Context()), r.PathValue("id"), status)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

// StatusFrom 从查询参数或 JSON 请求体读取目标状态
func StatusFrom(w http.ResponseWriter, r *http.Request) (string, error) {
	if st := r.URL.Query().Get("status"); st != "" {
		return st, nil
	}
	var req StatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return "", err
	}
	if req.Status == "" {
		return "", apperr.Validation("status is required")
	}
	return req.Status, nil
}

// UpdateNotes 修改雇主备注
// PUT /api/v1/applications/{id}/notes
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req NotesRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	app, err := h.svc.UpdateNotes(r.Context(), access.FromContext(r.Context()), r.PathValue("id"), req.Notes)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

// Delete 撤回投递
// DELETE /api/v1/applications/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), access.FromContext(r.Context()), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
