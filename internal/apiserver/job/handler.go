package job

import (
	"net/http"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
)

// adminPageSize 管理员按状态列表的缺省页大小
const adminPageSize = 20

// Handler 职位 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建职位处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册职位相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/jobs/public", h.ListPublic)
	mux.HandleFunc("GET /api/v1/jobs/search", h.Search)
	mux.HandleFunc("GET /api/v1/jobs/{id}", h.Get)

	mux.HandleFunc("POST /api/v1/jobs", h.Create)
	mux.HandleFunc("PUT /api/v1/jobs/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/jobs/{id}", h.Delete)
	mux.HandleFunc("PUT /api/v1/jobs/{id}/close", h.Close)
	mux.HandleFunc("GET /api/v1/jobs/my-jobs", h.ListMine)
	mux.HandleFunc("GET /api/v1/jobs/my-jobs/status/{status}", h.ListMineByStatus)

	mux.HandleFunc("GET /api/v1/jobs/admin/pending", h.ListPending)
	mux.HandleFunc("PUT /api/v1/jobs/admin/{id}/approve", h.Approve)
	mux.HandleFunc("PUT /api/v1/jobs/admin/{id}/reject", h.Reject)
	mux.HandleFunc("GET /api/v1/jobs/admin/status/{status}", h.ListByStatus)
	mux.HandleFunc("GET /api/v1/jobs/admin/statistics", h.Statistics)
}

// RejectRequest 拒绝理由
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ParseStatus 解析路径中的职位状态
func ParseStatus(r *http.Request) (model.JobStatus, error) {
	raw := r.PathValue("status")
	st, ok := model.ParseJobStatus(raw)
	if !ok {
		return "", apperr.Validation("unknown job status %q", raw)
	}
	return st, nil
}

// SearchQueryFrom 从查询参数读取检索条件
func SearchQueryFrom(r *http.Request) SearchQuery {
	q := r.URL.Query()
	return SearchQuery{
		Keyword:  q.Get("keyword"),
		Location: q.Get("location"),
		Type:     q.Get("type"),
		Title:    q.Get("title"),
	}
}

// ============================================================================
// 公开
// ============================================================================

// ListPublic 公开职位
// GET /api/v1/jobs/public
func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListActive(r.Context(), httpx.PageRequest(r, model.DefaultPageSize))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// Search 检索职位
// GET /api/v1/jobs/search?keyword=&location=&type=&title=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Search(r.Context(), SearchQueryFrom(r), httpx.PageRequest(r, model.DefaultPageSize))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// Get 职位详情
// GET /api/v1/jobs/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Get(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

// ============================================================================
// 雇主
// ============================================================================

// Create 发布职位
// POST /api/v1/jobs
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInput
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	job, err := h.svc.Create(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

// Update 更新职位
// PUT /api/v1/jobs/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateInput
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	job, err := h.svc.Update(r.Context(), access.FromContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

// Delete 删除职位
// DELETE /api/v1/jobs/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), access.FromContext(r.Context()), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Close 关闭职位
// PUT /api/v1/jobs/{id}/close
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Close(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

// ListMine 我发布的职位
// GET /api/v1/jobs/my-jobs
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ListMine(r.Context(), access.FromContext(r.Context()), "")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, jobs)
}

// ListMineByStatus 我发布的某状态职位
// GET /api/v1/jobs/my-jobs/status/{status}
func (h *Handler) ListMineByStatus(w http.ResponseWriter, r *http.Request) {
	st, err := ParseStatus(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	jobs, err := h.svc.ListMine(r.Context(), access.FromContext(r.Context()), st)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, jobs)
}

// ============================================================================
// 管理员
// ============================================================================

// ListPending 待审核职位
// GET /api/v1/jobs/admin/pending
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ListPending(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, jobs)
}

// Approve 审核通过
// PUT /api/v1/jobs/admin/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Approve(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

// Reject 审核拒绝，请求体可省略
// PUT /api/v1/jobs/admin/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	job, err := h.svc.Reject(r.Context(), access.FromContext(r.Context()), r.PathValue("id"), req.Reason)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

// ListByStatus 按状态分页
// GET /api/v1/jobs/admin/status/{status}
func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	st, err := ParseStatus(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	page, err := h.svc.ListByStatus(r.Context(), access.FromContext(r.Context()), st, httpx.PageRequest(r, adminPageSize))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// Statistics 职位统计
// GET /api/v1/jobs/admin/statistics
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}
