package admin

import (
	"net/http"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/apiserver/job"
)

// 用户列表缺省分页大小
const usersPageSize = 20

// Handler 管理后台 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建管理后台处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册 /admin 与 /users 路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// 雇主
	mux.HandleFunc("GET /api/v1/admin/employers", h.employersHandler(nil))
	mux.HandleFunc("GET /api/v1/admin/employers/pending", h.employersHandler(ptr(false)))
	mux.HandleFunc("GET /api/v1/admin/employers/approved", h.employersHandler(ptr(true)))
	mux.HandleFunc("GET /api/v1/admin/employers/search", h.SearchEmployers)
	mux.HandleFunc("PUT /api/v1/admin/employers/{id}/approve", h.ApproveEmployer)
	mux.HandleFunc("PUT /api/v1/admin/employers/{id}/reject", h.RejectEmployer)

	// 用户
	mux.HandleFunc("GET /api/v1/admin/users", h.Users)
	mux.HandleFunc("GET /api/v1/admin/users/search", h.SearchUsers)
	mux.HandleFunc("GET /api/v1/admin/users/role/{role}", h.UsersByRole)
	mux.HandleFunc("GET /api/v1/admin/users/{id}", h.User)
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/activate", h.ActivateUser)
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/deactivate", h.DeactivateUser)
	mux.HandleFunc("DELETE /api/v1/admin/users/{id}", h.DeleteUser)

	// 职位审核
	mux.HandleFunc("GET /api/v1/admin/jobs/pending", h.PendingJobs)
	mux.HandleFunc("PUT /api/v1/admin/jobs/{id}/approve", h.ApproveJob)
	mux.HandleFunc("PUT /api/v1/admin/jobs/{id}/reject", h.RejectJob)
	mux.HandleFunc("GET /api/v1/admin/moderation-logs", h.ModerationLogs)
	mux.HandleFunc("GET /api/v1/admin/moderation-logs/job/{jobId}", h.ModerationLogs)

	mux.HandleFunc("GET /api/v1/admin/statistics", h.Dashboard)

	// /users：自助 + 管理员
	mux.HandleFunc("GET /api/v1/users/profile", h.Account)
	mux.HandleFunc("PUT /api/v1/users/deactivate", h.DeactivateSelf)
	mux.HandleFunc("GET /api/v1/users", h.Users)
	mux.HandleFunc("GET /api/v1/users/statistics", h.UserStatistics)
	mux.HandleFunc("GET /api/v1/users/role/{role}", h.UsersByRole)
	mux.HandleFunc("GET /api/v1/users/{id}", h.User)
	mux.HandleFunc("PUT /api/v1/users/{id}/activate", h.ActivateUser)
	mux.HandleFunc("PUT /api/v1/users/{id}/deactivate", h.DeactivateUser)
}

func ptr(b bool) *bool { return &b }

// RejectEmployerRequest 拒绝雇主的理由
type RejectEmployerRequest struct {
	Reason string `json:"reason"`
}

// decodeReason 请求体可选
func decodeReason(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.ContentLength == 0 {
		return "", nil
	}
	var req RejectEmployerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return "", err
	}
	return req.Reason, nil
}

// ============================================================================
// 雇主
// ============================================================================

func (h *Handler) employersHandler(approved *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.svc.Employers(r.Context(), access.FromContext(r.Context()), approved)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}

// SearchEmployers GET /api/v1/admin/employers/search?name=
func (h *Handler) SearchEmployers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		name = q.Get("companyName")
	}
	list, err := h.svc.SearchEmployers(r.Context(), access.FromContext(r.Context()), name)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

// ApproveEmployer PUT /api/v1/admin/employers/{id}/approve
func (h *Handler) ApproveEmployer(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.ApproveEmployer(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

// RejectEmployer PUT /api/v1/admin/employers/{id}/reject
func (h *Handler) RejectEmployer(w http.ResponseWriter, r *http.Request) {
	reason, err := decodeReason(w, r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	e, err := h.svc.RejectEmployer(r.Context(), access.FromContext(r.Context()), r.PathValue("id"), reason)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

// ============================================================================
// 用户
// ============================================================================

// Users 分页用户列表
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Users(r.Context(), access.FromContext(r.Context()), httpx.PageRequest(r, usersPageSize))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// SearchUsers GET /api/v1/admin/users/search?email=
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.SearchUsers(r.Context(), access.FromContext(r.Context()), r.URL.Query().Get("email"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

// UsersByRole 按角色列出用户
func (h *Handler) UsersByRole(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.UsersByRole(r.Context(), access.FromContext(r.Context()), r.PathValue("role"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

// User 用户详情
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.User(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

// ActivateUser 启用账号
func (h *Handler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.ActivateUser(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

// DeactivateUser 停用账号
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.DeactivateUser(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

// DeleteUser 软删除
// DELETE /api/v1/admin/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), access.FromContext(r.Context()), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "user deactivated")
}

// UserStatistics GET /api/v1/users/statistics
func (h *Handler) UserStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.UserStatistics(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}

// Account GET /api/v1/users/profile
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Account(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

// DeactivateSelf PUT /api/v1/users/deactivate
func (h *Handler) DeactivateSelf(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeactivateSelf(r.Context(), access.FromContext(r.Context())); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "account deactivated")
}

// ============================================================================
// 职位审核
// ============================================================================

// PendingJobs GET /api/v1/admin/jobs/pending
func (h *Handler) PendingJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.PendingJobs(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, jobs)
}

// ApproveJob PUT /api/v1/admin/jobs/{id}/approve
func (h *Handler) ApproveJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.ApproveJob(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, j)
}

// RejectJob PUT /api/v1/admin/jobs/{id}/reject
func (h *Handler) RejectJob(w http.ResponseWriter, r *http.Request) {
	var req job.RejectRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	j, err := h.svc.RejectJob(r.Context(), access.FromContext(r.Context()), r.PathValue("id"), req.Reason)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, j)
}

// ModerationLogs 审核记录，路径带 jobId 时只返回该职位的记录
func (h *Handler) ModerationLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.ModerationLogs(r.Context(), access.FromContext(r.Context()), r.PathValue("jobId"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, logs)
}

// Dashboard GET /api/v1/admin/statistics
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Dashboard(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}
