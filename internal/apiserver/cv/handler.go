package cv

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/shared/apperr"
)

// multipart 表单开销余量
const formOverhead = 1 << 20

// Handler 简历 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建简历处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册简历相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/cvs/upload", h.Upload)
	mux.HandleFunc("POST /api/v1/cvs/build", h.Build)
	mux.HandleFunc("GET /api/v1/cvs", h.List)
	mux.HandleFunc("GET /api/v1/cvs/latest", h.Latest)
	mux.HandleFunc("GET /api/v1/cvs/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/cvs/{id}/download", h.Download)
	mux.HandleFunc("DELETE /api/v1/cvs/{id}", h.Delete)
	mux.HandleFunc("PUT /api/v1/cvs/{id}/default", h.SetDefault)
	mux.HandleFunc("PUT /api/v1/cvs/{id}/metadata", h.UpdateMetadata)
}

// Upload 上传简历（multipart 字段 file）
// POST /api/v1/cvs/upload
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize+formOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			httpx.WriteError(w, r, apperr.Validation("file size exceeds 5MB limit"))
		case errors.Is(err, http.ErrMissingFile):
			httpx.WriteError(w, r, apperr.Validation("please select a file to upload"))
		default:
			httpx.WriteError(w, r, apperr.Validation("invalid multipart form"))
		}
		return
	}
	defer file.Close()

	cv, err := h.svc.Upload(r.Context(), access.FromContext(r.Context()), UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cv)
}

// Build 在线生成简历
// POST /api/v1/cvs/build
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	var req BuildInput
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	cv, err := h.svc.Build(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cv)
}

// List 我的简历
// GET /api/v1/cvs
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cvs, err := h.svc.List(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cvs)
}

// Latest 最近的简历
// GET /api/v1/cvs/latest
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	cv, err := h.svc.Latest(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cv)
}

// Get 简历详情
// GET /api/v1/cvs/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cv, err := h.svc.Get(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cv)
}

// Download 下载简历文件
// GET /api/v1/cvs/{id}/download
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	cv, rc, err := h.svc.Download(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", cv.FileType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+cv.FileName+`"`)
	if cv.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(cv.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.svc.log.WithContext(r.Context()).WithError(err).Warn("cv download interrupted", "cv_id", cv.ID)
	}
}

// Delete 删除简历
// DELETE /api/v1/cvs/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), access.FromContext(r.Context()), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefault 设为默认简历
// PUT /api/v1/cvs/{id}/default
func (h *Handler) SetDefault(w http.ResponseWriter, r *http.Request) {
	cv, err := h.svc.SetDefault(r.Context(), access.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cv)
}

// UpdateMetadata 修改标题/描述
// PUT /api/v1/cvs/{id}/metadata
func (h *Handler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var req MetadataInput
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	cv, err := h.svc.UpdateMetadata(r.Context(), access.FromContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cv)
}
