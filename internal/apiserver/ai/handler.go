package ai

import (
	"net/http"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/httpx"
)

// Handler AI HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建 AI 处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册 AI 路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/ai/chat", h.Chat)
	mux.HandleFunc("POST /api/v1/ai/optimize-job", h.OptimizeJob)
	mux.HandleFunc("GET /api/v1/ai/analyze-my-cv", h.AnalyzeMyCV)
	mux.HandleFunc("GET /api/v1/ai/match-score/{jobId}", h.MatchScore)
}

// ChatRequest 聊天请求
type ChatRequest struct {
	Message string `json:"message"`
}

// OptimizeJobRequest 职位描述生成请求
type OptimizeJobRequest struct {
	Title    string `json:"title"`
	Industry string `json:"industry"`
}

// Chat POST /api/v1/ai/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	text, err := h.svc.Chat(r.Context(), access.FromContext(r.Context()), req.Message)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"response": text})
}

// OptimizeJob POST /api/v1/ai/optimize-job
func (h *Handler) OptimizeJob(w http.ResponseWriter, r *http.Request) {
	var req OptimizeJobRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	text, err := h.svc.OptimizeJob(r.Context(), access.FromContext(r.Context()), req.Title, req.Industry)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"suggestion": text})
}

// AnalyzeMyCV GET /api/v1/ai/analyze-my-cv
func (h *Handler) AnalyzeMyCV(w http.ResponseWriter, r *http.Request) {
	text, err := h.svc.AnalyzeMyCV(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"feedback": text})
}

// MatchScore GET /api/v1/ai/match-score/{jobId}
func (h *Handler) MatchScore(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.MatchScore(r.Context(), access.FromContext(r.Context()), r.PathValue("jobId"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
