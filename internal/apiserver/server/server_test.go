package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jobboard/internal/apiserver/apitest"
	"jobboard/internal/apiserver/auth"
	"jobboard/internal/apiserver/metrics"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/objstore"
	"jobboard/pkg/logging"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	app     *Handler
}

func newTestServer(t *testing.T, origins ...string) *testServer {
	t.Helper()
	objects, err := objstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	cfg := auth.DefaultConfig()
	cfg.JWTSecret = "test-secret"
	cfg.BcryptCost = bcrypt.MinCost

	app := New(Deps{
		Store:       apitest.NewStore(t),
		Objects:     objects,
		Metrics:     metrics.NewMetrics("jobboard", reg),
		Gatherer:    reg,
		Auth:        cfg,
		CORSOrigins: origins,
	})
	return &testServer{t: t, handler: app.Router(), app: app}
}

func (s *testServer) do(token, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) decode(rec *httptest.ResponseRecorder, v any) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *testServer) register(email, role, name string) auth.Result {
	s.t.Helper()
	field := "fullName"
	if role == "EMPLOYER" {
		field = "companyName"
	}
	body := `{"email":"` + email + `","password":"secret123","role":"` + role + `","` + field + `":"` + name + `"}`
	rec := s.do("", "POST", "/api/v1/auth/register", body)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var res auth.Result
	s.decode(rec, &res)
	return res
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	rec := s.do("", "POST", "/api/v1/auth/login", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var res auth.Result
	s.decode(rec, &res)
	return res.Token
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("", "GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

func TestAuthenticationGate(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		status int
	}{
		{"公开职位列表", "", "GET", "/api/v1/jobs/public", http.StatusOK},
		{"公开搜索", "", "GET", "/api/v1/jobs/search?keyword=go", http.StatusOK},
		{"邮箱检查", "", "GET", "/api/v1/auth/check-email?email=a@b.io", http.StatusOK},
		{"缺少令牌", "", "GET", "/api/v1/profile", http.StatusUnauthorized},
		{"无效令牌", "garbage", "GET", "/api/v1/admin/statistics", http.StatusUnauthorized},
		{"公开路由带无效令牌按匿名处理", "garbage", "GET", "/api/v1/jobs/public", http.StatusOK},
		{"未知职位", "", "GET", "/api/v1/jobs/job-000000000000", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.token, tt.method, tt.path, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHiringFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.app.Auth().EnsureAdminUser(ctx, "admin@jobboard.io", "admin-pass"))
	adminToken := s.login("admin@jobboard.io", "admin-pass")

	seeker := s.register("alice@x.io", "JOB_SEEKER", "Alice")
	employer := s.register("hr@acme.io", "EMPLOYER", "Acme")

	// 未审批雇主不能发布职位
	jobBody := `{"title":"Go Developer","description":"Build Go services","location":"Berlin","jobType":"FULL_TIME"}`
	rec := s.do(employer.Token, "POST", "/api/v1/jobs", jobBody)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	var employers []model.Employer
	rec = s.do(adminToken, "GET", "/api/v1/admin/employers/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	s.decode(rec, &employers)
	require.Len(t, employers, 1)

	rec = s.do(adminToken, "PUT", "/api/v1/admin/employers/"+employers[0].ID+"/approve", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(employer.Token, "POST", "/api/v1/jobs", jobBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var job model.Job
	s.decode(rec, &job)
	assert.Equal(t, model.JobStatusPending, job.Status)

	rec = s.do(seeker.Token, "POST", "/api/v1/applications", `{"jobId":"`+job.ID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "pending job is not open for applications")

	rec = s.do(adminToken, "PUT", "/api/v1/admin/jobs/"+job.ID+"/approve", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do("", "GET", "/api/v1/jobs/public", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page model.Page[model.Job]
	s.decode(rec, &page)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Acme", page.Content[0].EmployerName)

	rec = s.do(seeker.Token, "POST", "/api/v1/applications", `{"jobId":"`+job.ID+`","coverLetter":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var app model.Application
	s.decode(rec, &app)
	assert.Equal(t, model.ApplicationSubmitted, app.Status)

	rec = s.do(seeker.Token, "POST", "/api/v1/applications", `{"jobId":"`+job.ID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "duplicate application")

	rec = s.do(employer.Token, "PUT", "/api/v1/employers/applications/"+app.ID+"/status", `{"status":"SHORTLISTED"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(seeker.Token, "GET", "/api/v1/job-seekers/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"shortlistedApplications":1`)

	// AI 未配置时返回占位文本
	rec = s.do(seeker.Token, "POST", "/api/v1/ai/chat", `{"message":"how do I prepare?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "response")

	rec = s.do(seeker.Token, "GET", "/api/v1/admin/statistics", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(adminToken, "GET", "/api/v1/admin/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash model.DashboardStatistics
	s.decode(rec, &dash)
	assert.Equal(t, int64(3), dash.Users.TotalUsers)
	assert.Equal(t, int64(1), dash.Jobs.ActiveJobs)
	assert.Equal(t, int64(1), dash.TotalApplications)

	// 停用后不能再登录
	rec = s.do(seeker.Token, "PUT", "/api/v1/users/deactivate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do("", "POST", "/api/v1/auth/login", `{"email":"alice@x.io","password":"secret123"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do("", "GET", "/api/v1/jobs/public", "")

	rec := s.do("", "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `jobboard_http_requests_total{method="GET",path="/api/v1/jobs/public",status="200"} 1`)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, "https://app.jobboard.io")

	req := httptest.NewRequest("OPTIONS", "/api/v1/jobs", nil)
	req.Header.Set("Origin", "https://app.jobboard.io")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.jobboard.io", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAccessLogRecoversPanic(t *testing.T) {
	h := requestID(accessLog(logging.Default("test"), nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/jobs/public", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}
