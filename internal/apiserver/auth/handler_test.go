package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/apiserver/httpx"
)

func newTestMux(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(svc, nil, nil).RegisterRoutes(mux)
	return Middleware(svc)(mux)
}

func doJSON(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRegisterLoginMe(t *testing.T) {
	h := newTestMux(t)

	rec := doJSON(h, "POST", "/api/v1/auth/register",
		`{"email":"eve@example.com","password":"secret1","role":"JOB_SEEKER","fullName":"Eve"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reg map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, "Bearer", reg["type"])
	assert.Equal(t, "JOB_SEEKER", reg["role"])
	assert.NotEmpty(t, reg["token"])

	rec = doJSON(h, "POST", "/api/v1/auth/login", `{"email":"eve@example.com","password":"nope12"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(h, "POST", "/api/v1/auth/login", `{"email":"eve@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	token := login["token"].(string)

	rec = doJSON(h, "GET", "/api/v1/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "eve@example.com", me["email"])
	_, leaked := me["passwordHash"]
	assert.False(t, leaked)

	rec = doJSON(h, "GET", "/api/v1/auth/check-email?email=EVE@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":true}`, rec.Body.String())

	rec = doJSON(h, "PUT", "/api/v1/auth/change-password",
		`{"currentPassword":"secret1","newPassword":"secret2"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Password changed successfully"}`, rec.Body.String())

	rec = doJSON(h, "POST", "/api/v1/auth/logout", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerRegisterErrors(t *testing.T) {
	h := newTestMux(t)

	rec := doJSON(h, "POST", "/api/v1/auth/register", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := `{"email":"dup@example.com","password":"secret1","role":"EMPLOYER","companyName":"Dup"}`
	require.Equal(t, http.StatusOK, doJSON(h, "POST", "/api/v1/auth/register", body, "").Code)
	rec = doJSON(h, "POST", "/api/v1/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(h, "GET", "/api/v1/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerRateLimitKey(t *testing.T) {
	svc, _ := newTestService(t)
	req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	req.RemoteAddr = "198.51.100.9:4567"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")

	h := NewHandler(svc, nil, nil)
	assert.Equal(t, "198.51.100.9", h.clientIP(req), "未配置可信代理时不读取转发头")

	proxies, err := httpx.ParseTrustedProxies([]string{"198.51.100.0/24"})
	require.NoError(t, err)
	h = NewHandler(svc, nil, proxies.ClientIP)
	assert.Equal(t, "203.0.113.7", h.clientIP(req))
}
