package profile

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/apitest"
)

func TestHandlerRoutes(t *testing.T) {
	svc, store := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)
	seeker, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	employer, _ := apitest.SeedEmployer(t, store, "hr@acme.io", true)

	do := func(p *access.Principal, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(access.WithPrincipal(req.Context(), p))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := do(seeker, "GET", "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fullName":"Seeker alice@x.io"`)

	rec = do(seeker, "PUT", "/api/v1/profile/job-seeker", `{"location":"Lisbon"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"location":"Lisbon"`)

	rec = do(employer, "PUT", "/api/v1/profile/employer", `{"about":"Hiring"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"about":"Hiring"`)

	rec = do(employer, "GET", "/api/v1/profile/job-seeker", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(seeker, "PUT", "/api/v1/profile/job-seeker", `{"location":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
