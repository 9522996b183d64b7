package employer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/apitest"
	"jobboard/internal/apiserver/application"
	"jobboard/internal/apiserver/job"
	"jobboard/internal/apiserver/matching"
	"jobboard/internal/apiserver/profile"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage/repository"
)

func newTestService(t *testing.T) (*Service, *repository.Store) {
	t.Helper()
	store := apitest.NewStore(t)
	jobs := job.NewService(store, nil)
	jobs.SetClock(apitest.Clock())
	apps := application.NewService(store, nil)
	apps.SetClock(apitest.Clock())
	profiles := profile.NewService(store)
	profiles.SetClock(apitest.Clock())
	matcher := matching.NewService(store)
	matcher.SetClock(apitest.Clock())
	return NewService(store, jobs, apps, profiles, matcher), store
}

func apply(t *testing.T, store *repository.Store, jobRow *model.Job, seeker *model.JobSeeker, status model.ApplicationStatus) *model.Application {
	t.Helper()
	app := &model.Application{
		ID:          model.NewID(model.PrefixApplication),
		JobID:       jobRow.ID,
		JobSeekerID: seeker.ID,
		EmployerID:  jobRow.EmployerID,
		Status:      status,
		AppliedAt:   apitest.Now,
		UpdatedAt:   apitest.Now,
	}
	require.NoError(t, store.CreateApplication(context.Background(), app))
	return app
}

func TestStatistics(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	owner, emp := apitest.SeedEmployer(t, store, "hr@acme.io", true)
	_, otherEmp := apitest.SeedEmployer(t, store, "hr@other.io", true)
	_, alice := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	_, bob := apitest.SeedSeeker(t, store, "bob@x.io", "Go")

	approved := apitest.SeedJob(t, store, emp.ID, "Go Dev", model.JobStatusApproved)
	closed := apitest.SeedJob(t, store, emp.ID, "Old Role", model.JobStatusClosed)
	apitest.SeedJob(t, store, emp.ID, "New Role", model.JobStatusPending)
	apitest.SeedJob(t, store, emp.ID, "Bad Role", model.JobStatusRejected)
	foreign := apitest.SeedJob(t, store, otherEmp.ID, "Foreign", model.JobStatusApproved)

	apply(t, store, approved, alice, model.ApplicationSubmitted)
	apply(t, store, approved, bob, model.ApplicationShortlisted)
	apply(t, store, closed, alice, model.ApplicationHired)
	apply(t, store, foreign, alice, model.ApplicationReviewed)

	st, err := svc.Statistics(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, model.EmployerStatistics{
		TotalJobs:               4,
		ActiveJobs:              1,
		PendingJobs:             1,
		ClosedJobs:              1,
		TotalApplications:       3,
		PendingApplications:     1,
		ReviewedApplications:    0,
		ShortlistedApplications: 1,
		HiredApplications:       1,
	}, st)

	seeker, _ := apitest.SeedSeeker(t, store, "carol@x.io", "Go")
	_, err = svc.Statistics(ctx, seeker)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestWorkspaceRequiresEmployer(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	_, emp := apitest.SeedEmployer(t, store, "hr@acme.io", true)
	admin := apitest.SeedAdmin(t, store, "root@x.io")
	j := apitest.SeedJob(t, store, emp.ID, "Go Dev", model.JobStatusApproved)

	_, err := svc.JobApplications(ctx, admin, j.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = svc.Ranking(ctx, admin, j.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = svc.Approval(ctx, admin)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestApproval(t *testing.T) {
	svc, store := newTestService(t)
	pending, emp := apitest.SeedEmployer(t, store, "hr@acme.io", false)

	a, err := svc.Approval(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, emp.ID, a.EmployerID)
	assert.False(t, a.IsApproved)
}

func TestHandlerRoutes(t *testing.T) {
	svc, store := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)

	owner, emp := apitest.SeedEmployer(t, store, "hr@acme.io", true)
	other, _ := apitest.SeedEmployer(t, store, "hr@other.io", true)
	_, alice := apitest.SeedSeeker(t, store, "alice@x.io", "Go, Developer")
	_, bob := apitest.SeedSeeker(t, store, "bob@x.io", "Java")
	j := apitest.SeedJob(t, store, emp.ID, "Go Developer", model.JobStatusApproved)
	apitest.SeedJob(t, store, emp.ID, "Pending Role", model.JobStatusPending)
	apply(t, store, j, bob, model.ApplicationSubmitted)
	app := apply(t, store, j, alice, model.ApplicationSubmitted)

	do := func(p *access.Principal, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(access.WithPrincipal(req.Context(), p))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := do(owner, "GET", "/api/v1/employers/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 2)

	rec = do(owner, "GET", "/api/v1/employers/jobs/status/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Pending Role", jobs[0].Title)

	rec = do(owner, "GET", "/api/v1/employers/jobs/status/archived", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(owner, "GET", "/api/v1/employers/jobs/"+j.ID+"/applications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var apps []model.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apps))
	assert.Len(t, apps, 2)

	rec = do(owner, "GET", "/api/v1/employers/jobs/"+j.ID+"/ranking", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ranked []matching.RankedApplicant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranked))
	require.Len(t, ranked, 2)
	assert.Equal(t, alice.ID, ranked[0].JobSeekerID)
	assert.Equal(t, 95, ranked[0].MatchScore)

	rec = do(other, "GET", "/api/v1/employers/jobs/"+j.ID+"/ranking", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(owner, "GET", "/api/v1/employers/jobs/"+j.ID+"/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(owner, "PUT", "/api/v1/employers/applications/"+app.ID+"/status", `{"status":"REVIEWED"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"REVIEWED"`)

	rec = do(owner, "GET", "/api/v1/employers/approved", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isApproved":true`)

	rec = do(owner, "PUT", "/api/v1/employers/profile", `{"website":"https://acme.io"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"website":"https://acme.io"`)
}
