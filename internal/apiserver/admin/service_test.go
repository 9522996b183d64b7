package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/apiserver/apitest"
	"jobboard/internal/apiserver/job"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage/repository"
)

func newTestService(t *testing.T) (*Service, *repository.Store) {
	t.Helper()
	store := apitest.NewStore(t)
	jobs := job.NewService(store, nil)
	jobs.SetClock(apitest.Clock())
	svc := NewService(store, jobs, nil)
	svc.SetClock(apitest.Clock())
	return svc, store
}

func TestEmployerApproval(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	admin := apitest.SeedAdmin(t, store, "root@x.io")
	_, pending := apitest.SeedEmployer(t, store, "hr@acme.io", false)
	apitest.SeedEmployer(t, store, "hr@globex.io", true)

	list, err := svc.Employers(ctx, admin, ptr(false))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	e, err := svc.ApproveEmployer(ctx, admin, pending.ID)
	require.NoError(t, err)
	assert.True(t, e.IsApproved)

	list, err = svc.Employers(ctx, admin, ptr(true))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	e, err = svc.RejectEmployer(ctx, admin, pending.ID, "incomplete registration")
	require.NoError(t, err)
	assert.False(t, e.IsApproved)

	found, err := svc.SearchEmployers(ctx, admin, "globex")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Company hr@globex.io", found[0].CompanyName)

	_, err = svc.ApproveEmployer(ctx, admin, "emp-missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAdminOnly(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seeker, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	employer, emp := apitest.SeedEmployer(t, store, "hr@acme.io", false)

	tests := []struct {
		name string
		call func() error
	}{
		{"求职者列雇主", func() error { _, err := svc.Employers(ctx, seeker, nil); return err }},
		{"雇主批准自己", func() error { _, err := svc.ApproveEmployer(ctx, employer, emp.ID); return err }},
		{"求职者列用户", func() error { _, err := svc.Users(ctx, seeker, model.Unpaged); return err }},
		{"雇主看总览", func() error { _, err := svc.Dashboard(ctx, employer); return err }},
		{"雇主看审核记录", func() error { _, err := svc.ModerationLogs(ctx, employer, ""); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperr.Is(tt.call(), apperr.KindForbidden))
		})
	}

	_, err := svc.Users(ctx, nil, model.Unpaged)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestUserManagement(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	admin := apitest.SeedAdmin(t, store, "root@x.io")
	other := apitest.SeedAdmin(t, store, "ops@x.io")
	alice, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	apitest.SeedEmployer(t, store, "hr@acme.io", true)

	u, err := svc.DeactivateUser(ctx, admin, alice.UserID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	u, err = svc.ActivateUser(ctx, admin, alice.UserID)
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	_, err = svc.DeactivateUser(ctx, admin, admin.UserID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = svc.DeleteUser(ctx, admin, other.UserID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, svc.DeleteUser(ctx, admin, alice.UserID))
	u, err = svc.User(ctx, admin, alice.UserID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = svc.User(ctx, admin, "usr-missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	seekers, err := svc.UsersByRole(ctx, admin, "job_seeker")
	require.NoError(t, err)
	require.Len(t, seekers, 1)
	assert.Equal(t, "alice@x.io", seekers[0].Email)

	_, err = svc.UsersByRole(ctx, admin, "guest")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	found, err := svc.SearchUsers(ctx, admin, "acme")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	page, err := svc.Users(ctx, admin, model.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, int64(4), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)

	st, err := svc.UserStatistics(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatistics{
		TotalUsers:    4,
		ActiveUsers:   3,
		InactiveUsers: 1,
		JobSeekers:    1,
		Employers:     1,
		Admins:        2,
	}, st)
}

func TestSelfService(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	admin := apitest.SeedAdmin(t, store, "root@x.io")
	alice, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")

	u, err := svc.Account(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", u.Email)

	require.NoError(t, svc.DeactivateSelf(ctx, alice))
	u, err = svc.Account(ctx, alice)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	err = svc.DeactivateSelf(ctx, admin)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Account(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestJobModerationAndDashboard(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	admin := apitest.SeedAdmin(t, store, "root@x.io")
	_, emp := apitest.SeedEmployer(t, store, "hr@acme.io", true)
	apitest.SeedEmployer(t, store, "hr@new.io", false)
	apitest.SeedSeeker(t, store, "alice@x.io", "Go")

	a := apitest.SeedJob(t, store, emp.ID, "Go Dev", model.JobStatusPending)
	b := apitest.SeedJob(t, store, emp.ID, "Spam", model.JobStatusPending)
	apitest.SeedJob(t, store, emp.ID, "Old", model.JobStatusClosed)

	pending, err := svc.PendingJobs(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	j, err := svc.ApproveJob(ctx, admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusApproved, j.Status)

	j, err = svc.RejectJob(ctx, admin, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRejected, j.Status)

	logs, err := svc.ModerationLogs(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = svc.ModerationLogs(ctx, admin, b.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ModerationRejected, logs[0].Action)
	assert.NotEmpty(t, logs[0].Reason)

	d, err := svc.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.Users.TotalUsers)
	assert.Equal(t, model.JobStatistics{TotalJobs: 3, ActiveJobs: 1, ClosedJobs: 1, RejectedJobs: 1}, d.Jobs)
	assert.Equal(t, model.EmployerCounts{TotalEmployers: 2, ApprovedEmployers: 1, PendingEmployers: 1}, d.Employers)
	assert.Zero(t, d.TotalApplications)
}
