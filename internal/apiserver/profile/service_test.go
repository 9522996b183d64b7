package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/apiserver/apitest"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage/repository"
)

func newTestService(t *testing.T) (*Service, *repository.Store) {
	t.Helper()
	store := apitest.NewStore(t)
	svc := NewService(store)
	svc.SetClock(apitest.Clock())
	return svc, store
}

func ptr[T any](v T) *T { return &v }

func TestComplete(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seeker, js := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	employer, emp := apitest.SeedEmployer(t, store, "hr@acme.io", false)
	admin := apitest.SeedAdmin(t, store, "root@x.io")

	v, err := svc.Complete(ctx, seeker)
	require.NoError(t, err)
	require.IsType(t, &model.JobSeeker{}, v)
	assert.Equal(t, js.ID, v.(*model.JobSeeker).ID)
	assert.Equal(t, "alice@x.io", v.(*model.JobSeeker).Email)

	v, err = svc.Complete(ctx, employer)
	require.NoError(t, err)
	require.IsType(t, &model.Employer{}, v)
	assert.Equal(t, emp.ID, v.(*model.Employer).ID)

	v, err = svc.Complete(ctx, admin)
	require.NoError(t, err)
	require.IsType(t, &model.User{}, v)
	assert.Equal(t, model.RoleAdmin, v.(*model.User).Role)

	_, err = svc.Complete(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestUpdateSeeker(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seeker, js := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	employer, _ := apitest.SeedEmployer(t, store, "hr@acme.io", true)

	private := model.ProfileVisibility("private")
	updated, err := svc.UpdateSeeker(ctx, seeker, model.JobSeekerPatch{
		Headline:          ptr("Backend engineer"),
		Skills:            ptr("Go, Kubernetes"),
		ProfileVisibility: &private,
	})
	require.NoError(t, err)
	assert.Equal(t, "Backend engineer", updated.Headline)
	assert.Equal(t, model.VisibilityPrivate, updated.ProfileVisibility)
	assert.Equal(t, js.FullName, updated.FullName, "未提供的字段保持不变")

	reloaded, err := svc.Seeker(ctx, seeker)
	require.NoError(t, err)
	assert.Equal(t, "Go, Kubernetes", reloaded.Skills)

	tests := []struct {
		name  string
		patch model.JobSeekerPatch
	}{
		{"姓名为空", model.JobSeekerPatch{FullName: ptr("  ")}},
		{"可见性非法", model.JobSeekerPatch{ProfileVisibility: ptr(model.ProfileVisibility("friends"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateSeeker(ctx, seeker, tt.patch)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}

	_, err = svc.UpdateSeeker(ctx, employer, model.JobSeekerPatch{Headline: ptr("x")})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestUpdateEmployerKeepsApproval(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	employer, emp := apitest.SeedEmployer(t, store, "hr@acme.io", false)
	seeker, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")

	updated, err := svc.UpdateEmployer(ctx, employer, model.EmployerPatch{
		Description: ptr("We build things"),
		Industry:    ptr("Software"),
	})
	require.NoError(t, err)
	assert.Equal(t, "We build things", updated.Description)
	assert.Equal(t, emp.CompanyName, updated.CompanyName)
	assert.False(t, updated.IsApproved)

	reloaded, err := store.GetEmployer(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Software", reloaded.Industry)
	assert.False(t, reloaded.IsApproved)

	_, err = svc.UpdateEmployer(ctx, employer, model.EmployerPatch{CompanyName: ptr("")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Employer(ctx, seeker)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}
