package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/pkg/logging"
)

type fakeProfiles struct {
	seekers   map[string]*model.JobSeeker
	employers map[string]*model.Employer
}

func (f fakeProfiles) GetJobSeekerByUserID(_ context.Context, userID string) (*model.JobSeeker, error) {
	return f.seekers[userID], nil
}

func (f fakeProfiles) GetEmployerByUserID(_ context.Context, userID string) (*model.Employer, error) {
	return f.employers[userID], nil
}

var (
	seekerA   = Seeker{User: "usr-a", ProfileID: "sk-a"}
	seekerB   = Seeker{User: "usr-b", ProfileID: "sk-b"}
	employerX = Employer{User: "usr-x", ProfileID: "emp-x", Approved: true}
	employerY = Employer{User: "usr-y", ProfileID: "emp-y", Approved: true}
	admin     = Admin{User: "usr-admin"}
)

func TestResolve(t *testing.T) {
	r := NewResolver(fakeProfiles{
		seekers:   map[string]*model.JobSeeker{"usr-a": {ID: "sk-a", UserID: "usr-a"}},
		employers: map[string]*model.Employer{"usr-x": {ID: "emp-x", UserID: "usr-x", IsApproved: true}},
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		p        *Principal
		wantKind apperr.Kind
		want     Capability
	}{
		{"未认证", nil, apperr.KindUnauthenticated, nil},
		{"管理员", &Principal{UserID: "usr-admin", Role: model.RoleAdmin}, 0, admin},
		{"求职者", &Principal{UserID: "usr-a", Role: model.RoleJobSeeker}, 0, seekerA},
		{"雇主", &Principal{UserID: "usr-x", Role: model.RoleEmployer}, 0, employerX},
		{"求职者资料缺失", &Principal{UserID: "usr-z", Role: model.RoleJobSeeker}, apperr.KindNotFound, nil},
		{"未知角色", &Principal{UserID: "usr-q", Role: "GUEST"}, apperr.KindForbidden, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := r.Resolve(ctx, tt.p)
			if tt.want == nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.UserID(), c.UserID())
			assert.IsType(t, tt.want, c)
		})
	}
}

func TestResolverRoleGates(t *testing.T) {
	r := NewResolver(fakeProfiles{
		seekers:   map[string]*model.JobSeeker{"usr-a": {ID: "sk-a"}},
		employers: map[string]*model.Employer{"usr-x": {ID: "emp-x"}},
	})
	ctx := context.Background()

	_, err := r.Seeker(ctx, &Principal{UserID: "usr-x", Role: model.RoleEmployer})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	e, err := r.Employer(ctx, &Principal{UserID: "usr-x", Role: model.RoleEmployer})
	require.NoError(t, err)
	assert.False(t, e.Approved)

	assert.True(t, apperr.Is(RequireAdmin(&Principal{Role: model.RoleEmployer}), apperr.KindForbidden))
	assert.True(t, apperr.Is(RequireAdmin(nil), apperr.KindUnauthenticated))
	assert.NoError(t, RequireAdmin(&Principal{Role: model.RoleAdmin}))
}

func TestCanManageJob(t *testing.T) {
	job := &model.Job{ID: "job-1", EmployerID: "emp-x"}
	tests := []struct {
		name string
		c    Capability
		want bool
	}{
		{"所属雇主", employerX, true},
		{"其他雇主", employerY, false},
		{"管理员", admin, true},
		{"求职者", seekerA, false},
		{"无能力", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanManageJob(tt.c, job))
		})
	}
}

func TestApplicationPredicates(t *testing.T) {
	app := &model.Application{ID: "app-1", JobSeekerID: "sk-a", EmployerID: "emp-x"}
	tests := []struct {
		name                     string
		c                        Capability
		view, manage, withdrawOK bool
	}{
		{"投递者本人", seekerA, true, false, true},
		{"其他求职者", seekerB, false, false, false},
		{"职位所属雇主", employerX, true, true, false},
		{"其他雇主", employerY, false, false, false},
		{"管理员", admin, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.view, CanViewApplication(tt.c, app))
			assert.Equal(t, tt.manage, CanManageApplication(tt.c, app))
			assert.Equal(t, tt.withdrawOK, CanWithdrawApplication(tt.c, app))
		})
	}
}

func TestCVPredicates(t *testing.T) {
	cv := &model.CV{ID: "cv-1", JobSeekerID: "sk-a"}

	assert.True(t, CanReadCV(seekerA, cv, false))
	assert.False(t, CanReadCV(seekerB, cv, true))
	assert.True(t, CanReadCV(admin, cv, false))
	assert.False(t, CanReadCV(employerX, cv, false))
	assert.True(t, CanReadCV(employerX, cv, true))

	assert.True(t, CanMutateCV(seekerA, cv))
	assert.False(t, CanMutateCV(seekerB, cv))
	assert.False(t, CanMutateCV(admin, cv))
	assert.False(t, CanMutateCV(employerX, cv))
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	p := &Principal{UserID: "usr-a", Email: "a@example.com", Role: model.RoleJobSeeker}
	ctx = WithPrincipal(ctx, p)
	assert.Same(t, p, FromContext(ctx))
	assert.False(t, FromContext(ctx).IsAdmin())
}

func TestWithNilPrincipal(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() { ctx = WithPrincipal(ctx, nil) })
	assert.Nil(t, FromContext(ctx))
	assert.Nil(t, ctx.Value(logging.UserIDKey))
}
