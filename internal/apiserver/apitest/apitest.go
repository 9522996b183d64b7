// Package apitest 服务层测试的公共夹具
//
// 所有服务测试都跑在 SQLite 内存库上，经过真实的方言和建表语句。
package apitest

import (
	"context"
	"testing"
	"time"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/shared/model"
	sqlitedriver "jobboard/internal/shared/storage/driver/sqlite"
	"jobboard/internal/shared/storage/repository"
)

// Now 测试用固定时间
var Now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// Clock 返回固定时间的时钟
func Clock() func() time.Time {
	return func() time.Time { return Now }
}

// NewStore 创建 SQLite 内存存储
func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	dialect := sqlitedriver.NewDialect()
	if err := dialect.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func newUser(email string, role model.Role) *model.User {
	return &model.User{
		ID:           model.NewID(model.PrefixUser),
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		CreatedAt:    Now,
		UpdatedAt:    Now,
	}
}

func principal(u *model.User) *access.Principal {
	return &access.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// SeedSeeker 创建求职者账号
func SeedSeeker(t testing.TB, store *repository.Store, email, skills string) (*access.Principal, *model.JobSeeker) {
	t.Helper()
	u := newUser(email, model.RoleJobSeeker)
	js := &model.JobSeeker{
		ID:        model.NewID(model.PrefixJobSeeker),
		UserID:    u.ID,
		FullName:  "Seeker " + email,
		Skills:    skills,
		CreatedAt: Now,
		UpdatedAt: Now,
	}
	if err := store.CreateUserWithProfile(context.Background(), u, js, nil); err != nil {
		t.Fatalf("seed seeker: %v", err)
	}
	js.Email = email
	return principal(u), js
}

// SeedEmployer 创建雇主账号
func SeedEmployer(t testing.TB, store *repository.Store, email string, approved bool) (*access.Principal, *model.Employer) {
	t.Helper()
	u := newUser(email, model.RoleEmployer)
	e := &model.Employer{
		ID:           model.NewID(model.PrefixEmployer),
		UserID:       u.ID,
		CompanyName:  "Company " + email,
		CompanyEmail: email,
		IsApproved:   approved,
		CreatedAt:    Now,
		UpdatedAt:    Now,
	}
	if err := store.CreateUserWithProfile(context.Background(), u, nil, e); err != nil {
		t.Fatalf("seed employer: %v", err)
	}
	return principal(u), e
}

// SeedAdmin 创建管理员账号
func SeedAdmin(t testing.TB, store *repository.Store, email string) *access.Principal {
	t.Helper()
	u := newUser(email, model.RoleAdmin)
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return principal(u)
}

// SeedJob 直接写入一个职位
func SeedJob(t testing.TB, store *repository.Store, employerID, title string, status model.JobStatus) *model.Job {
	t.Helper()
	j := &model.Job{
		ID:          model.NewID(model.PrefixJob),
		EmployerID:  employerID,
		Title:       title,
		Description: "Description of " + title,
		Location:    "Berlin",
		JobType:     model.JobTypeFullTime,
		Status:      status,
		CreatedAt:   Now,
		UpdatedAt:   Now,
	}
	if err := store.CreateJob(context.Background(), j); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return j
}
