// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：repository/（PostgreSQL、SQLite）、mongostore/
//   - 初始化时通过依赖注入传入实现
//
// 约定：
//   - 单条查询（Get*）未命中返回 (nil, nil)
//   - 更新/删除未命中返回 ErrNotFound
//   - 唯一约束冲突返回 ErrDuplicate
//   - 时间一律以 UTC 存储，"当前时间" 由调用方传入
package storage

import (
	"context"
	"time"

	"jobboard/internal/shared/model"
)

// ============================================================================
// 查询条件
// ============================================================================

// UserFilter 用户查询条件，零值字段不参与过滤
type UserFilter struct {
	Role          model.Role
	EmailContains string // 大小写不敏感
}

// EmployerFilter 雇主查询条件
type EmployerFilter struct {
	Approved        *bool
	CompanyContains string // 大小写不敏感
}

// JobFilter 职位查询条件
//
// ActiveOnly 表示 status=APPROVED 且 (deadline 为空或 >= Now)。
// Keyword 匹配标题或描述，Location 为子串匹配，均大小写不敏感。
type JobFilter struct {
	Status     model.JobStatus
	EmployerID string
	JobType    model.JobType
	ActiveOnly bool
	Now        time.Time
	Keyword    string
	Location   string
}

// ApplicationFilter 投递查询条件
type ApplicationFilter struct {
	JobID       string
	JobSeekerID string
	EmployerID  string
	CVID        string
	Status      model.ApplicationStatus
}

// ============================================================================
// 领域存储接口
// ============================================================================

// UserStore 用户存储
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	// CreateUserWithProfile 原子创建用户及其角色资料（seeker/employer 至多一个非 nil）
	CreateUserWithProfile(ctx context.Context, user *model.User, seeker *model.JobSeeker, employer *model.Employer) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, filter UserFilter, page model.PageRequest) ([]*model.User, int64, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string, now time.Time) error
	SetUserActive(ctx context.Context, id string, active bool, now time.Time) error
	UserStatistics(ctx context.Context) (model.UserStatistics, error)
}

// ProfileStore 角色资料存储
type ProfileStore interface {
	GetJobSeeker(ctx context.Context, id string) (*model.JobSeeker, error)
	GetJobSeekerByUserID(ctx context.Context, userID string) (*model.JobSeeker, error)
	UpdateJobSeeker(ctx context.Context, seeker *model.JobSeeker) error

	GetEmployer(ctx context.Context, id string) (*model.Employer, error)
	GetEmployerByUserID(ctx context.Context, userID string) (*model.Employer, error)
	UpdateEmployer(ctx context.Context, employer *model.Employer) error
	ListEmployers(ctx context.Context, filter EmployerFilter) ([]*model.Employer, error)
	SetEmployerApproved(ctx context.Context, id string, approved bool, now time.Time) error
	EmployerCounts(ctx context.Context) (model.EmployerCounts, error)
}

// JobStore 职位存储
type JobStore interface {
	CreateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	UpdateJob(ctx context.Context, job *model.Job) error
	DeleteJob(ctx context.Context, id string) error
	ListJobs(ctx context.Context, filter JobFilter, page model.PageRequest) ([]*model.Job, int64, error)
	// CountJobsByStatus 按状态计数，employerID 为空时统计全部
	CountJobsByStatus(ctx context.Context, employerID string) (map[model.JobStatus]int64, error)
}

// ModerationStore 审核记录存储
type ModerationStore interface {
	// ModerateJob 在同一事务中修改职位状态并追加审核记录
	ModerateJob(ctx context.Context, jobID string, status model.JobStatus, entry *model.ModerationLog) error
	// ListModerationLogs 按时间倒序，jobID 为空时返回全部
	ListModerationLogs(ctx context.Context, jobID string) ([]*model.ModerationLog, error)
}

// ApplicationStore 投递存储
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *model.Application) error
	GetApplication(ctx context.Context, id string) (*model.Application, error)
	ListApplications(ctx context.Context, filter ApplicationFilter, page model.PageRequest) ([]*model.Application, int64, error)
	// UpdateApplicationStatus 条件更新：当前状态不是 from 时返回 ErrConflict
	UpdateApplicationStatus(ctx context.Context, id string, from, to model.ApplicationStatus, now time.Time) error
	UpdateApplicationNotes(ctx context.Context, id, notes string, now time.Time) error
	DeleteApplication(ctx context.Context, id string) error
	CountApplicationsByStatus(ctx context.Context, filter ApplicationFilter) (map[model.ApplicationStatus]int64, error)
}

// CVStore 简历存储
type CVStore interface {
	// CreateCV 创建简历；defaultIfFirst 为 true 且该求职者尚无简历时设为默认
	CreateCV(ctx context.Context, cv *model.CV, defaultIfFirst bool) error
	GetCV(ctx context.Context, id string) (*model.CV, error)
	ListCVs(ctx context.Context, jobSeekerID string) ([]*model.CV, error)
	GetLatestCV(ctx context.Context, jobSeekerID string) (*model.CV, error)
	GetDefaultCV(ctx context.Context, jobSeekerID string) (*model.CV, error)
	// SetDefaultCV 在同一事务中取消其他默认并设置目标
	SetDefaultCV(ctx context.Context, jobSeekerID, cvID string) error
	UpdateCVMetadata(ctx context.Context, id string, title, description *string) error
	DeleteCV(ctx context.Context, id string) error
}

// ============================================================================
// 组合接口
// ============================================================================

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	ProfileStore
	JobStore
	ModerationStore
	ApplicationStore
	CVStore

	Close() error
}
