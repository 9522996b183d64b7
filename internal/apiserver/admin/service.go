// Package admin 管理后台：雇主审批、用户管理、职位审核与总览统计
package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/job"
	"jobboard/internal/apiserver/metrics"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
	"jobboard/pkg/logging"
)

// Store 管理后台依赖的存储
type Store interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, filter storage.UserFilter, page model.PageRequest) ([]*model.User, int64, error)
	SetUserActive(ctx context.Context, id string, active bool, now time.Time) error
	UserStatistics(ctx context.Context) (model.UserStatistics, error)

	GetEmployer(ctx context.Context, id string) (*model.Employer, error)
	ListEmployers(ctx context.Context, filter storage.EmployerFilter) ([]*model.Employer, error)
	SetEmployerApproved(ctx context.Context, id string, approved bool, now time.Time) error
	EmployerCounts(ctx context.Context) (model.EmployerCounts, error)

	CountJobsByStatus(ctx context.Context, employerID string) (map[model.JobStatus]int64, error)
	CountApplicationsByStatus(ctx context.Context, filter storage.ApplicationFilter) (map[model.ApplicationStatus]int64, error)
}

// Service 管理后台服务
type Service struct {
	store   Store
	jobs    *job.Service
	now     func() time.Time
	log     *logging.Logger
	metrics *metrics.Metrics
}

// NewService 创建管理后台服务
func NewService(store Store, jobs *job.Service, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		jobs:    jobs,
		now:     time.Now,
		log:     logging.Default("admin"),
		metrics: m,
	}
}

// SetClock 替换时钟（测试用）
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ============================================================================
// 雇主审批
// ============================================================================

// Employers 按审批状态列出雇主，approved 为 nil 时返回全部
func (s *Service) Employers(ctx context.Context, p *access.Principal, approved *bool) ([]*model.Employer, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.listEmployers(ctx, storage.EmployerFilter{Approved: approved})
}

// SearchEmployers 按公司名检索
func (s *Service) SearchEmployers(ctx context.Context, p *access.Principal, name string) ([]*model.Employer, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.listEmployers(ctx, storage.EmployerFilter{CompanyContains: strings.TrimSpace(name)})
}

func (s *Service) listEmployers(ctx context.Context, filter storage.EmployerFilter) ([]*model.Employer, error) {
	list, err := s.store.ListEmployers(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// ApproveEmployer 批准雇主发布职位
func (s *Service) ApproveEmployer(ctx context.Context, p *access.Principal, id string) (*model.Employer, error) {
	return s.setEmployerApproval(ctx, p, id, true, "")
}

// RejectEmployer 取消雇主资格，理由只写日志
func (s *Service) RejectEmployer(ctx context.Context, p *access.Principal, id, reason string) (*model.Employer, error) {
	return s.setEmployerApproval(ctx, p, id, false, reason)
}

func (s *Service) setEmployerApproval(ctx context.Context, p *access.Principal, id string, approved bool, reason string) (*model.Employer, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if err := s.store.SetEmployerApproved(ctx, id, approved, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("employer not found")
		}
		return nil, apperr.Internal(err)
	}

	action := "employer.rejected"
	if approved {
		action = "employer.approved"
	}
	s.metrics.RecordModeration(strings.ReplaceAll(action, ".", "_"))
	s.log.WithContext(ctx).AuditLog(action, p.UserID, id, "reason", reason)

	e, err := s.store.GetEmployer(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if e == nil {
		return nil, apperr.NotFound("employer not found")
	}
	return e, nil
}

// ============================================================================
// 用户管理
// ============================================================================

// Users 分页列出用户
func (s *Service) Users(ctx context.Context, p *access.Principal, page model.PageRequest) (model.Page[*model.User], error) {
	if err := access.RequireAdmin(p); err != nil {
		return model.Page[*model.User]{}, err
	}
	users, total, err := s.store.ListUsers(ctx, storage.UserFilter{}, page)
	if err != nil {
		return model.Page[*model.User]{}, apperr.Internal(err)
	}
	return model.NewPage(users, page, total), nil
}

// User 按 ID 读取用户
func (s *Service) User(ctx context.Context, p *access.Principal, id string) (*model.User, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.user(ctx, id)
}

// UsersByRole 按角色列出用户
func (s *Service) UsersByRole(ctx context.Context, p *access.Principal, role string) ([]*model.User, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	r, ok := model.ParseRole(role)
	if !ok {
		return nil, apperr.Validation("unknown role %q", role)
	}
	return s.listUsers(ctx, storage.UserFilter{Role: r})
}

// SearchUsers 按邮箱检索
func (s *Service) SearchUsers(ctx context.Context, p *access.Principal, email string) ([]*model.User, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.listUsers(ctx, storage.UserFilter{EmailContains: strings.TrimSpace(email)})
}

func (s *Service) listUsers(ctx context.Context, filter storage.UserFilter) ([]*model.User, error) {
	users, _, err := s.store.ListUsers(ctx, filter, model.Unpaged)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// ActivateUser 启用账号
func (s *Service) ActivateUser(ctx context.Context, p *access.Principal, id string) (*model.User, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.setActive(ctx, p, id, true)
}

// DeactivateUser 停用账号，管理员不能停用自己
func (s *Service) DeactivateUser(ctx context.Context, p *access.Principal, id string) (*model.User, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if id == p.UserID {
		return nil, apperr.Validation("you cannot deactivate your own account")
	}
	return s.setActive(ctx, p, id, false)
}

// DeleteUser 软删除（停用），不能删除管理员账号
func (s *Service) DeleteUser(ctx context.Context, p *access.Principal, id string) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	u, err := s.user(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == model.RoleAdmin {
		return apperr.Forbidden("admin accounts cannot be deleted")
	}
	_, err = s.setActive(ctx, p, id, false)
	return err
}

// UserStatistics 用户统计
func (s *Service) UserStatistics(ctx context.Context, p *access.Principal) (model.UserStatistics, error) {
	if err := access.RequireAdmin(p); err != nil {
		return model.UserStatistics{}, err
	}
	st, err := s.store.UserStatistics(ctx)
	if err != nil {
		return model.UserStatistics{}, apperr.Internal(err)
	}
	return st, nil
}

// ============================================================================
// 自助
// ============================================================================

// Account 当前账号
func (s *Service) Account(ctx context.Context, p *access.Principal) (*model.User, error) {
	if p == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	return s.user(ctx, p.UserID)
}

// DeactivateSelf 停用自己的账号；管理员不能停用自己
func (s *Service) DeactivateSelf(ctx context.Context, p *access.Principal) error {
	if p == nil {
		return apperr.Unauthenticated("authentication required")
	}
	if p.IsAdmin() {
		return apperr.Validation("admin accounts cannot deactivate themselves")
	}
	_, err := s.setActive(ctx, p, p.UserID, false)
	return err
}

func (s *Service) user(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (s *Service) setActive(ctx context.Context, p *access.Principal, id string, active bool) (*model.User, error) {
	if err := s.store.SetUserActive(ctx, id, active, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	action := "user.deactivated"
	if active {
		action = "user.activated"
	}
	s.log.WithContext(ctx).AuditLog(action, p.UserID, id)
	return s.user(ctx, id)
}

// ============================================================================
// 职位审核
// ============================================================================

// PendingJobs 待审核职位
func (s *Service) PendingJobs(ctx context.Context, p *access.Principal) ([]*model.Job, error) {
	return s.jobs.ListPending(ctx, p)
}

// ApproveJob 审核通过
func (s *Service) ApproveJob(ctx context.Context, p *access.Principal, id string) (*model.Job, error) {
	return s.jobs.Approve(ctx, p, id)
}

// RejectJob 审核拒绝
func (s *Service) RejectJob(ctx context.Context, p *access.Principal, id, reason string) (*model.Job, error) {
	return s.jobs.Reject(ctx, p, id, reason)
}

// ModerationLogs 审核记录，jobID 为空时返回全部
func (s *Service) ModerationLogs(ctx context.Context, p *access.Principal, jobID string) ([]*model.ModerationLog, error) {
	return s.jobs.ModerationLogs(ctx, p, jobID)
}

// ============================================================================
// 总览
// ============================================================================

// Dashboard 管理后台总览统计
//
// 各项分别查询，不保证同一时刻的一致性。
func (s *Service) Dashboard(ctx context.Context, p *access.Principal) (model.DashboardStatistics, error) {
	if err := access.RequireAdmin(p); err != nil {
		return model.DashboardStatistics{}, err
	}
	users, err := s.store.UserStatistics(ctx)
	if err != nil {
		return model.DashboardStatistics{}, apperr.Internal(err)
	}
	jobs, err := s.store.CountJobsByStatus(ctx, "")
	if err != nil {
		return model.DashboardStatistics{}, apperr.Internal(err)
	}
	employers, err := s.store.EmployerCounts(ctx)
	if err != nil {
		return model.DashboardStatistics{}, apperr.Internal(err)
	}
	apps, err := s.store.CountApplicationsByStatus(ctx, storage.ApplicationFilter{})
	if err != nil {
		return model.DashboardStatistics{}, apperr.Internal(err)
	}
	return model.DashboardStatistics{
		Users:             users,
		Jobs:              model.NewJobStatistics(jobs),
		Employers:         employers,
		TotalApplications: model.NewApplicationStatistics(apps).TotalApplications,
	}, nil
}
