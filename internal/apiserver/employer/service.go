// Package employer 雇主工作台：资料、职位、投递、候选人排序与统计
//
// 工作台只服务雇主本人，底层操作复用 job / application / profile / matching 服务。
package employer

import (
	"context"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/application"
	"jobboard/internal/apiserver/job"
	"jobboard/internal/apiserver/matching"
	"jobboard/internal/apiserver/profile"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
)

// Store 统计所需的存储
type Store interface {
	access.ProfileLookup
	CountJobsByStatus(ctx context.Context, employerID string) (map[model.JobStatus]int64, error)
	CountApplicationsByStatus(ctx context.Context, filter storage.ApplicationFilter) (map[model.ApplicationStatus]int64, error)
}

// Service 雇主工作台
type Service struct {
	store    Store
	resolver *access.Resolver
	jobs     *job.Service
	apps     *application.Service
	profiles *profile.Service
	matcher  *matching.Service
}

// NewService 创建雇主工作台服务
func NewService(store Store, jobs *job.Service, apps *application.Service, profiles *profile.Service, matcher *matching.Service) *Service {
	return &Service{
		store:    store,
		resolver: access.NewResolver(store),
		jobs:     jobs,
		apps:     apps,
		profiles: profiles,
		matcher:  matcher,
	}
}

// Approval 审批状态
type Approval struct {
	EmployerID string `json:"employerId"`
	IsApproved bool   `json:"isApproved"`
}

// Profile 雇主资料
func (s *Service) Profile(ctx context.Context, p *access.Principal) (*model.Employer, error) {
	return s.profiles.Employer(ctx, p)
}

// UpdateProfile 更新雇主资料
func (s *Service) UpdateProfile(ctx context.Context, p *access.Principal, patch model.EmployerPatch) (*model.Employer, error) {
	return s.profiles.UpdateEmployer(ctx, p, patch)
}

// Jobs 我的职位，status 为空时返回全部
func (s *Service) Jobs(ctx context.Context, p *access.Principal, status model.JobStatus) ([]*model.Job, error) {
	return s.jobs.ListMine(ctx, p, status)
}

// Applications 投递到我全部职位的申请
func (s *Service) Applications(ctx context.Context, p *access.Principal) ([]*model.Application, error) {
	return s.apps.ListForMyJobs(ctx, p)
}

// JobApplications 某个职位的投递
func (s *Service) JobApplications(ctx context.Context, p *access.Principal, jobID string) ([]*model.Application, error) {
	if _, err := s.resolver.Employer(ctx, p); err != nil {
		return nil, err
	}
	return s.apps.ListByJob(ctx, p, jobID)
}

// Ranking 某个职位的候选人按匹配分排序
func (s *Service) Ranking(ctx context.Context, p *access.Principal, jobID string) ([]matching.RankedApplicant, error) {
	if _, err := s.resolver.Employer(ctx, p); err != nil {
		return nil, err
	}
	return s.matcher.RankApplicants(ctx, p, jobID)
}

// UpdateApplicationStatus 修改投递状态
func (s *Service) UpdateApplicationStatus(ctx context.Context, p *access.Principal, id, status string) (*model.Application, error) {
	if _, err := s.resolver.Employer(ctx, p); err != nil {
		return nil, err
	}
	return s.apps.UpdateStatus(ctx, p, id, status)
}

// Approval 当前雇主是否已通过审批
func (s *Service) Approval(ctx context.Context, p *access.Principal) (*Approval, error) {
	emp, err := s.resolver.Employer(ctx, p)
	if err != nil {
		return nil, err
	}
	return &Approval{EmployerID: emp.ProfileID, IsApproved: emp.Approved}, nil
}

// Statistics 雇主统计
func (s *Service) Statistics(ctx context.Context, p *access.Principal) (model.EmployerStatistics, error) {
	emp, err := s.resolver.Employer(ctx, p)
	if err != nil {
		return model.EmployerStatistics{}, err
	}
	jobs, err := s.store.CountJobsByStatus(ctx, emp.ProfileID)
	if err != nil {
		return model.EmployerStatistics{}, apperr.Internal(err)
	}
	apps, err := s.store.CountApplicationsByStatus(ctx, storage.ApplicationFilter{EmployerID: emp.ProfileID})
	if err != nil {
		return model.EmployerStatistics{}, apperr.Internal(err)
	}

	js := model.NewJobStatistics(jobs)
	as := model.NewApplicationStatistics(apps)
	return model.EmployerStatistics{
		TotalJobs:               js.TotalJobs,
		ActiveJobs:              js.ActiveJobs,
		PendingJobs:             js.PendingJobs,
		ClosedJobs:              js.ClosedJobs,
		TotalApplications:       as.TotalApplications,
		PendingApplications:     as.SubmittedApplications,
		ReviewedApplications:    as.ReviewedApplications,
		ShortlistedApplications: as.ShortlistedApplications,
		HiredApplications:       as.HiredApplications,
	}, nil
}
