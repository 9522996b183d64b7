// Package seeker 求职者工作台
package seeker

import (
	"context"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/application"
	"jobboard/internal/apiserver/job"
	"jobboard/internal/shared/model"
)

// Service 求职者工作台，所有操作都要求求职者身份
type Service struct {
	resolver *access.Resolver
	jobs     *job.Service
	apps     *application.Service
}

// NewService 创建求职者工作台服务
func NewService(profiles access.ProfileLookup, jobs *job.Service, apps *application.Service) *Service {
	return &Service{resolver: access.NewResolver(profiles), jobs: jobs, apps: apps}
}

func (s *Service) require(ctx context.Context, p *access.Principal) error {
	_, err := s.resolver.Seeker(ctx, p)
	return err
}

// Jobs 可投递的职位
func (s *Service) Jobs(ctx context.Context, p *access.Principal, page model.PageRequest) (model.Page[*model.Job], error) {
	if err := s.require(ctx, p); err != nil {
		return model.Page[*model.Job]{}, err
	}
	return s.jobs.ListActive(ctx, page)
}

// Job 上线职位详情
func (s *Service) Job(ctx context.Context, p *access.Principal, id string) (*model.Job, error) {
	if err := s.require(ctx, p); err != nil {
		return nil, err
	}
	return s.jobs.GetActive(ctx, id)
}

// Search 检索职位，规则同公开检索
func (s *Service) Search(ctx context.Context, p *access.Principal, q job.SearchQuery, page model.PageRequest) (model.Page[*model.Job], error) {
	if err := s.require(ctx, p); err != nil {
		return model.Page[*model.Job]{}, err
	}
	return s.jobs.Search(ctx, q, page)
}

// Applications 我的投递
func (s *Service) Applications(ctx context.Context, p *access.Principal) ([]*model.Application, error) {
	return s.apps.ListMine(ctx, p)
}

// Application 我的某条投递
func (s *Service) Application(ctx context.Context, p *access.Principal, id string) (*model.Application, error) {
	if err := s.require(ctx, p); err != nil {
		return nil, err
	}
	return s.apps.Get(ctx, p, id)
}

// Apply 投递职位
func (s *Service) Apply(ctx context.Context, p *access.Principal, in application.SubmitInput) (*model.Application, error) {
	return s.apps.Submit(ctx, p, in)
}

// Statistics 我的投递统计
func (s *Service) Statistics(ctx context.Context, p *access.Principal) (model.ApplicationStatistics, error) {
	return s.apps.Statistics(ctx, p)
}
