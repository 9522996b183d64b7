package matching

import (
	"context"
	"sort"
	"time"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
)

// Store 匹配服务依赖的存储
type Store interface {
	access.ProfileLookup
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListApplications(ctx context.Context, filter storage.ApplicationFilter, page model.PageRequest) ([]*model.Application, int64, error)
}

// Service 匹配服务
type Service struct {
	store    Store
	resolver *access.Resolver
	now      func() time.Time
}

// NewService 创建匹配服务
func NewService(store Store) *Service {
	return &Service{store: store, resolver: access.NewResolver(store), now: time.Now}
}

// SetClock 替换时钟（测试用）
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Result 求职者对某职位的匹配结果
type Result struct {
	JobID      string `json:"jobId"`
	JobTitle   string `json:"jobTitle"`
	MatchScore int    `json:"matchScore"`
	MatchLevel Level  `json:"matchLevel"`
}

// RankedApplicant 带匹配分的投递
type RankedApplicant struct {
	*model.Application
	MatchScore int   `json:"matchScore"`
	MatchLevel Level `json:"matchLevel"`
}

// MatchScore 当前求职者的技能与上线职位的匹配分
func (s *Service) MatchScore(ctx context.Context, p *access.Principal, jobID string) (*Result, error) {
	seeker, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if job == nil || !job.IsActive(s.now().UTC()) {
		return nil, apperr.NotFound("job not found")
	}
	score := Score(seeker.Profile.Skills, JobText(job.Title, job.Description))
	return &Result{JobID: job.ID, JobTitle: job.Title, MatchScore: score, MatchLevel: LevelOf(score)}, nil
}

// RankApplicants 按匹配分从高到低排列职位的投递，同分保持投递时间倒序
func (s *Service) RankApplicants(ctx context.Context, p *access.Principal, jobID string) ([]RankedApplicant, error) {
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if job == nil {
		return nil, apperr.NotFound("job not found")
	}
	if !access.CanManageJob(c, job) {
		return nil, apperr.Forbidden("you can only rank applicants for your own jobs")
	}

	apps, _, err := s.store.ListApplications(ctx, storage.ApplicationFilter{JobID: jobID}, model.Unpaged)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	text := JobText(job.Title, job.Description)
	ranked := make([]RankedApplicant, 0, len(apps))
	for _, app := range apps {
		score := Score(app.SeekerSkills, text)
		ranked = append(ranked, RankedApplicant{Application: app, MatchScore: score, MatchLevel: LevelOf(score)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchScore > ranked[j].MatchScore
	})
	return ranked, nil
}
