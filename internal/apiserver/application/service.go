// Package application 职位投递：提交、状态流转、雇主备注与可见性规则
package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/metrics"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
	"jobboard/pkg/logging"
)

// Store 投递服务依赖的存储
type Store interface {
	storage.ApplicationStore
	GetJob(ctx context.Context, id string) (*model.Job, error)
	GetCV(ctx context.Context, id string) (*model.CV, error)
	GetDefaultCV(ctx context.Context, jobSeekerID string) (*model.CV, error)
	access.ProfileLookup
}

// Service 投递服务
type Service struct {
	store    Store
	resolver *access.Resolver
	now      func() time.Time
	log      *logging.Logger
	metrics  *metrics.Metrics
}

// NewService 创建投递服务
func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		resolver: access.NewResolver(store),
		now:      time.Now,
		log:      logging.Default("application"),
		metrics:  m,
	}
}

// SetClock 替换时钟（测试用）
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SubmitInput 提交投递；CVID 为空时使用默认简历
type SubmitInput struct {
	JobID       string  `json:"jobId"`
	CVID        *string `json:"cvId"`
	CoverLetter string  `json:"coverLetter"`
}

// Submit 求职者投递职位
func (s *Service) Submit(ctx context.Context, p *access.Principal, in SubmitInput) (*model.Application, error) {
	seeker, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.JobID) == "" {
		return nil, apperr.Validation("jobId is required")
	}

	job, err := s.store.GetJob(ctx, in.JobID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if job == nil {
		return nil, apperr.NotFound("job not found")
	}
	if job.Status != model.JobStatusApproved {
		return nil, apperr.Validation("cannot apply to a job that is not approved")
	}

	cvID, err := s.resolveCV(ctx, seeker, in.CVID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	app := &model.Application{
		ID:          model.NewID(model.PrefixApplication),
		JobID:       job.ID,
		JobSeekerID: seeker.ProfileID,
		EmployerID:  job.EmployerID,
		CVID:        cvID,
		Status:      model.ApplicationSubmitted,
		CoverLetter: in.CoverLetter,
		AppliedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Conflict("you have already applied to this job")
		}
		return nil, apperr.Internal(err)
	}

	s.metrics.RecordApplicationSubmitted()
	s.log.WithContext(ctx).Info("application submitted", "application_id", app.ID, "job_id", job.ID)
	return s.get(ctx, app.ID)
}

// resolveCV 校验指定简历归属；未指定时取默认简历（可能为空）
func (s *Service) resolveCV(ctx context.Context, seeker access.Seeker, id *string) (*string, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		cv, err := s.store.GetDefaultCV(ctx, seeker.ProfileID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if cv == nil {
			return nil, nil
		}
		return &cv.ID, nil
	}

	cv, err := s.store.GetCV(ctx, *id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cv == nil {
		return nil, apperr.NotFound("cv not found")
	}
	if cv.JobSeekerID != seeker.ProfileID {
		return nil, apperr.Forbidden("cv does not belong to you")
	}
	return &cv.ID, nil
}

// Get 读取投递，按可见性规则校验
func (s *Service) Get(ctx context.Context, p *access.Principal, id string) (*model.Application, error) {
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	app, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanViewApplication(c, app) {
		return nil, apperr.Forbidden("you cannot view this application")
	}
	return app, nil
}

// List 分页列出调用方可见的投递，status 为空时不过滤
//
// 求职者只看到自己的投递，雇主只看到自己职位收到的投递，管理员看到全部。
func (s *Service) List(ctx context.Context, p *access.Principal, status model.ApplicationStatus, page model.PageRequest) (model.Page[*model.Application], error) {
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return model.Page[*model.Application]{}, err
	}
	filter := visibleTo(c)
	filter.Status = status
	apps, total, err := s.store.ListApplications(ctx, filter, page)
	if err != nil {
		return model.Page[*model.Application]{}, apperr.Internal(err)
	}
	return model.NewPage(apps, page, total), nil
}

func visibleTo(c access.Capability) storage.ApplicationFilter {
	switch v := c.(type) {
	case access.Seeker:
		return storage.ApplicationFilter{JobSeekerID: v.ProfileID}
	case access.Employer:
		return storage.ApplicationFilter{EmployerID: v.ProfileID}
	}
	return storage.ApplicationFilter{}
}

// ListMine 求职者自己的投递
func (s *Service) ListMine(ctx context.Context, p *access.Principal) ([]*model.Application, error) {
	seeker, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.listAll(ctx, storage.ApplicationFilter{JobSeekerID: seeker.ProfileID})
}

// ListForMyJobs 雇主所有职位收到的投递
func (s *Service) ListForMyJobs(ctx context.Context, p *access.Principal) ([]*model.Application, error) {
	emp, err := s.resolver.Employer(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.listAll(ctx, storage.ApplicationFilter{EmployerID: emp.ProfileID})
}

// ListByJob 某职位的投递：职位所属雇主或管理员
func (s *Service) ListByJob(ctx context.Context, p *access.Principal, jobID string) ([]*model.Application, error) {
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
		return nil, apperr.Forbidden("you can only view applications for your own jobs")
	}
	return s.listAll(ctx, storage.ApplicationFilter{JobID: jobID})
}

func (s *Service) listAll(ctx context.Context, filter storage.ApplicationFilter) ([]*model.Application, error) {
	apps, _, err := s.store.ListApplications(ctx, filter, model.Unpaged)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return apps, nil
}

// UpdateStatus 修改投递状态：职位所属雇主或管理员
//
// 唯一禁止的迁移是 REJECTED -> HIRED。写入是条件更新，
// 读取之后状态被并发修改时返回 Conflict。
func (s *Service) UpdateStatus(ctx context.Context, p *access.Principal, id, status string) (*model.Application, error) {
	next, ok := model.ParseApplicationStatus(status)
	if !ok {
		return nil, apperr.Validation("unknown application status %q", status)
	}
	c, app, err := s.manageable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !app.Status.CanTransitionTo(next) {
		return nil, apperr.InvalidTransition("cannot move application from %s to %s", app.Status, next)
	}

	err = s.store.UpdateApplicationStatus(ctx, id, app.Status, next, s.now().UTC())
	switch {
	case errors.Is(err, storage.ErrConflict):
		return nil, apperr.Conflict("application status was changed concurrently, reload and retry")
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperr.NotFound("application not found")
	case err != nil:
		return nil, apperr.Internal(err)
	}

	s.metrics.RecordApplicationStatus(string(next))
	s.log.WithContext(ctx).AuditLog("application.status", c.UserID(), id, "from", app.Status, "to", next)
	return s.get(ctx, id)
}

// UpdateNotes 覆盖雇主备注，权限同 UpdateStatus
func (s *Service) UpdateNotes(ctx context.Context, p *access.Principal, id, notes string) (*model.Application, error) {
	if _, _, err := s.manageable(ctx, p, id); err != nil {
		return nil, err
	}
	if err := s.store.UpdateApplicationNotes(ctx, id, notes, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("application not found")
		}
		return nil, apperr.Internal(err)
	}
	return s.get(ctx, id)
}

// Delete 撤回投递：只有投递者本人
func (s *Service) Delete(ctx context.Context, p *access.Principal, id string) error {
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return err
	}
	app, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanWithdrawApplication(c, app) {
		return apperr.Forbidden("only the applicant can withdraw an application")
	}
	if err := s.store.DeleteApplication(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("application not found")
		}
		return apperr.Internal(err)
	}
	s.log.WithContext(ctx).Info("application withdrawn", "application_id", id)
	return nil
}

// Statistics 求职者投递统计
func (s *Service) Statistics(ctx context.Context, p *access.Principal) (model.ApplicationStatistics, error) {
	seeker, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return model.ApplicationStatistics{}, err
	}
	counts, err := s.store.CountApplicationsByStatus(ctx, storage.ApplicationFilter{JobSeekerID: seeker.ProfileID})
	if err != nil {
		return model.ApplicationStatistics{}, apperr.Internal(err)
	}
	return model.NewApplicationStatistics(counts), nil
}

func (s *Service) get(ctx context.Context, id string) (*model.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if app == nil {
		return nil, apperr.NotFound("application not found")
	}
	return app, nil
}

func (s *Service) manageable(ctx context.Context, p *access.Principal, id string) (access.Capability, *model.Application, error) {
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	if _, isSeeker := c.(access.Seeker); isSeeker {
		return nil, nil, apperr.Forbidden("employer or admin role required")
	}
	app, err := s.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !access.CanManageApplication(c, app) {
		return nil, nil, apperr.Forbidden("you can only manage applications for your own jobs")
	}
	return c, app, nil
}
