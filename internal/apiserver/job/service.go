// Package job 职位目录：发布、修改、审核状态机与公开检索
package job

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

const (
	approveReason       = "Job approved by admin"
	defaultRejectReason = "Job rejected by admin"
)

// Store 职位服务依赖的存储
type Store interface {
	storage.JobStore
	storage.ModerationStore
	storage.ApplicationStore
	access.ProfileLookup
}

// Service 职位目录服务
type Service struct {
	store    Store
	resolver *access.Resolver
	now      func() time.Time
	log      *logging.Logger
	metrics  *metrics.Metrics
}

// NewService 创建职位服务
func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		resolver: access.NewResolver(store),
		now:      time.Now,
		log:      logging.Default("job"),
		metrics:  m,
	}
}

// SetClock 替换时钟（测试用）
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ============================================================================
// 输入类型
// ============================================================================

// CreateInput 发布职位
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	JobType     string `json:"jobType"`
	SalaryRange string `json:"salaryRange"`
	Deadline    string `json:"deadline"`
}

// UpdateInput 局部更新，缺省字段保持不变
type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	JobType     *string `json:"jobType"`
	SalaryRange *string `json:"salaryRange"`
	Deadline    *string `json:"deadline"`
	Status      *string `json:"status"`
}

// SearchQuery 检索条件，按 Keyword、Location、Type、Title 顺序取第一个非空项
type SearchQuery struct {
	Keyword  string
	Location string
	Type     string
	Title    string
}

func parseJobType(s string) (model.JobType, error) {
	if strings.TrimSpace(s) == "" {
		return model.JobTypeFullTime, nil
	}
	t, ok := model.ParseJobType(s)
	if !ok {
		return "", apperr.Validation("unknown job type %q", s)
	}
	return t, nil
}

func parseDeadline(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := model.ParseDeadline(s)
	if err != nil {
		return nil, apperr.Validation("invalid deadline %q", s)
	}
	return &d, nil
}

// Patch 把请求转换为领域补丁
func (in UpdateInput) Patch() (model.JobPatch, error) {
	var p model.JobPatch
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return p, apperr.Validation("title cannot be empty")
		}
		p.Title = &title
	}
	if in.Description != nil {
		if strings.TrimSpace(*in.Description) == "" {
			return p, apperr.Validation("description cannot be empty")
		}
		p.Description = in.Description
	}
	p.Location = in.Location
	p.SalaryRange = in.SalaryRange
	if in.JobType != nil {
		t, ok := model.ParseJobType(*in.JobType)
		if !ok {
			return p, apperr.Validation("unknown job type %q", *in.JobType)
		}
		p.JobType = &t
	}
	if in.Deadline != nil {
		d, err := parseDeadline(*in.Deadline)
		if err != nil {
			return p, err
		}
		p.Deadline = d
	}
	if in.Status != nil {
		st, ok := model.ParseJobStatus(*in.Status)
		if !ok {
			return p, apperr.Validation("unknown job status %q", *in.Status)
		}
		p.Status = &st
	}
	return p, nil
}

// ============================================================================
// 雇主操作
// ============================================================================

// Create 发布职位：调用方必须是已审批雇主，新职位一律为 PENDING
func (s *Service) Create(ctx context.Context, p *access.Principal, in CreateInput) (*model.Job, error) {
	emp, err := s.resolver.Employer(ctx, p)
	if err != nil {
		return nil, err
	}
	if !emp.Approved {
		return nil, apperr.Forbidden("employer account is not approved yet")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.Validation("description is required")
	}
	jobType, err := parseJobType(in.JobType)
	if err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &model.Job{
		ID:          model.NewID(model.PrefixJob),
		EmployerID:  emp.ProfileID,
		Title:       title,
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		JobType:     jobType,
		SalaryRange: strings.TrimSpace(in.SalaryRange),
		Status:      model.JobStatusPending,
		Deadline:    deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, apperr.Internal(err)
	}
	s.log.WithContext(ctx).Info("job created", "job_id", job.ID, "employer_id", emp.ProfileID)
	return s.get(ctx, job.ID)
}

// Update 局部更新职位
//
// 管理员可以把状态改成任意值；雇主只能改成 CLOSED（规则同 Close），
// 其他状态请求被忽略，其余字段照常写入。
func (s *Service) Update(ctx context.Context, p *access.Principal, id string, in UpdateInput) (*model.Job, error) {
	patch, err := in.Patch()
	if err != nil {
		return nil, err
	}
	c, job, err := s.manageable(ctx, p, id)
	if err != nil {
		return nil, err
	}

	patch.ApplyFields(job)
	if patch.Status != nil && *patch.Status != job.Status {
		if _, isAdmin := c.(access.Admin); isAdmin {
			job.Status = *patch.Status
		} else if *patch.Status == model.JobStatusClosed {
			if err := checkClosable(job); err != nil {
				return nil, err
			}
			job.Status = model.JobStatusClosed
		} else {
			s.log.WithContext(ctx).Info("ignored employer status change",
				"job_id", job.ID, "from", job.Status, "to", *patch.Status)
		}
	}

	job.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, s.mapErr(err)
	}
	return s.get(ctx, job.ID)
}

// Delete 物理删除职位及其投递和审核记录
func (s *Service) Delete(ctx context.Context, p *access.Principal, id string) error {
	if _, _, err := s.manageable(ctx, p, id); err != nil {
		return err
	}
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return s.mapErr(err)
	}
	s.log.WithContext(ctx).Info("job deleted", "job_id", id)
	return nil
}

// Close 关闭职位
//
// 雇主只能关闭已上线（APPROVED）的职位，重复关闭不报错；管理员不受限制。
func (s *Service) Close(ctx context.Context, p *access.Principal, id string) (*model.Job, error) {
	c, job, err := s.manageable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if job.Status == model.JobStatusClosed {
		return job, nil
	}
	if _, isAdmin := c.(access.Admin); !isAdmin {
		if err := checkClosable(job); err != nil {
			return nil, err
		}
	}

	job.Status = model.JobStatusClosed
	job.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, s.mapErr(err)
	}
	s.log.WithContext(ctx).Info("job closed", "job_id", id)
	return s.get(ctx, id)
}

func checkClosable(job *model.Job) error {
	switch job.Status {
	case model.JobStatusApproved, model.JobStatusClosed:
		return nil
	}
	return apperr.InvalidTransition("cannot close a job in status %s", job.Status)
}

// ListMine 当前雇主的职位，status 为空时返回全部
func (s *Service) ListMine(ctx context.Context, p *access.Principal, status model.JobStatus) ([]*model.Job, error) {
	emp, err := s.resolver.Employer(ctx, p)
	if err != nil {
		return nil, err
	}
	jobs, _, err := s.store.ListJobs(ctx, storage.JobFilter{EmployerID: emp.ProfileID, Status: status}, model.Unpaged)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return jobs, nil
}

// ============================================================================
// 管理员操作
// ============================================================================

// Approve 审核通过，写入审核记录
func (s *Service) Approve(ctx context.Context, p *access.Principal, id string) (*model.Job, error) {
	return s.moderate(ctx, p, id, model.JobStatusApproved, model.ModerationApproved, approveReason)
}

// Reject 审核拒绝，reason 为空时使用默认理由
func (s *Service) Reject(ctx context.Context, p *access.Principal, id, reason string) (*model.Job, error) {
	if strings.TrimSpace(reason) == "" {
		reason = defaultRejectReason
	}
	return s.moderate(ctx, p, id, model.JobStatusRejected, model.ModerationRejected, reason)
}

func (s *Service) moderate(ctx context.Context, p *access.Principal, id string,
	status model.JobStatus, action model.ModerationAction, reason string) (*model.Job, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	entry := &model.ModerationLog{
		ID:        model.NewID(model.PrefixModerationLog),
		JobID:     id,
		AdminID:   p.UserID,
		Action:    action,
		Reason:    reason,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.ModerateJob(ctx, id, status, entry); err != nil {
		return nil, s.mapErr(err)
	}

	s.metrics.RecordModeration(strings.ToLower(string(action)))
	s.log.WithContext(ctx).AuditLog("job."+strings.ToLower(string(action)), p.UserID, id, "reason", reason)
	return s.get(ctx, id)
}

// ListByStatus 按状态分页（管理员）
func (s *Service) ListByStatus(ctx context.Context, p *access.Principal, status model.JobStatus, page model.PageRequest) (model.Page[*model.Job], error) {
	if err := access.RequireAdmin(p); err != nil {
		return model.Page[*model.Job]{}, err
	}
	return s.list(ctx, storage.JobFilter{Status: status}, page)
}

// ListPending 待审核职位（管理员）
func (s *Service) ListPending(ctx context.Context, p *access.Principal) ([]*model.Job, error) {
	page, err := s.ListByStatus(ctx, p, model.JobStatusPending, model.Unpaged)
	if err != nil {
		return nil, err
	}
	return page.Content, nil
}

// Statistics 全站职位统计（管理员）
func (s *Service) Statistics(ctx context.Context, p *access.Principal) (model.JobStatistics, error) {
	if err := access.RequireAdmin(p); err != nil {
		return model.JobStatistics{}, err
	}
	counts, err := s.store.CountJobsByStatus(ctx, "")
	if err != nil {
		return model.JobStatistics{}, apperr.Internal(err)
	}
	return model.NewJobStatistics(counts), nil
}

// ModerationLogs 审核记录，按时间倒序；jobID 为空时返回全部
func (s *Service) ModerationLogs(ctx context.Context, p *access.Principal, jobID string) ([]*model.ModerationLog, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if jobID != "" {
		if _, err := s.get(ctx, jobID); err != nil {
			return nil, err
		}
	}
	logs, err := s.store.ListModerationLogs(ctx, jobID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return logs, nil
}

// ============================================================================
// 公开读取
// ============================================================================

// Get 职位详情
//
// 未上线或已过期的职位只对所属雇主、管理员和投递过该职位的求职者可见，
// 其他人看到 NotFound。
func (s *Service) Get(ctx context.Context, p *access.Principal, id string) (*model.Job, error) {
	job, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.IsActive(s.now()) {
		return job, nil
	}
	if p == nil {
		return nil, apperr.NotFound("job not found")
	}
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, apperr.NotFound("job not found")
	}
	if access.CanManageJob(c, job) || s.hasApplied(ctx, c, job.ID) {
		return job, nil
	}
	return nil, apperr.NotFound("job not found")
}

// hasApplied 求职者是否投递过该职位
func (s *Service) hasApplied(ctx context.Context, c access.Capability, jobID string) bool {
	seeker, ok := c.(access.Seeker)
	if !ok {
		return false
	}
	filter := storage.ApplicationFilter{JobID: jobID, JobSeekerID: seeker.ProfileID}
	_, total, err := s.store.ListApplications(ctx, filter, model.PageRequest{Size: 1})
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("check application failed", "job_id", jobID)
		return false
	}
	return total > 0
}

// GetActive 只返回公开集合中的职位（求职者工作台使用）
func (s *Service) GetActive(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.IsActive(s.now()) {
		return nil, apperr.NotFound("job not found")
	}
	return job, nil
}

// ListActive 公开职位：已审核且未过截止时间，默认按发布时间倒序
func (s *Service) ListActive(ctx context.Context, page model.PageRequest) (model.Page[*model.Job], error) {
	return s.list(ctx, s.activeFilter(), page)
}

// Search 按第一个非空条件检索
//
// 关键词和用工类型限定在公开集合内；地点检索不限定状态。
func (s *Service) Search(ctx context.Context, q SearchQuery, page model.PageRequest) (model.Page[*model.Job], error) {
	filter := s.activeFilter()
	switch {
	case strings.TrimSpace(q.Keyword) != "":
		filter.Keyword = strings.TrimSpace(q.Keyword)
	case strings.TrimSpace(q.Location) != "":
		filter = storage.JobFilter{Location: strings.TrimSpace(q.Location)}
	case strings.TrimSpace(q.Type) != "":
		t, ok := model.ParseJobType(q.Type)
		if !ok {
			return model.Page[*model.Job]{}, apperr.Validation("unknown job type %q", q.Type)
		}
		filter.JobType = t
	case strings.TrimSpace(q.Title) != "":
		filter.Keyword = strings.TrimSpace(q.Title)
	}
	return s.list(ctx, filter, page)
}

func (s *Service) activeFilter() storage.JobFilter {
	return storage.JobFilter{ActiveOnly: true, Now: s.now().UTC()}
}

func (s *Service) list(ctx context.Context, filter storage.JobFilter, page model.PageRequest) (model.Page[*model.Job], error) {
	jobs, total, err := s.store.ListJobs(ctx, filter, page)
	if err != nil {
		return model.Page[*model.Job]{}, apperr.Internal(err)
	}
	return model.NewPage(jobs, page, total), nil
}

// ============================================================================
// 内部工具
// ============================================================================

// get 读取职位视图（含雇主名称与投递数），写入后也用它重新读取
func (s *Service) get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if job == nil {
		return nil, apperr.NotFound("job not found")
	}
	return job, nil
}

// manageable 解析能力并校验职位归属
func (s *Service) manageable(ctx context.Context, p *access.Principal, id string) (access.Capability, *model.Job, error) {
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	if _, isSeeker := c.(access.Seeker); isSeeker {
		return nil, nil, apperr.Forbidden("employer or admin role required")
	}
	job, err := s.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !access.CanManageJob(c, job) {
		return nil, nil, apperr.Forbidden("you do not own this job")
	}
	return c, job, nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("job not found")
	}
	return apperr.Internal(err)
}
