// Package profile 角色资料的读取与局部更新
package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
	"jobboard/pkg/logging"
)

// Store 资料服务依赖的存储
type Store interface {
	access.ProfileLookup
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateJobSeeker(ctx context.Context, seeker *model.JobSeeker) error
	UpdateEmployer(ctx context.Context, employer *model.Employer) error
}

// Service 资料服务
type Service struct {
	store    Store
	resolver *access.Resolver
	now      func() time.Time
	log      *logging.Logger
}

// NewService 创建资料服务
func NewService(store Store) *Service {
	return &Service{
		store:    store,
		resolver: access.NewResolver(store),
		now:      time.Now,
		log:      logging.Default("profile"),
	}
}

// SetClock 替换时钟（测试用）
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Complete 按角色返回完整资料：求职者、雇主资料或管理员账号
func (s *Service) Complete(ctx context.Context, p *access.Principal) (any, error) {
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	switch v := c.(type) {
	case access.Seeker:
		return v.Profile, nil
	case access.Employer:
		return v.Profile, nil
	case access.Admin:
		u, err := s.store.GetUserByID(ctx, v.User)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if u == nil {
			return nil, apperr.NotFound("user not found")
		}
		return u, nil
	}
	return nil, apperr.Forbidden("unsupported role")
}

// Seeker 当前求职者资料
func (s *Service) Seeker(ctx context.Context, p *access.Principal) (*model.JobSeeker, error) {
	c, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return nil, err
	}
	return c.Profile, nil
}

// UpdateSeeker 局部更新求职者资料
func (s *Service) UpdateSeeker(ctx context.Context, p *access.Principal, patch model.JobSeekerPatch) (*model.JobSeeker, error) {
	c, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return nil, err
	}
	if patch.FullName != nil && strings.TrimSpace(*patch.FullName) == "" {
		return nil, apperr.Validation("fullName cannot be empty")
	}
	if patch.ProfileVisibility != nil {
		v := model.ProfileVisibility(strings.ToUpper(string(*patch.ProfileVisibility)))
		if v != model.VisibilityPublic && v != model.VisibilityPrivate {
			return nil, apperr.Validation("profileVisibility must be PUBLIC or PRIVATE")
		}
		patch.ProfileVisibility = &v
	}

	js := *c.Profile
	patch.Apply(&js)
	js.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateJobSeeker(ctx, &js); err != nil {
		return nil, s.mapErr(err)
	}
	s.log.WithContext(ctx).Info("job seeker profile updated", "job_seeker_id", js.ID)
	return &js, nil
}

// Employer 当前雇主资料
func (s *Service) Employer(ctx context.Context, p *access.Principal) (*model.Employer, error) {
	c, err := s.resolver.Employer(ctx, p)
	if err != nil {
		return nil, err
	}
	return c.Profile, nil
}

// UpdateEmployer 局部更新雇主资料，审批状态不受影响
func (s *Service) UpdateEmployer(ctx context.Context, p *access.Principal, patch model.EmployerPatch) (*model.Employer, error) {
	c, err := s.resolver.Employer(ctx, p)
	if err != nil {
		return nil, err
	}
	if patch.CompanyName != nil && strings.TrimSpace(*patch.CompanyName) == "" {
		return nil, apperr.Validation("companyName cannot be empty")
	}

	e := *c.Profile
	patch.Apply(&e)
	e.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateEmployer(ctx, &e); err != nil {
		return nil, s.mapErr(err)
	}
	s.log.WithContext(ctx).Info("employer profile updated", "employer_id", e.ID)
	return &e, nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("profile not found")
	}
	return apperr.Internal(err)
}
