// Package access 请求主体与访问控制
//
// 认证中间件把 Principal 放入 context，服务层通过 Resolver 把它解析为
// 三种能力之一（Seeker / Employer / Admin），再用本包的谓词判断资源归属。
// 谓词都是纯函数，不访问存储。
package access

import (
	"context"

	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/pkg/logging"
)

// Principal 已认证的请求主体（来自令牌）
type Principal struct {
	UserID string
	Email  string
	Role   model.Role
}

// IsAdmin 是否管理员（不需要查资料即可判断）
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == model.RoleAdmin
}

type ctxKey struct{}

// WithPrincipal 注入请求主体，同时写入日志上下文。p 为 nil 时原样返回
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if p == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, ctxKey{}, p)
	ctx = logging.ContextWith(ctx, logging.UserIDKey, p.UserID)
	return logging.ContextWith(ctx, logging.RoleKey, string(p.Role))
}

// FromContext 获取请求主体，未认证时为 nil
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKey{}).(*Principal)
	return p
}

// ============================================================================
// 能力
// ============================================================================

// Capability 主体解析后的能力，封闭集合：Seeker、Employer、Admin
type Capability interface {
	UserID() string
	capability()
}

// Seeker 求职者能力，ProfileID 为 JobSeeker.ID
type Seeker struct {
	User      string
	ProfileID string
	Profile   *model.JobSeeker
}

// Employer 雇主能力，ProfileID 为 Employer.ID
type Employer struct {
	User      string
	ProfileID string
	Approved  bool
	Profile   *model.Employer
}

// Admin 管理员能力
type Admin struct {
	User string
}

func (s Seeker) UserID() string   { return s.User }
func (e Employer) UserID() string { return e.User }
func (a Admin) UserID() string    { return a.User }

func (Seeker) capability()   {}
func (Employer) capability() {}
func (Admin) capability()    {}

// ProfileLookup 解析能力所需的资料查询
type ProfileLookup interface {
	GetJobSeekerByUserID(ctx context.Context, userID string) (*model.JobSeeker, error)
	GetEmployerByUserID(ctx context.Context, userID string) (*model.Employer, error)
}

// Resolver 把 Principal 解析为 Capability
type Resolver struct {
	profiles ProfileLookup
}

// NewResolver 创建解析器
func NewResolver(profiles ProfileLookup) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve 按角色加载资料；未认证返回 Unauthenticated，资料缺失返回 NotFound
func (r *Resolver) Resolve(ctx context.Context, p *Principal) (Capability, error) {
	if p == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	switch p.Role {
	case model.RoleAdmin:
		return Admin{User: p.UserID}, nil
	case model.RoleJobSeeker:
		js, err := r.profiles.GetJobSeekerByUserID(ctx, p.UserID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if js == nil {
			return nil, apperr.NotFound("job seeker profile not found")
		}
		return Seeker{User: p.UserID, ProfileID: js.ID, Profile: js}, nil
	case model.RoleEmployer:
		e, err := r.profiles.GetEmployerByUserID(ctx, p.UserID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if e == nil {
			return nil, apperr.NotFound("employer profile not found")
		}
		return Employer{User: p.UserID, ProfileID: e.ID, Approved: e.IsApproved, Profile: e}, nil
	default:
		return nil, apperr.Forbidden("unknown role %q", p.Role)
	}
}

// Seeker 要求求职者能力
func (r *Resolver) Seeker(ctx context.Context, p *Principal) (Seeker, error) {
	c, err := r.Resolve(ctx, p)
	if err != nil {
		return Seeker{}, err
	}
	s, ok := c.(Seeker)
	if !ok {
		return Seeker{}, apperr.Forbidden("job seeker role required")
	}
	return s, nil
}

// Employer 要求雇主能力
func (r *Resolver) Employer(ctx context.Context, p *Principal) (Employer, error) {
	c, err := r.Resolve(ctx, p)
	if err != nil {
		return Employer{}, err
	}
	e, ok := c.(Employer)
	if !ok {
		return Employer{}, apperr.Forbidden("employer role required")
	}
	return e, nil
}

// RequireAdmin 要求管理员
func RequireAdmin(p *Principal) error {
	if p == nil {
		return apperr.Unauthenticated("authentication required")
	}
	if !p.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	return nil
}

// ============================================================================
// 谓词
// ============================================================================

// CanManageJob 修改/删除/关闭职位：职位所属雇主或管理员
func CanManageJob(c Capability, job *model.Job) bool {
	switch v := c.(type) {
	case Admin:
		return true
	case Employer:
		return v.ProfileID == job.EmployerID
	}
	return false
}

// CanViewApplication 读投递：投递者本人、职位所属雇主、管理员
func CanViewApplication(c Capability, app *model.Application) bool {
	switch v := c.(type) {
	case Admin:
		return true
	case Employer:
		return v.ProfileID == app.EmployerID
	case Seeker:
		return v.ProfileID == app.JobSeekerID
	}
	return false
}

// CanManageApplication 修改投递状态/备注：职位所属雇主或管理员
func CanManageApplication(c Capability, app *model.Application) bool {
	switch v := c.(type) {
	case Admin:
		return true
	case Employer:
		return v.ProfileID == app.EmployerID
	}
	return false
}

// CanWithdrawApplication 删除投递：只有投递者本人，管理员也不行
func CanWithdrawApplication(c Capability, app *model.Application) bool {
	s, ok := c.(Seeker)
	return ok && s.ProfileID == app.JobSeekerID
}

// CanReadCV 读简历：本人、管理员；雇主仅限投递到其职位时附带的简历
func CanReadCV(c Capability, cv *model.CV, attachedToEmployerJob bool) bool {
	switch v := c.(type) {
	case Admin:
		return true
	case Employer:
		return attachedToEmployerJob
	case Seeker:
		return v.ProfileID == cv.JobSeekerID
	}
	return false
}

// CanMutateCV 修改/删除简历：只有本人
func CanMutateCV(c Capability, cv *model.CV) bool {
	s, ok := c.(Seeker)
	return ok && s.ProfileID == cv.JobSeekerID
}
