package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/metrics"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
	"jobboard/pkg/logging"
)

const minPasswordLength = 6

// Service 身份与认证
type Service struct {
	store   storage.UserStore
	cfg     Config
	now     func() time.Time
	log     *logging.Logger
	metrics *metrics.Metrics
}

// NewService 创建认证服务
func NewService(store storage.UserStore, cfg Config, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		log:     logging.Default("auth"),
		metrics: m,
	}
}

// SetClock 替换时钟（测试用）
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Config 返回认证配置
func (s *Service) Config() Config {
	return s.cfg
}

// RegisterInput 注册参数；FullName 用于求职者，CompanyName 用于雇主
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`
}

// Result 签发结果
type Result struct {
	Token     string     `json:"token"`
	Type      string     `json:"type"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UserID    string     `json:"id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func (in *RegisterInput) validate() (model.Role, error) {
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.CompanyName = strings.TrimSpace(in.CompanyName)

	if in.Email == "" || !emailRegex.MatchString(in.Email) {
		return "", apperr.Validation("a valid email is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Role) == "" {
		return "", apperr.Validation("role is required")
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return "", apperr.Validation("unknown role %q", in.Role)
	}
	switch role {
	case model.RoleAdmin:
		return "", apperr.Validation("admin accounts cannot be self-registered")
	case model.RoleJobSeeker:
		if in.FullName == "" {
			return "", apperr.Validation("fullName is required for job seekers")
		}
	case model.RoleEmployer:
		if in.CompanyName == "" {
			return "", apperr.Validation("companyName is required for employers")
		}
	}
	return role, nil
}

// Register 注册账号并创建对应角色资料，雇主初始为未审批
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	role, err := in.validate()
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := HashPassword(in.Password, s.cfg.bcryptCost())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           model.NewID(model.PrefixUser),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var seeker *model.JobSeeker
	var employer *model.Employer
	switch role {
	case model.RoleJobSeeker:
		seeker = &model.JobSeeker{
			ID:                model.NewID(model.PrefixJobSeeker),
			UserID:            user.ID,
			FullName:          in.FullName,
			Phone:             strings.TrimSpace(in.Phone),
			ProfileVisibility: model.VisibilityPublic,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
	case model.RoleEmployer:
		employer = &model.Employer{
			ID:           model.NewID(model.PrefixEmployer),
			UserID:       user.ID,
			CompanyName:  in.CompanyName,
			CompanyEmail: in.Email,
			IsApproved:   false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	if err := s.store.CreateUserWithProfile(ctx, user, seeker, employer); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Internal(err)
	}

	s.metrics.RecordRegistration(string(role))
	s.log.WithContext(ctx).Info("user registered", "user_id", user.ID, "role", role)
	return s.issue(user, now)
}

// Login 校验凭证；密码错误返回 Unauthenticated，账号停用返回 Forbidden
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		s.metrics.RecordLogin("bad_credentials")
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	if !user.IsActive {
		s.metrics.RecordLogin("deactivated")
		return nil, apperr.Forbidden("account is deactivated")
	}

	s.metrics.RecordLogin("ok")
	return s.issue(user, s.now().UTC())
}

// Refresh 用现有令牌换新令牌，不再校验密码
func (s *Service) Refresh(ctx context.Context, token string) (*Result, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Validation("token is required")
	}
	now := s.now().UTC()
	claims, err := ParseTokenForRefresh(s.cfg, token, now)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid token")
	}

	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated("user no longer exists")
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("account is deactivated")
	}
	return s.issue(user, now)
}

// Authenticate 校验访问令牌，返回请求主体（中间件使用）
func (s *Service) Authenticate(token string) (*access.Principal, error) {
	claims, err := ParseToken(s.cfg, token, s.now())
	if err != nil {
		return nil, apperr.Unauthenticated("invalid or expired token")
	}
	if !claims.Role.Valid() {
		return nil, apperr.Unauthenticated("invalid token role")
	}
	return &access.Principal{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// Me 当前用户
func (s *Service) Me(ctx context.Context, p *access.Principal) (*model.User, error) {
	if p == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	user, err := s.store.GetUserByID(ctx, p.UserID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// ChangePassword 修改密码；当前密码不匹配返回 Validation
func (s *Service) ChangePassword(ctx context.Context, p *access.Principal, current, next string) error {
	user, err := s.Me(ctx, p)
	if err != nil {
		return err
	}
	if !CheckPassword(current, user.PasswordHash) {
		return apperr.Validation("current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := HashPassword(next, s.cfg.bcryptCost())
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, hash, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(err)
	}
	s.log.WithContext(ctx).Info("password changed")
	return nil
}

// EmailExists 邮箱是否已注册
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, apperr.Validation("email is required")
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return false, apperr.Internal(err)
	}
	return user != nil, nil
}

func (s *Service) issue(user *model.User, now time.Time) (*Result, error) {
	token, expiresAt, err := GenerateToken(s.cfg, user, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Result{
		Token:     token,
		Type:      "Bearer",
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员账号存在（启动时调用）
// 邮箱已被非管理员账号占用时返回错误，不做角色升级（角色不可变）
func (s *Service) EnsureAdminUser(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return apperr.Internal(err)
	}
	if existing != nil {
		if existing.Role != model.RoleAdmin {
			return apperr.Conflict("admin email %s is already used by a %s account", email, existing.Role)
		}
		s.log.Info("admin user already exists", "email", email, "user_id", existing.ID)
		return nil
	}

	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := HashPassword(password, s.cfg.bcryptCost())
	if err != nil {
		return apperr.Internal(err)
	}
	now := s.now().UTC()
	user := &model.User{
		ID:           model.NewID(model.PrefixUser),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return apperr.Internal(err)
	}
	s.log.Info("created admin user", "email", email, "user_id", user.ID)
	return nil
}
