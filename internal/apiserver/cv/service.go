// Package cv 求职者简历：上传、在线生成、默认简历与下载
//
// 文件内容存放在对象存储（本地目录或 MinIO），元数据存放在数据库。
package cv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/metrics"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/objstore"
	"jobboard/internal/shared/storage"
	"jobboard/pkg/logging"
)

// MaxFileSize 上传文件上限 5 MiB
const MaxFileSize = 5 << 20

// 允许的扩展名及其缺省 Content-Type
var allowedTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

const builtContentType = "text/plain"

// Store 简历服务依赖的存储
type Store interface {
	storage.CVStore
	ListApplications(ctx context.Context, filter storage.ApplicationFilter, page model.PageRequest) ([]*model.Application, int64, error)
	access.ProfileLookup
}

// Service 简历服务
type Service struct {
	store    Store
	objects  objstore.Store
	resolver *access.Resolver
	now      func() time.Time
	log      *logging.Logger
	metrics  *metrics.Metrics
}

// NewService 创建简历服务
func NewService(store Store, objects objstore.Store, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		objects:  objects,
		resolver: access.NewResolver(store),
		now:      time.Now,
		log:      logging.Default("cv"),
		metrics:  m,
	}
}

// SetClock 替换时钟（测试用）
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// UploadInput 上传的文件
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BuildInput 在线生成简历的字段，姓名/邮箱/电话缺省取自资料
type BuildInput struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Education   string `json:"education"`
	Experience  string `json:"experience"`
	Skills      string `json:"skills"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MetadataInput 标题/描述，nil 表示不修改
type MetadataInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// ValidateUpload 校验文件非空、大小和扩展名，返回小写扩展名
func ValidateUpload(fileName string, size int64) (string, error) {
	if size <= 0 {
		return "", apperr.Validation("please select a file to upload")
	}
	if size > MaxFileSize {
		return "", apperr.Validation("file size exceeds 5MB limit")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if _, ok := allowedTypes[ext]; !ok {
		return "", apperr.Validation("only PDF, DOC, and DOCX files are allowed")
	}
	return ext, nil
}

func contentTypeFor(ext, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" || declared == "application/octet-stream" {
		return allowedTypes[ext]
	}
	return declared
}

// Upload 上传简历文件，首份简历自动设为默认
func (s *Service) Upload(ctx context.Context, p *access.Principal, in UploadInput) (*model.CV, error) {
	seeker, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return nil, err
	}
	ext, err := ValidateUpload(in.FileName, in.Size)
	if err != nil {
		return nil, err
	}

	cv := &model.CV{
		ID:          model.NewID(model.PrefixCV),
		JobSeekerID: seeker.ProfileID,
		FileName:    filepath.Base(in.FileName),
		FileType:    contentTypeFor(ext, in.ContentType),
		FileSize:    in.Size,
		StoredName:  uuid.NewString() + "." + ext,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.save(ctx, cv, io.LimitReader(in.Body, MaxFileSize), true); err != nil {
		return nil, err
	}
	s.metrics.RecordCVStored("upload")
	s.log.WithContext(ctx).Info("cv uploaded", "cv_id", cv.ID, "size", cv.FileSize, "default", cv.IsDefault)
	return cv, nil
}

// RenderCV 生成纯文本简历内容
func RenderCV(in BuildInput) string {
	return fmt.Sprintf("CV\n===\n\nFull Name: %s\nEmail: %s\nPhone: %s\n\nEducation:\n%s\n\nExperience:\n%s\n\nSkills:\n%s\n",
		in.FullName, in.Email, in.PhoneNumber, in.Education, in.Experience, in.Skills)
}

// Build 由结构化字段生成纯文本简历并按上传同样的方式保存，不自动设为默认
func (s *Service) Build(ctx context.Context, p *access.Principal, in BuildInput) (*model.CV, error) {
	seeker, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return nil, err
	}
	profile := seeker.Profile
	in.FullName = firstNonEmpty(in.FullName, profile.FullName)
	in.Email = firstNonEmpty(in.Email, profile.Email)
	in.PhoneNumber = firstNonEmpty(in.PhoneNumber, profile.Phone)
	if strings.TrimSpace(in.FullName) == "" {
		return nil, apperr.Validation("fullName is required")
	}

	content := []byte(RenderCV(in))
	cv := &model.CV{
		ID:          model.NewID(model.PrefixCV),
		JobSeekerID: seeker.ProfileID,
		FileName:    "cv_" + in.FullName + ".txt",
		FileType:    builtContentType,
		FileSize:    int64(len(content)),
		StoredName:  uuid.NewString() + ".txt",
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.save(ctx, cv, bytes.NewReader(content), false); err != nil {
		return nil, err
	}
	s.metrics.RecordCVStored("build")
	s.log.WithContext(ctx).Info("cv built", "cv_id", cv.ID, "size", cv.FileSize)
	return cv, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// save 先写对象再写元数据；元数据写入失败时尽力删除对象
func (s *Service) save(ctx context.Context, cv *model.CV, body io.Reader, defaultIfFirst bool) error {
	if err := s.objects.Put(ctx, cv.StoredName, body, cv.FileSize, cv.FileType); err != nil {
		return apperr.Internal(err)
	}
	cv.FileURL = s.objects.Location(cv.StoredName)
	if err := s.store.CreateCV(ctx, cv, defaultIfFirst); err != nil {
		if derr := s.objects.Delete(ctx, cv.StoredName); derr != nil {
			s.log.WithContext(ctx).WithError(derr).Warn("failed to clean up orphaned cv object", "key", cv.StoredName)
		}
		return apperr.Internal(err)
	}
	return nil
}

// ============================================================================
// 读取
// ============================================================================

// List 当前求职者的全部简历，最新在前
func (s *Service) List(ctx context.Context, p *access.Principal) ([]*model.CV, error) {
	seeker, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return nil, err
	}
	cvs, err := s.store.ListCVs(ctx, seeker.ProfileID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return cvs, nil
}

// Latest 当前求职者最近的简历
func (s *Service) Latest(ctx context.Context, p *access.Principal) (*model.CV, error) {
	seeker, err := s.resolver.Seeker(ctx, p)
	if err != nil {
		return nil, err
	}
	cv, err := s.store.GetLatestCV(ctx, seeker.ProfileID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cv == nil {
		return nil, apperr.NotFound("no cv uploaded yet")
	}
	return cv, nil
}

// Get 读取简历元数据
//
// 本人和管理员可读；雇主只能读投递到自己职位时附带的简历。
func (s *Service) Get(ctx context.Context, p *access.Principal, id string) (*model.CV, error) {
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	cv, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	attached := false
	if emp, ok := c.(access.Employer); ok {
		if attached, err = s.attachedToEmployer(ctx, cv.ID, emp.ProfileID); err != nil {
			return nil, err
		}
	}
	if !access.CanReadCV(c, cv, attached) {
		return nil, apperr.Forbidden("you cannot access this cv")
	}
	return cv, nil
}

func (s *Service) attachedToEmployer(ctx context.Context, cvID, employerID string) (bool, error) {
	_, n, err := s.store.ListApplications(ctx,
		storage.ApplicationFilter{CVID: cvID, EmployerID: employerID}, model.PageRequest{Size: 1})
	if err != nil {
		return false, apperr.Internal(err)
	}
	return n > 0, nil
}

// Download 打开简历文件，调用方负责关闭
func (s *Service) Download(ctx context.Context, p *access.Principal, id string) (*model.CV, io.ReadCloser, error) {
	cv, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.Open(ctx, cv.StoredName)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, nil, apperr.NotFound("cv file not found")
		}
		return nil, nil, apperr.Internal(err)
	}
	return cv, rc, nil
}

// ============================================================================
// 修改（仅本人）
// ============================================================================

// Delete 删除简历记录和文件；文件删除失败只记日志
func (s *Service) Delete(ctx context.Context, p *access.Principal, id string) error {
	cv, err := s.owned(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCV(ctx, id); err != nil {
		return s.mapErr(err)
	}
	if err := s.objects.Delete(ctx, cv.StoredName); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("failed to delete cv file", "cv_id", id, "key", cv.StoredName)
	}
	s.log.WithContext(ctx).Info("cv deleted", "cv_id", id)
	return nil
}

// SetDefault 设为默认简历，其余简历同时取消默认
func (s *Service) SetDefault(ctx context.Context, p *access.Principal, id string) (*model.CV, error) {
	cv, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetDefaultCV(ctx, cv.JobSeekerID, id); err != nil {
		return nil, s.mapErr(err)
	}
	return s.get(ctx, id)
}

// UpdateMetadata 修改标题和描述
func (s *Service) UpdateMetadata(ctx context.Context, p *access.Principal, id string, in MetadataInput) (*model.CV, error) {
	if _, err := s.owned(ctx, p, id); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCVMetadata(ctx, id, in.Title, in.Description); err != nil {
		return nil, s.mapErr(err)
	}
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id string) (*model.CV, error) {
	cv, err := s.store.GetCV(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cv == nil {
		return nil, apperr.NotFound("cv not found")
	}
	return cv, nil
}

func (s *Service) owned(ctx context.Context, p *access.Principal, id string) (*model.CV, error) {
	c, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	cv, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanMutateCV(c, cv) {
		return nil, apperr.Forbidden("you can only modify your own cvs")
	}
	return cv, nil
}

func (s *Service) mapErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("cv not found")
	case errors.Is(err, storage.ErrConflict):
		return apperr.Conflict("default cv was changed concurrently, retry")
	}
	return apperr.Internal(err)
}
