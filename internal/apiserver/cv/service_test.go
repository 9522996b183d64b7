package cv

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/apiserver/access"
	"jobboard/internal/apiserver/apitest"
	"jobboard/internal/shared/apperr"
	"jobboard/internal/shared/model"
	"jobboard/internal/shared/objstore"
	"jobboard/internal/shared/storage/repository"
)

func newTestService(t *testing.T) (*Service, *repository.Store, *objstore.FileStore) {
	t.Helper()
	store := apitest.NewStore(t)
	objects, err := objstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(store, objects, nil)
	svc.SetClock(apitest.Clock())
	return svc, store, objects
}

func upload(t *testing.T, svc *Service, p *access.Principal, name, body string) *model.CV {
	t.Helper()
	cv, err := svc.Upload(context.Background(), p, UploadInput{
		FileName: name,
		Size:     int64(len(body)),
		Body:     strings.NewReader(body),
	})
	require.NoError(t, err)
	return cv
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		wantExt string
		wantMsg string
	}{
		{"PDF", "resume.pdf", 100, "pdf", ""},
		{"大写扩展名", "Resume.DOCX", 100, "docx", ""},
		{"DOC", "old.doc", MaxFileSize, "doc", ""},
		{"空文件", "resume.pdf", 0, "", "please select a file to upload"},
		{"超过上限", "resume.pdf", MaxFileSize + 1, "", "file size exceeds 5MB limit"},
		{"不支持的类型", "resume.txt", 100, "", "only PDF, DOC, and DOCX files are allowed"},
		{"无扩展名", "resume", 100, "", "only PDF, DOC, and DOCX files are allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := ValidateUpload(tt.file, tt.size)
			if tt.wantMsg != "" {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindValidation))
				assert.Equal(t, tt.wantMsg, apperr.PublicMessage(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestUploadFirstBecomesDefault(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seeker, profile := apitest.SeedSeeker(t, store, "alice@x.io", "Go")

	first := upload(t, svc, seeker, "a.pdf", "%PDF-1 first")
	assert.True(t, first.IsDefault)
	assert.Equal(t, "application/pdf", first.FileType, "缺省 Content-Type 按扩展名推断")
	assert.NotEmpty(t, first.FileURL)

	second := upload(t, svc, seeker, "b.docx", "docx body")
	assert.False(t, second.IsDefault)

	def, err := store.GetDefaultCV(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)

	latest, err := svc.Latest(ctx, seeker)
	require.NoError(t, err)
	assert.Contains(t, []string{first.ID, second.ID}, latest.ID)

	list, err := svc.List(ctx, seeker)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUploadRequiresSeeker(t *testing.T) {
	svc, store, _ := newTestService(t)
	emp, _ := apitest.SeedEmployer(t, store, "hr@acme.io", true)

	_, err := svc.Upload(context.Background(), emp, UploadInput{FileName: "a.pdf", Size: 3, Body: strings.NewReader("abc")})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.Upload(context.Background(), nil, UploadInput{FileName: "a.pdf", Size: 3, Body: strings.NewReader("abc")})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestBuildAndDownload(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seeker, profile := apitest.SeedSeeker(t, store, "alice@x.io", "Go")

	in := BuildInput{
		Education:  "BSc Computer Science",
		Experience: "3 years backend",
		Skills:     "Go, SQL",
		Title:      "Backend CV",
	}
	cv, err := svc.Build(ctx, seeker, in)
	require.NoError(t, err)
	assert.False(t, cv.IsDefault, "在线生成的简历不自动设为默认")
	assert.Equal(t, "text/plain", cv.FileType)
	assert.Equal(t, "cv_"+profile.FullName+".txt", cv.FileName)
	assert.Equal(t, "Backend CV", cv.Title)

	want := RenderCV(BuildInput{
		FullName:   profile.FullName,
		Email:      "alice@x.io",
		Education:  in.Education,
		Experience: in.Experience,
		Skills:     in.Skills,
	})
	assert.Equal(t, int64(len(want)), cv.FileSize)

	got, rc, err := svc.Download(ctx, seeker, cv.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, want, string(body))
	assert.Equal(t, cv.ID, got.ID)
}

func TestRenderCV(t *testing.T) {
	out := RenderCV(BuildInput{FullName: "Ana", Email: "ana@x.io", PhoneNumber: "123", Education: "E", Experience: "X", Skills: "S"})
	assert.Equal(t, "CV\n===\n\nFull Name: Ana\nEmail: ana@x.io\nPhone: 123\n\nEducation:\nE\n\nExperience:\nX\n\nSkills:\nS\n", out)
}

func TestSetDefaultKeepsSingleDefault(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seeker, profile := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	other, _ := apitest.SeedSeeker(t, store, "bob@x.io", "Java")

	a := upload(t, svc, seeker, "a.pdf", "aaa")
	b := upload(t, svc, seeker, "b.pdf", "bbb")
	c := upload(t, svc, seeker, "c.pdf", "ccc")

	for _, target := range []*model.CV{b, c, a} {
		updated, err := svc.SetDefault(ctx, seeker, target.ID)
		require.NoError(t, err)
		assert.True(t, updated.IsDefault)

		list, err := store.ListCVs(ctx, profile.ID)
		require.NoError(t, err)
		defaults := 0
		for _, cv := range list {
			if cv.IsDefault {
				defaults++
				assert.Equal(t, target.ID, cv.ID)
			}
		}
		assert.Equal(t, 1, defaults)
	}

	_, err := svc.SetDefault(ctx, other, a.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.SetDefault(ctx, seeker, "cv-missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateMetadata(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seeker, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	cv := upload(t, svc, seeker, "a.pdf", "aaa")

	title := "Main CV"
	updated, err := svc.UpdateMetadata(ctx, seeker, cv.ID, MetadataInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Main CV", updated.Title)
	assert.Empty(t, updated.Description)

	admin := apitest.SeedAdmin(t, store, "root@x.io")
	_, err = svc.UpdateMetadata(ctx, admin, cv.ID, MetadataInput{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "管理员也不能修改他人简历")
}

func TestEmployerReadsOnlyAttachedCV(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seeker, profile := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	owner, employer := apitest.SeedEmployer(t, store, "hr@acme.io", true)
	other, _ := apitest.SeedEmployer(t, store, "hr@other.io", true)
	admin := apitest.SeedAdmin(t, store, "root@x.io")

	cv := upload(t, svc, seeker, "a.pdf", "aaa")

	_, err := svc.Get(ctx, owner, cv.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "未投递前雇主不可读")

	job := apitest.SeedJob(t, store, employer.ID, "Go Developer", model.JobStatusApproved)
	require.NoError(t, store.CreateApplication(ctx, &model.Application{
		ID:          model.NewID(model.PrefixApplication),
		JobID:       job.ID,
		JobSeekerID: profile.ID,
		EmployerID:  employer.ID,
		CVID:        &cv.ID,
		Status:      model.ApplicationSubmitted,
		AppliedAt:   apitest.Now,
		UpdatedAt:   apitest.Now,
	}))

	got, err := svc.Get(ctx, owner, cv.ID)
	require.NoError(t, err)
	assert.Equal(t, cv.ID, got.ID)

	_, err = svc.Get(ctx, other, cv.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.Get(ctx, admin, cv.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, owner, "cv-missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteToleratesMissingFile(t *testing.T) {
	svc, store, objects := newTestService(t)
	ctx := context.Background()
	seeker, _ := apitest.SeedSeeker(t, store, "alice@x.io", "Go")
	other, _ := apitest.SeedSeeker(t, store, "bob@x.io", "Java")

	cv := upload(t, svc, seeker, "a.pdf", "aaa")
	assert.True(t, apperr.Is(svc.Delete(ctx, other, cv.ID), apperr.KindForbidden))

	require.NoError(t, objects.Delete(ctx, cv.StoredName))
	_, _, err := svc.Download(ctx, seeker, cv.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, svc.Delete(ctx, seeker, cv.ID))
	_, err = svc.Get(ctx, seeker, cv.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Latest(ctx, seeker)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
