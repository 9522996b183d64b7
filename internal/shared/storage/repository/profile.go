package repository

import (
	"context"
	"time"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
)

// ============================================================================
// JobSeeker
// ============================================================================

const seekerSelect = `SELECT s.id, s.user_id, u.email, s.full_name, s.phone, s.location, s.bio,
	s.headline, s.skills, s.experience, s.education, s.profile_photo_url, s.profile_visibility,
	s.created_at, s.updated_at
	FROM job_seekers s JOIN users u ON u.id = s.user_id`

func scanJobSeeker(row scanner) (*model.JobSeeker, error) {
	js := &model.JobSeeker{}
	err := row.Scan(&js.ID, &js.UserID, &js.Email, &js.FullName, &js.Phone, &js.Location, &js.Bio,
		&js.Headline, &js.Skills, &js.Experience, &js.Education, &js.ProfilePhotoURL, &js.ProfileVisibility,
		&js.CreatedAt, &js.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return js, nil
}

func insertJobSeeker(ctx context.Context, q querier, s *Store, js *model.JobSeeker) error {
	if js.ProfileVisibility == "" {
		js.ProfileVisibility = model.VisibilityPublic
	}
	_, err := q.ExecContext(ctx, s.rebind(
		`INSERT INTO job_seekers (id, user_id, full_name, phone, location, bio, headline, skills,
			experience, education, profile_photo_url, profile_visibility, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`),
		js.ID, js.UserID, js.FullName, js.Phone, js.Location, js.Bio, js.Headline, js.Skills,
		js.Experience, js.Education, js.ProfilePhotoURL, js.ProfileVisibility,
		utc(js.CreatedAt), utc(js.UpdatedAt),
	)
	return s.mapErr(err)
}

func (s *Store) getJobSeeker(ctx context.Context, column, value string) (*model.JobSeeker, error) {
	js, err := scanJobSeeker(s.db.QueryRowContext(ctx, s.rebind(seekerSelect+` WHERE s.`+column+` = $1`), value))
	if noRows(err) {
		return nil, nil
	}
	return js, err
}

// GetJobSeeker 按资料 ID 查询
func (s *Store) GetJobSeeker(ctx context.Context, id string) (*model.JobSeeker, error) {
	return s.getJobSeeker(ctx, "id", id)
}

// GetJobSeekerByUserID 按用户 ID 查询
func (s *Store) GetJobSeekerByUserID(ctx context.Context, userID string) (*model.JobSeeker, error) {
	return s.getJobSeeker(ctx, "user_id", userID)
}

// UpdateJobSeeker 覆盖写入可编辑字段
func (s *Store) UpdateJobSeeker(ctx context.Context, js *model.JobSeeker) error {
	return requireAffected(s.db.ExecContext(ctx, s.rebind(
		`UPDATE job_seekers SET full_name = $1, phone = $2, location = $3, bio = $4, headline = $5,
			skills = $6, experience = $7, education = $8, profile_photo_url = $9,
			profile_visibility = $10, updated_at = $11
		 WHERE id = $12`),
		js.FullName, js.Phone, js.Location, js.Bio, js.Headline, js.Skills, js.Experience,
		js.Education, js.ProfilePhotoURL, js.ProfileVisibility, utc(js.UpdatedAt), js.ID))
}

// ============================================================================
// Employer
// ============================================================================

const employerColumns = `id, user_id, company_name, company_email, description, website, location,
	industry, company_size, founded, logo, is_approved, created_at, updated_at`

func scanEmployer(row scanner) (*model.Employer, error) {
	e := &model.Employer{}
	err := row.Scan(&e.ID, &e.UserID, &e.CompanyName, &e.CompanyEmail, &e.Description, &e.Website,
		&e.Location, &e.Industry, &e.CompanySize, &e.Founded, &e.Logo, &e.IsApproved,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func insertEmployer(ctx context.Context, q querier, s *Store, e *model.Employer) error {
	_, err := q.ExecContext(ctx, s.rebind(
		`INSERT INTO employers (`+employerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`),
		e.ID, e.UserID, e.CompanyName, e.CompanyEmail, e.Description, e.Website, e.Location,
		e.Industry, e.CompanySize, e.Founded, e.Logo, e.IsApproved,
		utc(e.CreatedAt), utc(e.UpdatedAt),
	)
	return s.mapErr(err)
}

func (s *Store) getEmployer(ctx context.Context, column, value string) (*model.Employer, error) {
	e, err := scanEmployer(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+employerColumns+` FROM employers WHERE `+column+` = $1`), value))
	if noRows(err) {
		return nil, nil
	}
	return e, err
}

// GetEmployer 按资料 ID 查询
func (s *Store) GetEmployer(ctx context.Context, id string) (*model.Employer, error) {
	return s.getEmployer(ctx, "id", id)
}

// GetEmployerByUserID 按用户 ID 查询
func (s *Store) GetEmployerByUserID(ctx context.Context, userID string) (*model.Employer, error) {
	return s.getEmployer(ctx, "user_id", userID)
}

// UpdateEmployer 覆盖写入可编辑字段（不含审批状态）
func (s *Store) UpdateEmployer(ctx context.Context, e *model.Employer) error {
	return requireAffected(s.db.ExecContext(ctx, s.rebind(
		`UPDATE employers SET company_name = $1, company_email = $2, description = $3, website = $4,
			location = $5, industry = $6, company_size = $7, founded = $8, logo = $9, updated_at = $10
		 WHERE id = $11`),
		e.CompanyName, e.CompanyEmail, e.Description, e.Website, e.Location, e.Industry,
		e.CompanySize, e.Founded, e.Logo, utc(e.UpdatedAt), e.ID))
}

// ListEmployers 按创建时间倒序列出雇主
func (s *Store) ListEmployers(ctx context.Context, filter storage.EmployerFilter) ([]*model.Employer, error) {
	p := &params{}
	var conds []string
	if filter.Approved != nil {
		conds = append(conds, "is_approved = "+p.add(*filter.Approved))
	}
	if filter.CompanyContains != "" {
		conds = append(conds, likeExpr("company_name", p, filter.CompanyContains))
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+employerColumns+` FROM employers`+where(conds)+` ORDER BY created_at DESC, id`), p.vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employers := []*model.Employer{}
	for rows.Next() {
		e, err := scanEmployer(rows)
		if err != nil {
			return nil, err
		}
		employers = append(employers, e)
	}
	return employers, rows.Err()
}

// SetEmployerApproved 修改审批状态
func (s *Store) SetEmployerApproved(ctx context.Context, id string, approved bool, now time.Time) error {
	return requireAffected(s.db.ExecContext(ctx, s.rebind(
		`UPDATE employers SET is_approved = $1, updated_at = $2 WHERE id = $3`),
		approved, utc(now), id))
}

// EmployerCounts 按审批状态计数
func (s *Store) EmployerCounts(ctx context.Context) (model.EmployerCounts, error) {
	var c model.EmployerCounts
	rows, err := s.db.QueryContext(ctx, `SELECT is_approved, COUNT(*) FROM employers GROUP BY is_approved`)
	if err != nil {
		return c, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			approved bool
			n        int64
		)
		if err := rows.Scan(&approved, &n); err != nil {
			return c, err
		}
		c.TotalEmployers += n
		if approved {
			c.ApprovedEmployers += n
		} else {
			c.PendingEmployers += n
		}
	}
	return c, rows.Err()
}
