package repository

import (
	"context"
	"database/sql"
	"time"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
)

const applicationFrom = ` FROM applications a
	JOIN jobs j ON j.id = a.job_id
	JOIN employers e ON e.id = j.employer_id
	JOIN users eu ON eu.id = e.user_id
	JOIN job_seekers s ON s.id = a.job_seeker_id
	JOIN users su ON su.id = s.user_id`

const applicationSelect = `SELECT a.id, a.job_id, a.job_seeker_id, j.employer_id, a.cv_id, a.status,
	a.cover_letter, a.employer_notes, a.applied_at, a.updated_at,
	j.title, e.company_name, eu.email,
	s.full_name, su.email, s.headline, s.phone, s.location, s.experience, s.skills` + applicationFrom

func scanApplication(row scanner) (*model.Application, error) {
	a := &model.Application{}
	var cvID sql.NullString
	err := row.Scan(&a.ID, &a.JobID, &a.JobSeekerID, &a.EmployerID, &cvID, &a.Status,
		&a.CoverLetter, &a.EmployerNotes, &a.AppliedAt, &a.UpdatedAt,
		&a.JobTitle, &a.EmployerName, &a.EmployerEmail,
		&a.SeekerName, &a.SeekerEmail, &a.SeekerHeadline, &a.SeekerPhone, &a.SeekerLocation,
		&a.SeekerExperience, &a.SeekerSkills)
	if err != nil {
		return nil, err
	}
	a.CVID = stringPtr(cvID)
	return a, nil
}

// CreateApplication 创建投递（同一职位重复投递返回 ErrDuplicate）
func (s *Store) CreateApplication(ctx context.Context, app *model.Application) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO applications (id, job_id, job_seeker_id, cv_id, status, cover_letter,
			employer_notes, applied_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
		app.ID, app.JobID, app.JobSeekerID, nullString(app.CVID), app.Status, app.CoverLetter,
		app.EmployerNotes, utc(app.AppliedAt), utc(app.UpdatedAt),
	)
	return s.mapErr(err)
}

// GetApplication 查询投递（含职位与求职者视图字段）
func (s *Store) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	a, err := scanApplication(s.db.QueryRowContext(ctx, s.rebind(applicationSelect+` WHERE a.id = $1`), id))
	if noRows(err) {
		return nil, nil
	}
	return a, err
}

func applicationWhere(filter storage.ApplicationFilter, p *params) string {
	var conds []string
	if filter.JobID != "" {
		conds = append(conds, "a.job_id = "+p.add(filter.JobID))
	}
	if filter.JobSeekerID != "" {
		conds = append(conds, "a.job_seeker_id = "+p.add(filter.JobSeekerID))
	}
	if filter.EmployerID != "" {
		conds = append(conds, "j.employer_id = "+p.add(filter.EmployerID))
	}
	if filter.CVID != "" {
		conds = append(conds, "a.cv_id = "+p.add(filter.CVID))
	}
	if filter.Status != "" {
		conds = append(conds, "a.status = "+p.add(string(filter.Status)))
	}
	return where(conds)
}

var applicationSortColumns = map[string]string{
	"appliedAt": "a.applied_at",
	"updatedAt": "a.updated_at",
	"status":    "a.status",
}

// ListApplications 按条件分页查询投递，默认按投递时间倒序
func (s *Store) ListApplications(ctx context.Context, filter storage.ApplicationFilter, page model.PageRequest) ([]*model.Application, int64, error) {
	p := &params{}
	whereSQL := applicationWhere(filter, p)

	var total int64
	if err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM applications a JOIN jobs j ON j.id = a.job_id`+whereSQL), p.vals...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := applicationSelect + whereSQL +
		orderBy(page, applicationSortColumns, "a.applied_at DESC", "a.id") + limit(page, p)
	rows, err := s.db.QueryContext(ctx, s.rebind(query), p.vals...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	apps := []*model.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, a)
	}
	return apps, total, rows.Err()
}

// UpdateApplicationStatus 条件更新投递状态
//
// 仅当当前状态仍为 from 时写入；并发修改导致状态已变化时返回 ErrConflict。
func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, from, to model.ApplicationStatus, now time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`),
		to, utc(now), id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM applications WHERE id = $1`), id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}

// UpdateApplicationNotes 更新雇主备注
func (s *Store) UpdateApplicationNotes(ctx context.Context, id, notes string, now time.Time) error {
	return requireAffected(s.db.ExecContext(ctx, s.rebind(
		`UPDATE applications SET employer_notes = $1, updated_at = $2 WHERE id = $3`),
		notes, utc(now), id))
}

// DeleteApplication 删除投递（撤回）
func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	return requireAffected(s.db.ExecContext(ctx, s.rebind(`DELETE FROM applications WHERE id = $1`), id))
}

// CountApplicationsByStatus 按状态计数
func (s *Store) CountApplicationsByStatus(ctx context.Context, filter storage.ApplicationFilter) (map[model.ApplicationStatus]int64, error) {
	p := &params{}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT a.status, COUNT(*) FROM applications a JOIN jobs j ON j.id = a.job_id`+
			applicationWhere(filter, p)+` GROUP BY a.status`), p.vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ApplicationStatus]int64)
	for rows.Next() {
		var (
			st model.ApplicationStatus
			n  int64
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}
