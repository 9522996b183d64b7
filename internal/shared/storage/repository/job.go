package repository

import (
	"context"
	"database/sql"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
)

const jobSelect = `SELECT j.id, j.employer_id, j.title, j.description, j.location, j.job_type,
	j.salary_range, j.status, j.deadline, j.created_at, j.updated_at,
	e.company_name, u.email,
	(SELECT COUNT(*) FROM applications a WHERE a.job_id = j.id)
	FROM jobs j
	JOIN employers e ON e.id = j.employer_id
	JOIN users u ON u.id = e.user_id`

func scanJob(row scanner) (*model.Job, error) {
	j := &model.Job{}
	var deadline sql.NullTime
	err := row.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Description, &j.Location, &j.JobType,
		&j.SalaryRange, &j.Status, &deadline, &j.CreatedAt, &j.UpdatedAt,
		&j.EmployerName, &j.EmployerEmail, &j.ApplicantCount)
	if err != nil {
		return nil, err
	}
	j.Deadline = timePtr(deadline)
	return j, nil
}

// CreateJob 创建职位
func (s *Store) CreateJob(ctx context.Context, job *model.Job) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO jobs (id, employer_id, title, description, location, job_type, salary_range,
			status, deadline, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`),
		job.ID, job.EmployerID, job.Title, job.Description, job.Location, job.JobType,
		job.SalaryRange, job.Status, nullTime(job.Deadline), utc(job.CreatedAt), utc(job.UpdatedAt),
	)
	return s.mapErr(err)
}

// GetJob 查询职位（含雇主名称与投递数）
func (s *Store) GetJob(ctx context.Context, id string) (*model.Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, s.rebind(jobSelect+` WHERE j.id = $1`), id))
	if noRows(err) {
		return nil, nil
	}
	return j, err
}

// UpdateJob 覆盖写入可变字段（employer_id 不可变）
func (s *Store) UpdateJob(ctx context.Context, job *model.Job) error {
	return requireAffected(s.db.ExecContext(ctx, s.rebind(
		`UPDATE jobs SET title = $1, description = $2, location = $3, job_type = $4,
			salary_range = $5, status = $6, deadline = $7, updated_at = $8
		 WHERE id = $9`),
		job.Title, job.Description, job.Location, job.JobType, job.SalaryRange, job.Status,
		nullTime(job.Deadline), utc(job.UpdatedAt), job.ID))
}

// DeleteJob 删除职位，投递与审核记录级联删除
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// 不依赖外键级联：PostgreSQL 旧库可能没有 ON DELETE CASCADE
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM applications WHERE job_id = $1`), id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM moderation_logs WHERE job_id = $1`), id); err != nil {
			return err
		}
		return requireAffected(tx.ExecContext(ctx, s.rebind(`DELETE FROM jobs WHERE id = $1`), id))
	})
}

var jobSortColumns = map[string]string{
	"createdAt": "j.created_at",
	"title":     "j.title",
	"deadline":  "j.deadline",
}

func (s *Store) jobWhere(filter storage.JobFilter, p *params) string {
	var conds []string
	if filter.ActiveOnly {
		conds = append(conds,
			"j.status = "+p.add(string(model.JobStatusApproved)),
			"(j.deadline IS NULL OR j.deadline >= "+p.add(utc(filter.Now))+")")
	} else if filter.Status != "" {
		conds = append(conds, "j.status = "+p.add(string(filter.Status)))
	}
	if filter.EmployerID != "" {
		conds = append(conds, "j.employer_id = "+p.add(filter.EmployerID))
	}
	if filter.JobType != "" {
		conds = append(conds, "j.job_type = "+p.add(string(filter.JobType)))
	}
	if filter.Keyword != "" {
		conds = append(conds, "("+likeExpr("j.title", p, filter.Keyword)+" OR "+
			likeExpr("j.description", p, filter.Keyword)+")")
	}
	if filter.Location != "" {
		conds = append(conds, likeExpr("j.location", p, filter.Location))
	}
	return where(conds)
}

// ListJobs 按条件分页查询职位，返回当前页和总数
func (s *Store) ListJobs(ctx context.Context, filter storage.JobFilter, page model.PageRequest) ([]*model.Job, int64, error) {
	p := &params{}
	whereSQL := s.jobWhere(filter, p)

	var total int64
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM jobs j`+whereSQL), p.vals...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := jobSelect + whereSQL + orderBy(page, jobSortColumns, "j.created_at DESC", "j.id") + limit(page, p)
	rows, err := s.db.QueryContext(ctx, s.rebind(query), p.vals...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := []*model.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

// CountJobsByStatus 按状态计数
func (s *Store) CountJobsByStatus(ctx context.Context, employerID string) (map[model.JobStatus]int64, error) {
	p := &params{}
	var conds []string
	if employerID != "" {
		conds = append(conds, "employer_id = "+p.add(employerID))
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT status, COUNT(*) FROM jobs`+where(conds)+` GROUP BY status`), p.vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.JobStatus]int64)
	for rows.Next() {
		var (
			st model.JobStatus
			n  int64
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}
