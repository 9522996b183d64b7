package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
)

const cvColumns = `id, job_seeker_id, file_url, file_name, file_type, file_size, stored_name,
	is_default, title, description, created_at`

func scanCV(row scanner) (*model.CV, error) {
	cv := &model.CV{}
	err := row.Scan(&cv.ID, &cv.JobSeekerID, &cv.FileURL, &cv.FileName, &cv.FileType, &cv.FileSize,
		&cv.StoredName, &cv.IsDefault, &cv.Title, &cv.Description, &cv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return cv, nil
}

func (s *Store) insertCV(ctx context.Context, q querier, cv *model.CV) error {
	_, err := q.ExecContext(ctx, s.rebind(
		`INSERT INTO cvs (`+cvColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`),
		cv.ID, cv.JobSeekerID, cv.FileURL, cv.FileName, cv.FileType, cv.FileSize, cv.StoredName,
		cv.IsDefault, cv.Title, cv.Description, utc(cv.CreatedAt),
	)
	return s.mapErr(err)
}

// CreateCV 创建简历
//
// defaultIfFirst 时在事务内判断是否为首份简历。两个并发上传同时判定为首份时，
// 部分唯一索引拒绝第二个默认，此时以非默认重新写入。
func (s *Store) CreateCV(ctx context.Context, cv *model.CV, defaultIfFirst bool) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if defaultIfFirst {
			var n int64
			err := tx.QueryRowContext(ctx, s.rebind(
				`SELECT COUNT(*) FROM cvs WHERE job_seeker_id = $1`), cv.JobSeekerID).Scan(&n)
			if err != nil {
				return err
			}
			cv.IsDefault = n == 0
		}
		return s.insertCV(ctx, tx, cv)
	})
	if errors.Is(err, storage.ErrDuplicate) && defaultIfFirst && cv.IsDefault {
		cv.IsDefault = false
		return s.insertCV(ctx, s.db, cv)
	}
	return err
}

// GetCV 查询简历
func (s *Store) GetCV(ctx context.Context, id string) (*model.CV, error) {
	cv, err := scanCV(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+cvColumns+` FROM cvs WHERE id = $1`), id))
	if noRows(err) {
		return nil, nil
	}
	return cv, err
}

// ListCVs 列出求职者的全部简历，最新在前
func (s *Store) ListCVs(ctx context.Context, jobSeekerID string) ([]*model.CV, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+cvColumns+` FROM cvs WHERE job_seeker_id = $1 ORDER BY created_at DESC, id DESC`), jobSeekerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cvs := []*model.CV{}
	for rows.Next() {
		cv, err := scanCV(rows)
		if err != nil {
			return nil, err
		}
		cvs = append(cvs, cv)
	}
	return cvs, rows.Err()
}

// GetLatestCV 最近上传的简历
func (s *Store) GetLatestCV(ctx context.Context, jobSeekerID string) (*model.CV, error) {
	cv, err := scanCV(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+cvColumns+` FROM cvs WHERE job_seeker_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`), jobSeekerID))
	if noRows(err) {
		return nil, nil
	}
	return cv, err
}

// GetDefaultCV 默认简历
func (s *Store) GetDefaultCV(ctx context.Context, jobSeekerID string) (*model.CV, error) {
	cv, err := scanCV(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+cvColumns+` FROM cvs WHERE job_seeker_id = $1 AND is_default = `+s.boolLit(true)), jobSeekerID))
	if noRows(err) {
		return nil, nil
	}
	return cv, err
}

// SetDefaultCV 取消其他默认并设置目标简历
//
// 目标不属于该求职者时返回 ErrNotFound；与并发的设置冲突时返回 ErrConflict。
func (s *Store) SetDefaultCV(ctx context.Context, jobSeekerID, cvID string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE cvs SET is_default = `+s.boolLit(false)+
				` WHERE job_seeker_id = $1 AND is_default = `+s.boolLit(true)+` AND id <> $2`),
			jobSeekerID, cvID)
		if err != nil {
			return err
		}
		return requireAffected(tx.ExecContext(ctx, s.rebind(
			`UPDATE cvs SET is_default = `+s.boolLit(true)+` WHERE id = $1 AND job_seeker_id = $2`),
			cvID, jobSeekerID))
	})
	if err != nil && s.dialect.IsUniqueViolation(err) {
		return storage.ErrConflict
	}
	return err
}

// UpdateCVMetadata 更新标题/描述，nil 表示不修改
func (s *Store) UpdateCVMetadata(ctx context.Context, id string, title, description *string) error {
	p := &params{}
	var sets []string
	if title != nil {
		sets = append(sets, "title = "+p.add(*title))
	}
	if description != nil {
		sets = append(sets, "description = "+p.add(*description))
	}
	if len(sets) == 0 {
		cv, err := s.GetCV(ctx, id)
		if err != nil {
			return err
		}
		if cv == nil {
			return storage.ErrNotFound
		}
		return nil
	}
	query := `UPDATE cvs SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + p.add(id)
	return requireAffected(s.db.ExecContext(ctx, s.rebind(query), p.vals...))
}

// DeleteCV 删除简历，关联投递的 cv_id 置空
func (s *Store) DeleteCV(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE applications SET cv_id = NULL WHERE cv_id = $1`), id); err != nil {
			return err
		}
		return requireAffected(tx.ExecContext(ctx, s.rebind(`DELETE FROM cvs WHERE id = $1`), id))
	})
}
