package repository

import (
	"context"
	"database/sql"

	"jobboard/internal/shared/model"
)

// ModerateJob 修改职位状态并追加审核记录（同一事务）
func (s *Store) ModerateJob(ctx context.Context, jobID string, status model.JobStatus, entry *model.ModerationLog) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		err := requireAffected(tx.ExecContext(ctx, s.rebind(
			`UPDATE jobs SET status = $1, updated_at = $2 WHERE id = $3`),
			status, utc(entry.CreatedAt), jobID))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.rebind(
			`INSERT INTO moderation_logs (id, job_id, admin_id, action, reason, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`),
			entry.ID, jobID, entry.AdminID, entry.Action, entry.Reason, utc(entry.CreatedAt))
		return s.mapErr(err)
	})
}

// ListModerationLogs 按时间倒序列出审核记录
func (s *Store) ListModerationLogs(ctx context.Context, jobID string) ([]*model.ModerationLog, error) {
	p := &params{}
	var conds []string
	if jobID != "" {
		conds = append(conds, "m.job_id = "+p.add(jobID))
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT m.id, m.job_id, m.admin_id, m.action, m.reason, m.created_at,
			COALESCE(j.title, ''), COALESCE(u.email, '')
		 FROM moderation_logs m
		 LEFT JOIN jobs j ON j.id = m.job_id
		 LEFT JOIN users u ON u.id = m.admin_id`+where(conds)+
			` ORDER BY m.created_at DESC, m.id`), p.vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*model.ModerationLog{}
	for rows.Next() {
		l := &model.ModerationLog{}
		if err := rows.Scan(&l.ID, &l.JobID, &l.AdminID, &l.Action, &l.Reason, &l.CreatedAt,
			&l.JobTitle, &l.AdminEmail); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
