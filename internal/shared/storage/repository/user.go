package repository

import (
	"context"
	"database/sql"
	"time"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
)

const userColumns = `id, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row scanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func insertUser(ctx context.Context, q querier, s *Store, user *model.User) error {
	_, err := q.ExecContext(ctx, s.rebind(
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`),
		user.ID, user.Email, user.PasswordHash, user.Role, user.IsActive,
		utc(user.CreatedAt), utc(user.UpdatedAt),
	)
	return s.mapErr(err)
}

// CreateUser 创建用户（邮箱重复返回 ErrDuplicate）
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertUser(ctx, s.db, s, user)
}

// CreateUserWithProfile 在同一事务中创建用户和角色资料
func (s *Store) CreateUserWithProfile(ctx context.Context, user *model.User, seeker *model.JobSeeker, employer *model.Employer) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, s, user); err != nil {
			return err
		}
		if seeker != nil {
			if err := insertJobSeeker(ctx, tx, s, seeker); err != nil {
				return err
			}
		}
		if employer != nil {
			if err := insertEmployer(ctx, tx, s, employer); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetUserByID 通过 ID 查找用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = $1`), id))
	if noRows(err) {
		return nil, nil
	}
	return u, err
}

// GetUserByEmail 通过邮箱查找用户
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE email = $1`), email))
	if noRows(err) {
		return nil, nil
	}
	return u, err
}

var userSortColumns = map[string]string{
	"createdAt": "created_at",
	"email":     "email",
	"role":      "role",
}

// ListUsers 列出用户，按创建时间倒序
func (s *Store) ListUsers(ctx context.Context, filter storage.UserFilter, page model.PageRequest) ([]*model.User, int64, error) {
	p := &params{}
	var conds []string
	if filter.Role != "" {
		conds = append(conds, "role = "+p.add(string(filter.Role)))
	}
	if filter.EmailContains != "" {
		conds = append(conds, likeExpr("email", p, filter.EmailContains))
	}
	whereSQL := where(conds)

	var total int64
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM users`+whereSQL), p.vals...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users` + whereSQL +
		orderBy(page, userSortColumns, "created_at DESC", "id") + limit(page, p)
	rows, err := s.db.QueryContext(ctx, s.rebind(query), p.vals...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// UpdateUserPassword 更新用户密码
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string, now time.Time) error {
	return requireAffected(s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`),
		passwordHash, utc(now), id))
}

// SetUserActive 启用/停用用户
func (s *Store) SetUserActive(ctx context.Context, id string, active bool, now time.Time) error {
	return requireAffected(s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`),
		active, utc(now), id))
}

// UserStatistics 按角色与启用状态分组计数
func (s *Store) UserStatistics(ctx context.Context) (model.UserStatistics, error) {
	var st model.UserStatistics
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, is_active, COUNT(*) FROM users GROUP BY role, is_active`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			role   model.Role
			active bool
			n      int64
		)
		if err := rows.Scan(&role, &active, &n); err != nil {
			return st, err
		}
		st.TotalUsers += n
		if active {
			st.ActiveUsers += n
		} else {
			st.InactiveUsers += n
		}
		switch role {
		case model.RoleJobSeeker:
			st.JobSeekers += n
		case model.RoleEmployer:
			st.Employers += n
		case model.RoleAdmin:
			st.Admins += n
		}
	}
	return st, rows.Err()
}
