// Package repository 数据库无关的业务逻辑存储层
//
// 通过 dbutil.Dialect 接口屏蔽不同数据库的 SQL 差异，
// 所有 SQL 以 PostgreSQL 风格编写，运行时由 Dialect.Rebind() 转换。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"
	"jobboard/internal/shared/storage/dbutil"
)

// Store 通用存储实现
// 实现了 storage.PersistentStore 接口
type Store struct {
	db      *sql.DB
	dialect dbutil.Dialect
}

var _ storage.PersistentStore = (*Store)(nil)

// NewStore 创建通用存储
func NewStore(db *sql.DB, dialect dbutil.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// DB 返回底层数据库连接（仅用于测试）
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect 返回当前方言
func (s *Store) Dialect() dbutil.Dialect {
	return s.dialect
}

// rebind 快捷方法：将 PG 风格 SQL 转换为当前方言
func (s *Store) rebind(query string) string {
	return s.dialect.Rebind(query)
}

// boolLit 当前方言的布尔字面量
func (s *Store) boolLit(b bool) string {
	return s.dialect.BooleanLiteral(b)
}

// querier 统一 *sql.DB 与 *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner 统一 *sql.Row 与 *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// withTx 在事务中执行 fn，fn 返回错误时回滚
//
// SQLite 只有一个连接，事务内的语句必须全部走 tx。
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// mapErr 将唯一约束冲突转换为 storage.ErrDuplicate
func (s *Store) mapErr(err error) error {
	if err != nil && s.dialect.IsUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

// requireAffected UPDATE/DELETE 未命中时返回 storage.ErrNotFound
func requireAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// noRows 单行查询未命中时转换为 (nil, nil) 语义
func noRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ============================================================================
// SQL 构建辅助
// ============================================================================

// params 按顺序分配 $N 占位符
//
// SQLite 的 ? 占位符按位置绑定，因此同一值出现多次时要分别 add。
type params struct {
	vals []any
}

func (p *params) add(v any) string {
	p.vals = append(p.vals, v)
	return "$" + strconv.Itoa(len(p.vals))
}

// where 拼接条件，无条件时返回空字符串
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// likeExpr LOWER(col) LIKE pattern，大小写不敏感子串匹配
func likeExpr(col string, p *params, needle string) string {
	return "LOWER(" + col + ") LIKE " + p.add(dbutil.LikePattern(needle)) + ` ESCAPE '\'`
}

// orderBy 按白名单映射排序字段，未知字段回退到默认
func orderBy(page model.PageRequest, columns map[string]string, fallback, tiebreak string) string {
	col, ok := columns[page.Sort]
	if !ok {
		return " ORDER BY " + fallback + ", " + tiebreak
	}
	dir := " DESC"
	if page.Asc {
		dir = " ASC"
	}
	return " ORDER BY " + col + dir + ", " + tiebreak
}

// limit 分页子句，Size 为 0 时不分页
func limit(page model.PageRequest, p *params) string {
	if page.Size <= 0 {
		return ""
	}
	return " LIMIT " + p.add(page.Size) + " OFFSET " + p.add(page.Offset())
}

// utc 统一以 UTC 写入，SQLite 按文本比较时间时依赖一致的时区后缀
func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
