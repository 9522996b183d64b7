// Package mongostore 实现基于 MongoDB 的 PersistentStore
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理。
//
// 跨集合的原子操作（注册、审核、删除职位、默认简历）使用多文档事务，
// 因此 MongoDB 需以副本集方式部署。
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"jobboard/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection 名称常量
const (
	ColUsers          = "users"
	ColJobSeekers     = "job_seekers"
	ColEmployers      = "employers"
	ColJobs           = "jobs"
	ColCVs            = "cvs"
	ColApplications   = "applications"
	ColModerationLogs = "moderation_logs"
)

// Store 实现 storage.PersistentStore 接口的 MongoDB 驱动
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.PersistentStore = (*Store)(nil)

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017/?replicaSet=rs0"
// dbName: 数据库名称，如 "jobboard"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}

	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure indexes failed: %v", err)
	}

	return s, nil
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// col 获取指定 Collection
func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// withTx 在多文档事务中执行 fn
func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return wrapError(err)
}

// ensureIndexes 创建所有必要的索引
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col     string
		keys    bson.D
		unique  bool
		partial bson.D
	}

	indexes := []idx{
		// users
		{col: ColUsers, keys: bson.D{{Key: "email", Value: 1}}, unique: true},
		{col: ColUsers, keys: bson.D{{Key: "role", Value: 1}}},

		// profiles
		{col: ColJobSeekers, keys: bson.D{{Key: "user_id", Value: 1}}, unique: true},
		{col: ColEmployers, keys: bson.D{{Key: "user_id", Value: 1}}, unique: true},
		{col: ColEmployers, keys: bson.D{{Key: "is_approved", Value: 1}}},

		// jobs
		{col: ColJobs, keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{col: ColJobs, keys: bson.D{{Key: "employer_id", Value: 1}}},

		// applications
		{col: ColApplications, keys: bson.D{{Key: "job_id", Value: 1}, {Key: "job_seeker_id", Value: 1}}, unique: true},
		{col: ColApplications, keys: bson.D{{Key: "employer_id", Value: 1}}},
		{col: ColApplications, keys: bson.D{{Key: "cv_id", Value: 1}}},

		// cvs: 每个求职者至多一份默认简历
		{col: ColCVs, keys: bson.D{{Key: "job_seeker_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{col: ColCVs, keys: bson.D{{Key: "job_seeker_id", Value: 1}}, unique: true,
			partial: bson.D{{Key: "is_default", Value: true}}},

		// moderation_logs
		{col: ColModerationLogs, keys: bson.D{{Key: "job_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	for _, i := range indexes {
		opts := options.Index()
		if i.unique {
			opts.SetUnique(true)
		}
		if i.partial != nil {
			opts.SetPartialFilterExpression(i.partial)
		}
		m := mongo.IndexModel{Keys: i.keys, Options: opts}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, m); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}
