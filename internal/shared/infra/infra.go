// Package infra 基础设施聚合层
//
// 提供统一的基础设施初始化和依赖注入，包括：
//   - Storage：持久化存储（SQLite / PostgreSQL / MongoDB，按配置选择）
//   - Objects：简历文件存储（本地目录或 MinIO）
//   - Redis：可选，目前只用于凭证接口限流
package infra

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"jobboard/internal/config"
	"jobboard/internal/shared/objstore"
	"jobboard/internal/shared/storage"
	"jobboard/internal/shared/storage/dbutil"
	postgresdriver "jobboard/internal/shared/storage/driver/postgres"
	sqlitedriver "jobboard/internal/shared/storage/driver/sqlite"
	"jobboard/internal/shared/storage/mongostore"
	"jobboard/internal/shared/storage/repository"
)

// Infrastructure 基础设施聚合结构
type Infrastructure struct {
	// Storage 持久化存储
	Storage storage.PersistentStore

	// Objects 简历文件存储
	Objects objstore.Store

	// Redis 未启用时为 nil
	Redis *redis.Client
}

// New 按配置初始化全部基础设施，任一环节失败时关闭已创建的连接
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	inf := &Infrastructure{}

	store, err := NewPersistentStore(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DatabaseDBName)
	if err != nil {
		return nil, err
	}
	inf.Storage = store

	objects, err := NewObjectStore(ctx, cfg)
	if err != nil {
		inf.Close()
		return nil, err
	}
	inf.Objects = objects

	if cfg.RedisURL != "" {
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			inf.Close()
			return nil, err
		}
		inf.Redis = client
	}

	return inf, nil
}

// Close 关闭所有基础设施连接
func (i *Infrastructure) Close() error {
	var lastErr error

	if i.Storage != nil {
		if err := i.Storage.Close(); err != nil {
			lastErr = err
		}
	}

	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// ============================================================================
// 持久化存储工厂
// ============================================================================

// NewPersistentStore 根据驱动类型创建持久化存储（SQL 驱动会自动建表）
// 支持的驱动类型：postgres, sqlite, mongodb
func NewPersistentStore(driver, dsn, mongoDBName string) (storage.PersistentStore, error) {
	switch dbutil.DriverType(driver) {
	case dbutil.DriverPostgres:
		db, err := postgresdriver.Open(dsn)
		if err != nil {
			return nil, err
		}
		dialect := postgresdriver.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres auto-migrate failed: %w", err)
		}
		log.Println("[Storage] Connected to PostgreSQL")
		return repository.NewStore(db, dialect), nil

	case dbutil.DriverSQLite, "":
		db, err := sqlitedriver.Open(dsn)
		if err != nil {
			return nil, err
		}
		dialect := sqlitedriver.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite auto-migrate failed: %w", err)
		}
		log.Println("[Storage] Opened SQLite database")
		return repository.NewStore(db, dialect), nil

	case dbutil.DriverMongoDB:
		if mongoDBName == "" {
			mongoDBName = "jobboard"
		}
		store, err := mongostore.NewStore(dsn, mongoDBName)
		if err != nil {
			return nil, err
		}
		log.Printf("[Storage] Connected to MongoDB database %s", mongoDBName)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// NewObjectStore MinIO 启用时使用 MinIO，否则使用本地上传目录
func NewObjectStore(ctx context.Context, cfg *config.Config) (objstore.Store, error) {
	if cfg.MinIO.Enabled {
		return objstore.NewMinIOStore(ctx, cfg.MinIO)
	}
	log.Printf("[Storage] CV files stored under %s", cfg.UploadDir)
	return objstore.NewFileStore(cfg.UploadDir)
}
