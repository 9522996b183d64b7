package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTokenTTL     = 24 * time.Hour
	defaultRefreshGrace = time.Hour
	defaultAITimeout    = 30 * time.Second
	defaultRateWindow   = time.Minute
)

// Load 加载配置
//  1. 加载 .env.{env}（敏感信息）
//  2. 根据 APP_ENV 加载 configs/{env}.yaml
//  3. 环境变量覆盖并构建最终配置
func Load() (*Config, error) {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)

	yc := loadYAMLConfig(env)
	return build(env, yc)
}

func build(env Environment, yc *yamlConfigInternal) (*Config, error) {
	y := yc.YAMLConfig

	y.Database.Password = os.Getenv("DB_PASSWORD")
	y.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if u := os.Getenv("REDIS_URL"); u != "" {
		y.Redis.URL = u
		y.Redis.Enabled = true
	}

	databaseURL := getEnv("DATABASE_URL", buildDatabaseURL(y.Database, y.Database.Password))

	cfg := &Config{
		Env:            env,
		DatabaseDriver: detectDatabaseDriver(y.Database.Driver, os.Getenv("DATABASE_URL")),
		DatabaseURL:    databaseURL,
		DatabaseDBName: y.Database.Name,
		APIPort:        getEnv("API_PORT", y.APIServer.Port),
		CORSOrigins:    y.APIServer.CORSOrigins,
		TrustedProxies: y.APIServer.TrustedProxies,
		Auth:           y.Auth,
		RateLimit:      y.RateLimit,
		MinIO:          y.MinIO,
		UploadDir:      getEnv("UPLOAD_DIR", y.Storage.UploadDir),
		AI:             y.AI,
		Log:            y.Log,
		ConfigFilePath: yc.loadedFrom,
	}
	if y.Redis.Enabled {
		cfg.RedisURL = buildRedisURL(y.Redis)
	}

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.Auth.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.MinIO.AccessKey = os.Getenv("MINIO_ROOT_USER")
	cfg.MinIO.SecretKey = os.Getenv("MINIO_ROOT_PASSWORD")
	cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	var err error
	if cfg.TokenTTL, err = parseDuration("auth.access_token_ttl", y.Auth.AccessTokenTTL, defaultTokenTTL); err != nil {
		return nil, err
	}
	if cfg.Grace, err = parseDuration("auth.refresh_grace", y.Auth.RefreshGrace, defaultRefreshGrace); err != nil {
		return nil, err
	}
	if cfg.AITimeout, err = parseDuration("ai.timeout", y.AI.Timeout, defaultAITimeout); err != nil {
		return nil, err
	}
	if cfg.RateWin, err = parseDuration("rate_limit.window", y.RateLimit.Window, defaultRateWindow); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate 生产环境必须显式提供 JWT 密钥；开发/测试环境使用固定密钥
func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.Env == EnvProduction {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		log.Printf("[Config] WARNING: JWT_SECRET not set, using development secret")
		c.Auth.JWTSecret = "jobboard-dev-secret"
	}
	if c.MinIO.Enabled && (c.MinIO.Endpoint == "" || c.MinIO.Bucket == "") {
		return fmt.Errorf("minio.endpoint and minio.bucket are required when minio is enabled")
	}
	return nil
}

// defaultYAML 代码默认值
func defaultYAML() YAMLConfig {
	return YAMLConfig{
		APIServer: APIServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    "data/jobboard.db",
			Host:    "localhost",
			Port:    5432,
			User:    "jobboard",
			Name:    "jobboard",
			SSLMode: "disable",
		},
		Redis:     RedisConfig{Host: "localhost", Port: 6379},
		MinIO:     MinIOConfig{Bucket: "cvs"},
		Storage:   StorageConfig{UploadDir: "uploads/cvs/"},
		Auth:      AuthConfig{AccessTokenTTL: "24h", RefreshGrace: "1h"},
		RateLimit: RateLimitConfig{Requests: 20, Window: "1m"},
		AI: AIConfig{
			Model:   "gemini-2.5-flash",
			Timeout: "30s",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// loadYAMLConfig 加载 YAML 配置文件：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) *yamlConfigInternal {
	cfg := &yamlConfigInternal{YAMLConfig: defaultYAML()}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range effectiveConfigPaths() {
		path := filepath.Join(base, filename)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg.YAMLConfig); err != nil {
			log.Printf("[Config] WARNING: failed to parse %s: %v", path, err)
			continue
		}
		cfg.loadedFrom = path
		break
	}

	return cfg
}

func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return d, nil
}
