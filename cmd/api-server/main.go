// Package main API Server 入口
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"jobboard/internal/apiserver/ai"
	"jobboard/internal/apiserver/auth"
	"jobboard/internal/apiserver/httpx"
	"jobboard/internal/apiserver/metrics"
	"jobboard/internal/apiserver/server"
	"jobboard/internal/config"
	"jobboard/internal/shared/infra"
	"jobboard/internal/shared/ratelimit"
	"jobboard/pkg/logging"
)

func main() {
	configDir := flag.String("config", "", "配置文件目录（覆盖 CONFIG_DIR）")
	flag.Parse()
	if *configDir != "" {
		config.SetConfigDir(*configDir)
	}

	// 加载配置（dev/test 自动加载 .env.<env>）
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.SetDefaults(cfg.Log.Level, cfg.Log.Format)
	logger := logging.Default("api-server")

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 存储、简历文件、Redis
	inf, err := infra.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize infrastructure: %v", err)
	}
	defer inf.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("jobboard", reg)

	authCfg := auth.DefaultConfig()
	authCfg.JWTSecret = cfg.Auth.JWTSecret
	authCfg.AccessTokenTTL = cfg.TokenTTL
	authCfg.RefreshGrace = cfg.Grace

	var gen ai.Generator
	if cfg.AI.APIKey != "" {
		client, err := ai.NewClient(ctx, ai.ClientConfig{
			Model:   cfg.AI.Model,
			APIKey:  cfg.AI.APIKey,
			Timeout: cfg.AITimeout,
		})
		if err != nil {
			log.Fatalf("[AI] %v", err)
		}
		gen = client
	} else {
		log.Println("[AI] GEMINI_API_KEY not set, AI endpoints return placeholder text")
	}

	limiter := ratelimit.New(inf.Redis, cfg.RateLimit.Requests, cfg.RateWin)
	if limiter == nil {
		log.Println("[RateLimit] disabled (Redis not configured)")
	}

	proxies, err := httpx.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("Invalid api_server.trusted_proxies: %v", err)
	}

	h := server.New(server.Deps{
		Store:       inf.Storage,
		Objects:     inf.Objects,
		Limiter:     limiter,
		Generator:   gen,
		Metrics:     m,
		Gatherer:    reg,
		Auth:        authCfg,
		CORSOrigins: cfg.CORSOrigins,

		TrustedProxies: proxies,
	})

	if err := h.Auth().EnsureAdminUser(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second, // AI 接口最长约 30s
		IdleTimeout:       60 * time.Second,
		ErrorLog:          newServerErrorLog(logger),
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("server shutdown error")
		}
		cancel()
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	logger.Info("server stopped")
}
