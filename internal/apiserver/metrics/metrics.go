// Package metrics Prometheus 指标导出
//
// 所有记录方法对 nil *Metrics 安全，服务层测试可以不注册指标。
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有 API Server 指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 业务指标
	RegistrationsTotal    *prometheus.CounterVec
	LoginsTotal           *prometheus.CounterVec
	JobsModeratedTotal    *prometheus.CounterVec
	ApplicationsSubmitted prometheus.Counter
	ApplicationStatusSet  *prometheus.CounterVec
	CVsStoredTotal        *prometheus.CounterVec
	AICallsTotal          *prometheus.CounterVec
	AICallDuration        prometheus.Histogram
}

// NewMetrics 创建指标实例并注册到 reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		RegistrationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Successful registrations by role",
			},
			[]string{"role"},
		),
		LoginsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Login attempts by result",
			},
			[]string{"result"},
		),
		JobsModeratedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_moderated_total",
				Help:      "Admin moderation actions on jobs",
			},
			[]string{"action"},
		),
		ApplicationsSubmitted: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "applications_submitted_total",
				Help:      "Submitted applications",
			},
		),
		ApplicationStatusSet: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "application_status_changes_total",
				Help:      "Application status changes by target status",
			},
			[]string{"status"},
		),
		CVsStoredTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cvs_stored_total",
				Help:      "Stored CV documents by source (upload|build)",
			},
			[]string{"source"},
		),
		AICallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_calls_total",
				Help:      "Generative AI calls by feature and outcome",
			},
			[]string{"feature", "outcome"},
		),
		AICallDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_call_duration_seconds",
				Help:      "Generative AI call duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
	}
}

// Middleware 创建 HTTP 指标中间件
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		wrapped := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := NormalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.Status)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// StatusRecorder 包装 http.ResponseWriter 以捕获状态码
type StatusRecorder struct {
	http.ResponseWriter
	Status      int
	wroteHeader bool
}

func (rw *StatusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.Status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap 供 http.ResponseController 访问底层 writer
func (rw *StatusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// idPrefixes 前缀加十六进制串的路径段视为 ID
var idPrefixes = []string{"usr-", "sk-", "emp-", "job-", "app-", "cv-", "mlog-"}

// NormalizePath 规范化路径，将 ID 替换为占位符，避免高基数
// 例如 /api/v1/jobs/job-3f2a9c1d0e4b -> /api/v1/jobs/{id}
func NormalizePath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		for _, p := range idPrefixes {
			if rest, ok := strings.CutPrefix(s, p); ok && isHex(rest) {
				segs[i] = "{id}"
				break
			}
		}
	}
	return strings.Join(segs, "/")
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

// Handler 返回 Prometheus HTTP Handler
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ============================================================================
// 业务指标记录
// ============================================================================

func (m *Metrics) RecordRegistration(role string) {
	if m != nil {
		m.RegistrationsTotal.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) RecordLogin(result string) {
	if m != nil {
		m.LoginsTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) RecordModeration(action string) {
	if m != nil {
		m.JobsModeratedTotal.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) RecordApplicationSubmitted() {
	if m != nil {
		m.ApplicationsSubmitted.Inc()
	}
}

func (m *Metrics) RecordApplicationStatus(status string) {
	if m != nil {
		m.ApplicationStatusSet.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) RecordCVStored(source string) {
	if m != nil {
		m.CVsStoredTotal.WithLabelValues(source).Inc()
	}
}

// RecordAICall 记录一次 AI 调用
func (m *Metrics) RecordAICall(feature, outcome string, duration time.Duration) {
	if m != nil {
		m.AICallsTotal.WithLabelValues(feature, outcome).Inc()
		m.AICallDuration.Observe(duration.Seconds())
	}
}
