// Package metrics 提供贷款顾问服务的业务指标。
// 所有指标注册在 HTTP 服务的注册表上，由 /metrics 统一导出。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kart-io/loan-advisor/internal/advisor/store"
	"github.com/kart-io/loan-advisor/pkg/infra/pool"
	"github.com/kart-io/loan-advisor/pkg/llm/resilience"
)

const subsystem = "advisor"

// Metrics 对话与筛选指标，实现 biz.ChatRecorder 和 biz.FilterRecorder。
type Metrics struct {
	namespace string

	chatTotal      *prometheus.CounterVec
	chatDuration   *prometheus.HistogramVec
	filterTotal    prometheus.Counter
	filterMatched  prometheus.Histogram
	filterRejected prometheus.Counter
}

// New creates the business collectors under namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		namespace: namespace,
		chatTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome"}),
		chatDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_duration_seconds",
			Help:      "Chat request duration in seconds, model call included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),
		filterTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "filter_requests_total",
			Help:      "Catalog filter evaluations.",
		}),
		filterMatched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "filter_matched_products",
			Help:      "Products returned per filter evaluation.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
		filterRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "filter_rejected_products_total",
			Help:      "Products excluded by filter criteria.",
		}),
	}
}

// Register registers the collectors on reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.chatTotal, m.chatDuration, m.filterTotal, m.filterMatched, m.filterRejected,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveChat records one chat request.
func (m *Metrics) ObserveChat(outcome string, duration time.Duration) {
	m.chatTotal.WithLabelValues(outcome).Inc()
	m.chatDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveFilter records one filter evaluation.
func (m *Metrics) ObserveFilter(total, matched int) {
	m.filterTotal.Inc()
	m.filterMatched.Observe(float64(matched))
	if total > matched {
		m.filterRejected.Add(float64(total - matched))
	}
}

// RegisterCacheStats 导出 Redis 缓存命中统计。
func (m *Metrics) RegisterCacheStats(reg prometheus.Registerer, stats func() store.CacheStats) error {
	return registerAll(reg,
		m.counterFunc("catalog_cache_hits_total", "Catalog cache hits.", func() float64 {
			return float64(stats().Hits)
		}),
		m.counterFunc("catalog_cache_misses_total", "Catalog cache misses.", func() float64 {
			return float64(stats().Misses)
		}),
		m.counterFunc("catalog_cache_errors_total", "Catalog cache backend errors.", func() float64 {
			return float64(stats().Errors)
		}),
	)
}

// RegisterPoolStats 导出后台任务池统计。
func (m *Metrics) RegisterPoolStats(reg prometheus.Registerer, p *pool.Pool) error {
	labels := prometheus.Labels{"pool": p.Name()}
	return registerAll(reg,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   subsystem,
			Name:        "pool_running_workers",
			Help:        "Running background workers.",
			ConstLabels: labels,
		}, func() float64 { return float64(p.Running()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   subsystem,
			Name:        "pool_rejected_tasks_total",
			Help:        "Background tasks rejected by a full pool.",
			ConstLabels: labels,
		}, func() float64 { return float64(p.Stats().RejectedTasks) }),
	)
}

// RegisterBreakerState 导出模型熔断器状态：0 closed，1 open，2 half-open。
func (m *Metrics) RegisterBreakerState(reg prometheus.Registerer, cb *resilience.CircuitBreaker) error {
	return registerAll(reg,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: subsystem,
			Name:      "model_circuit_breaker_state",
			Help:      "Model backend circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, func() float64 { return float64(cb.State()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: subsystem,
			Name:      "model_circuit_breaker_rejected_total",
			Help:      "Model calls rejected while the breaker was open.",
		}, func() float64 { return float64(cb.Stats().Rejected) }),
	)
}

func (m *Metrics) counterFunc(name, help string, fn func() float64) prometheus.Collector {
	return prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn)
}

func registerAll(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
