package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// 批次失败原因
const (
	ReasonAlloc = "alloc"
	ReasonTake  = "take"
)

// 资源台账标签
const (
	ResourceParticipants = "participants"
	ResourceNotifiers    = "notifiers"
	ResourceListeners    = "listeners"
	ResourceNodes        = "nodes"
)

// Metrics 发现图指标集合
type Metrics struct {
	batches         *prometheus.CounterVec
	samples         *prometheus.CounterVec
	batchFailures   *prometheus.CounterVec
	triggers        prometheus.Counter
	triggerFailures prometheus.Counter
	createFailures  *prometheus.CounterVec
	resources       *prometheus.GaugeVec
}

// New 创建指标并注册到 reg
//
// reg 为 nil 时只创建不注册。重复注册同名指标时复用已注册的收集器。
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "listener",
				Name:      "batches_total",
				Help:      "Discovery batches that applied at least one sample.",
			},
			[]string{"kind"},
		),
		samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "listener",
				Name:      "samples_total",
				Help:      "Discovery samples processed, by outcome.",
			},
			[]string{"kind", "op"},
		),
		batchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "listener",
				Name:      "batch_failures_total",
				Help:      "Discovery batches dropped because the transport failed.",
			},
			[]string{"kind", "reason"},
		),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "triggers_total",
			Help:      "Graph change notifications raised.",
		}),
		triggerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "trigger_failures_total",
			Help:      "Graph change notifications that failed.",
		}),
		createFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "node",
				Name:      "create_failures_total",
				Help:      "Node creations rolled back, by failing step.",
			},
			[]string{"step"},
		),
		resources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "node",
				Name:      "resources",
				Help:      "Live resources held by the node manager.",
			},
			[]string{"resource"},
		),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.batches, err = register(reg, m.batches); err != nil {
		return nil, err
	}
	if m.samples, err = register(reg, m.samples); err != nil {
		return nil, err
	}
	if m.batchFailures, err = register(reg, m.batchFailures); err != nil {
		return nil, err
	}
	if m.triggers, err = register(reg, m.triggers); err != nil {
		return nil, err
	}
	if m.triggerFailures, err = register(reg, m.triggerFailures); err != nil {
		return nil, err
	}
	if m.createFailures, err = register(reg, m.createFailures); err != nil {
		return nil, err
	}
	if m.resources, err = register(reg, m.resources); err != nil {
		return nil, err
	}
	return m, nil
}

// register 注册收集器，已注册时返回已存在的实例
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}

// ============================================================================
//                              监听器
// ============================================================================

// ObserveBatch 记录一次批次的处理结果
func (m *Metrics) ObserveBatch(kind types.EntityKind, added, removed, skipped int) {
	if m == nil {
		return
	}
	k := kind.String()
	if added+removed > 0 {
		m.batches.WithLabelValues(k).Inc()
	}
	m.samples.WithLabelValues(k, "add").Add(float64(added))
	m.samples.WithLabelValues(k, "remove").Add(float64(removed))
	m.samples.WithLabelValues(k, "skip").Add(float64(skipped))
}

// BatchFailed 记录一次被丢弃的批次
func (m *Metrics) BatchFailed(kind types.EntityKind, reason string) {
	if m == nil {
		return
	}
	m.batchFailures.WithLabelValues(kind.String(), reason).Inc()
}

// ============================================================================
//                              图通知
// ============================================================================

// Triggered 记录一次图变化通知
func (m *Metrics) Triggered() {
	if m == nil {
		return
	}
	m.triggers.Inc()
}

// TriggerFailed 记录一次通知失败
func (m *Metrics) TriggerFailed() {
	if m == nil {
		return
	}
	m.triggerFailures.Inc()
}

// ============================================================================
//                              节点管理
// ============================================================================

// CreateFailed 记录节点创建在 step 步骤失败
func (m *Metrics) CreateFailed(step string) {
	if m == nil {
		return
	}
	m.createFailures.WithLabelValues(step).Inc()
}

// SetResource 设置资源台账数值
func (m *Metrics) SetResource(resource string, n int64) {
	if m == nil {
		return
	}
	m.resources.WithLabelValues(resource).Set(float64(n))
}
