package nodemgr

import (
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/dep2p/go-dep2p-graph/config"
	"github.com/dep2p/go-dep2p-graph/internal/core/entitylistener"
	"github.com/dep2p/go-dep2p-graph/internal/core/graphnotify"
	"github.com/dep2p/go-dep2p-graph/internal/core/metrics"
	"github.com/dep2p/go-dep2p-graph/internal/core/topiccache"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

var logger = log.Logger("core/nodemgr")

// Config 节点管理器配置
type Config struct {
	// Identifier 实现标识
	Identifier string

	// NoDemangle 计数查询使用原始传输层主题名
	NoDemangle bool

	// Listener 监听器配置
	Listener entitylistener.Config
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return Config{
		Identifier: cfg.Graph.Identifier,
		NoDemangle: cfg.Graph.NoDemangle,
		Listener: entitylistener.Config{
			SampleBufferCapacity: cfg.Graph.SampleBufferCapacity,
			FailureLogInterval:   cfg.Graph.FailureLogInterval.Duration(),
		},
	}
}

// Option 管理器选项
type Option func(*Manager)

// WithEventBus 图变化通过 bus 广播 types.EvtGraphChanged
func WithEventBus(bus pkgif.EventBus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithNaming 设置反混淆器与服务配对器
func WithNaming(d pkgif.Demangler, p pkgif.ServicePairer) Option {
	return func(m *Manager) {
		m.demangler = d
		m.pairer = p
	}
}

// WithMetrics 设置指标
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
		m.ledger.metrics = mt
	}
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// Manager 节点生命周期管理器
type Manager struct {
	cfg       Config
	factory   pkgif.ParticipantFactory
	bus       pkgif.EventBus
	demangler pkgif.Demangler
	pairer    pkgif.ServicePairer
	metrics   *metrics.Metrics
	clock     clock.Clock

	mu     sync.Mutex
	nodes  map[*Node]struct{}
	ledger ledger

	// faults 在每个创建步骤前调用，返回错误时该步骤失败
	faults func(step) error
}

// New 创建节点管理器
func New(cfg Config, factory pkgif.ParticipantFactory, opts ...Option) (*Manager, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: participant factory is nil", types.ErrInvalidArgument)
	}
	if cfg.Identifier == "" {
		return nil, fmt.Errorf("%w: identifier is empty", types.ErrInvalidArgument)
	}
	m := &Manager{
		cfg:     cfg,
		factory: factory,
		clock:   clock.New(),
		nodes:   make(map[*Node]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Identifier 返回实现标识
func (m *Manager) Identifier() string {
	return m.cfg.Identifier
}

// ============================================================================
//                              创建
// ============================================================================

// CreateNode 创建节点
//
// 任一步骤失败时释放已获取的全部资源并返回错误，不返回句柄。
func (m *Manager) CreateNode(name, namespace string, domainID uint32) (*Node, error) {
	nc := config.NodeConfig{Name: name, Namespace: namespace, DomainID: domainID}
	if err := nc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
	}

	var guards guardStack
	n, failed, err := m.createNode(&guards, name, namespace, domainID)
	if err != nil {
		m.metrics.CreateFailed(failed.String())
		if rerr := guards.unwind(); rerr != nil {
			logger.Error("回滚节点资源失败", "node", FullyQualified(namespace, name), "step", failed, "error", rerr)
		}
		logger.Warn("创建节点失败", "node", FullyQualified(namespace, name), "step", failed, "error", err)
		return nil, err
	}
	guards.dismiss()

	m.mu.Lock()
	m.nodes[n] = struct{}{}
	m.mu.Unlock()
	m.ledger.add(&m.ledger.nodes, metrics.ResourceNodes, 1)

	logger.Info("节点已创建", "node", n.FullyQualifiedName(), "domain", domainID,
		"participant", n.info.participant.GUID().ShortString())
	return n, nil
}

func (m *Manager) createNode(guards *guardStack, name, namespace string, domainID uint32) (*Node, step, error) {
	fqn := FullyQualified(namespace, name)
	exhausted := func(st step, err error) error {
		return fmt.Errorf("create node %s: %s: %w: %w", fqn, st, types.ErrResourceExhausted, err)
	}

	// 1. 参与者
	if err := m.fault(stepParticipant); err != nil {
		return nil, stepParticipant, exhausted(stepParticipant, err)
	}
	participant, err := m.factory.CreateParticipant(domainID, types.ParticipantQos{
		UserData: FormatUserData(name, namespace),
	})
	if err != nil {
		return nil, stepParticipant, exhausted(stepParticipant, err)
	}
	m.ledger.add(&m.ledger.participants, metrics.ResourceParticipants, 1)
	guards.push(stepParticipant, func() error {
		if err := m.factory.DeleteParticipant(participant); err != nil {
			return err
		}
		m.ledger.add(&m.ledger.participants, metrics.ResourceParticipants, -1)
		return nil
	})

	// 2. 图通知器
	if err := m.fault(stepNotifier); err != nil {
		return nil, stepNotifier, exhausted(stepNotifier, err)
	}
	notifierOpts := []graphnotify.Option{graphnotify.WithMetrics(m.metrics), graphnotify.WithClock(m.clock)}
	if m.bus != nil {
		em, err := m.bus.Emitter(new(types.EvtGraphChanged))
		if err != nil {
			return nil, stepNotifier, exhausted(stepNotifier, err)
		}
		notifierOpts = append(notifierOpts, graphnotify.WithEmitter(em))
	}
	ctx := &listenerContext{
		notifier: graphnotify.New(m.cfg.Identifier, fqn, notifierOpts...),
	}
	m.ledger.add(&m.ledger.notifiers, metrics.ResourceNotifiers, 1)
	guards.push(stepNotifier, func() error {
		m.ledger.add(&m.ledger.notifiers, metrics.ResourceNotifiers, -1)
		return ctx.notifier.Close()
	})

	// 3. 发布者监听器
	if err := m.fault(stepPublisherListener); err != nil {
		return nil, stepPublisherListener, exhausted(stepPublisherListener, err)
	}
	ctx.publishers, err = m.newListener(ctx, types.KindPublisher)
	if err != nil {
		return nil, stepPublisherListener, exhausted(stepPublisherListener, err)
	}
	guards.push(stepPublisherListener, func() error {
		m.ledger.add(&m.ledger.listeners, metrics.ResourceListeners, -1)
		return ctx.publishers.Close()
	})

	// 4. 订阅者监听器
	if err := m.fault(stepSubscriberListener); err != nil {
		return nil, stepSubscriberListener, exhausted(stepSubscriberListener, err)
	}
	ctx.subscribers, err = m.newListener(ctx, types.KindSubscriber)
	if err != nil {
		return nil, stepSubscriberListener, exhausted(stepSubscriberListener, err)
	}
	guards.push(stepSubscriberListener, func() error {
		m.ledger.add(&m.ledger.listeners, metrics.ResourceListeners, -1)
		return ctx.subscribers.Close()
	})

	// 5. 节点句柄
	if err := m.fault(stepNodeHandle); err != nil {
		return nil, stepNodeHandle, exhausted(stepNodeHandle, err)
	}
	n := &Node{
		identifier: m.cfg.Identifier,
		name:       name,
		namespace:  namespace,
	}
	guards.push(stepNodeHandle, func() error {
		n.state.Lock()
		n.name, n.namespace = "", ""
		n.state.Unlock()
		return nil
	})

	// 6. 信息块
	if err := m.fault(stepNodeInfo); err != nil {
		return nil, stepNodeInfo, exhausted(stepNodeInfo, err)
	}
	info := &nodeInfo{participant: participant, ctx: ctx}
	n.info = info
	guards.push(stepNodeInfo, func() error {
		n.state.Lock()
		n.info = nil
		n.state.Unlock()
		return nil
	})

	// 7. 内置读取器
	if err := m.fault(stepBuiltinReaders); err != nil {
		return nil, stepBuiltinReaders, exhausted(stepBuiltinReaders, err)
	}
	if info.pubReader, err = participant.BuiltinReader(types.BuiltinPublicationsReader); err != nil {
		return nil, stepBuiltinReaders, exhausted(stepBuiltinReaders, err)
	}
	if info.subReader, err = participant.BuiltinReader(types.BuiltinSubscriptionsReader); err != nil {
		return nil, stepBuiltinReaders, exhausted(stepBuiltinReaders, err)
	}

	// 8. 挂载监听器
	if err := m.fault(stepAttachListeners); err != nil {
		return nil, stepAttachListeners, exhausted(stepAttachListeners, err)
	}
	if err := info.pubReader.SetListener(ctx.publishers); err != nil {
		return nil, stepAttachListeners, exhausted(stepAttachListeners, err)
	}
	guards.push(stepAttachListeners, func() error {
		return info.pubReader.SetListener(nil)
	})
	if err := info.subReader.SetListener(ctx.subscribers); err != nil {
		return nil, stepAttachListeners, exhausted(stepAttachListeners, err)
	}
	guards.push(stepAttachListeners, func() error {
		return info.subReader.SetListener(nil)
	})

	return n, 0, nil
}

func (m *Manager) newListener(ctx *listenerContext, kind types.EntityKind) (*entitylistener.Listener, error) {
	cache := topiccache.New(kind, m.demangler, m.pairer)
	l, err := entitylistener.New(kind, &ctx.mu, cache, ctx.notifier, m.cfg.Listener, m.metrics)
	if err != nil {
		return nil, err
	}
	m.ledger.add(&m.ledger.listeners, metrics.ResourceListeners, 1)
	return l, nil
}

func (m *Manager) fault(st step) error {
	if m.faults == nil {
		return nil
	}
	return m.faults(st)
}

// ============================================================================
//                              销毁
// ============================================================================

// DestroyNode 销毁节点
//
// 先删除参与者；删除失败时立即返回，节点保持可用。
func (m *Manager) DestroyNode(n *Node) error {
	if err := m.validate(n); err != nil {
		return err
	}

	n.state.Lock()
	defer n.state.Unlock()

	info := n.info
	if info == nil {
		return types.ErrNodeDestroyed
	}
	fqn := FullyQualified(n.namespace, n.name)

	if err := m.factory.DeleteParticipant(info.participant); err != nil {
		logger.Warn("删除参与者失败，节点保持不变", "node", fqn, "error", err)
		return fmt.Errorf("destroy node %s: %w", fqn, err)
	}
	m.ledger.add(&m.ledger.participants, metrics.ResourceParticipants, -1)

	// 参与者删除后不会再有回调
	err := multierr.Combine(
		info.ctx.publishers.Close(),
		info.ctx.subscribers.Close(),
		info.ctx.notifier.Close(),
	)
	m.ledger.add(&m.ledger.listeners, metrics.ResourceListeners, -2)
	m.ledger.add(&m.ledger.notifiers, metrics.ResourceNotifiers, -1)

	n.info = nil
	n.name, n.namespace = "", ""

	m.mu.Lock()
	delete(m.nodes, n)
	m.mu.Unlock()
	m.ledger.add(&m.ledger.nodes, metrics.ResourceNodes, -1)

	logger.Info("节点已销毁", "node", fqn)
	return err
}

// Close 销毁所有仍存活的节点
func (m *Manager) Close() error {
	var err error
	for _, n := range m.Nodes() {
		err = multierr.Append(err, m.DestroyNode(n))
	}
	return err
}

// Nodes 返回存活节点
func (m *Manager) Nodes() []*Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Node, 0, len(m.nodes))
	for n := range m.nodes {
		out = append(out, n)
	}
	return out
}

// Resources 返回资源台账快照
func (m *Manager) Resources() Resources {
	return m.ledger.snapshot()
}

// validate 校验句柄
func (m *Manager) validate(n *Node) error {
	if n == nil {
		return fmt.Errorf("%w: node handle is nil", types.ErrInvalidArgument)
	}
	if n.identifier != m.cfg.Identifier {
		return fmt.Errorf("%w: node %q, expected %q", types.ErrIncorrectImplementation, n.identifier, m.cfg.Identifier)
	}
	return nil
}
