package dep2pgraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-graph/config"
	"github.com/dep2p/go-dep2p-graph/internal/core/eventbus"
	"github.com/dep2p/go-dep2p-graph/internal/core/lifecycle"
	"github.com/dep2p/go-dep2p-graph/internal/core/nodemgr"
	"github.com/dep2p/go-dep2p-graph/internal/core/transport/memdds"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
)

var logger = log.Logger("dep2pgraph")

const (
	startTimeout = 15 * time.Second
	stopTimeout  = 15 * time.Second
)

// Runtime 发现图运行时
//
// 持有 Fx 应用与装配出的组件。组件在 New 时构造，节点操作要求已 Start。
type Runtime struct {
	mu      sync.Mutex
	started bool
	closed  bool

	cfg *config.Config
	app *fx.App

	manager     *nodemgr.Manager
	factory     *memdds.Factory
	bus         *eventbus.Bus
	registry    *prometheus.Registry
	coordinator *lifecycle.Coordinator
}

// New 创建运行时（不启动）
func New(opts ...Option) (*Runtime, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	rt := &Runtime{cfg: o.toConfig()}

	app, err := buildFxApp(o, rt)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	rt.app = app
	return rt, nil
}

// Start 快捷启动函数
func Start(ctx context.Context, opts ...Option) (*Runtime, error) {
	rt, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := rt.Start(ctx); err != nil {
		return nil, fmt.Errorf("start runtime: %w", err)
	}
	return rt, nil
}

// Start 启动运行时
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRuntimeClosed
	}
	if r.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := r.app.Start(startCtx); err != nil {
		logger.Error("运行时启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}

	r.started = true
	logger.Info("运行时已启动",
		"identifier", r.manager.Identifier(),
		"domain", r.cfg.Node.DomainID)
	return nil
}

// Stop 停止运行时，销毁所有剩余节点
//
// 可重复调用。
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if !r.started {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := r.app.Stop(stopCtx); err != nil {
		logger.Warn("运行时停止出错", "error", err)
		return fmt.Errorf("stop failed: %w", err)
	}
	logger.Info("运行时已停止")
	return nil
}

// Done 返回在收到 SIGINT / SIGTERM 时关闭的通道
func (r *Runtime) Done() <-chan fx.ShutdownSignal {
	return r.app.Wait()
}

// ════════════════════════════════════════════════════════════════════════════
//                              节点
// ════════════════════════════════════════════════════════════════════════════

// CreateNode 在配置的默认域中创建节点
func (r *Runtime) CreateNode(name, namespace string) (*nodemgr.Node, error) {
	return r.CreateNodeInDomain(name, namespace, r.cfg.Node.DomainID)
}

// CreateDefaultNode 按配置的 node 段创建节点
func (r *Runtime) CreateDefaultNode() (*nodemgr.Node, error) {
	return r.CreateNodeInDomain(r.cfg.Node.Name, r.cfg.Node.Namespace, r.cfg.Node.DomainID)
}

// CreateNodeInDomain 在指定域中创建节点
func (r *Runtime) CreateNodeInDomain(name, namespace string, domainID uint32) (*nodemgr.Node, error) {
	m, err := r.running()
	if err != nil {
		return nil, err
	}
	return m.CreateNode(name, namespace, domainID)
}

// DestroyNode 销毁节点
func (r *Runtime) DestroyNode(n *nodemgr.Node) error {
	m, err := r.running()
	if err != nil {
		return err
	}
	return m.DestroyNode(n)
}

func (r *Runtime) running() (*nodemgr.Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRuntimeClosed
	}
	if !r.started {
		return nil, ErrNotStarted
	}
	return r.manager, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件访问
// ════════════════════════════════════════════════════════════════════════════

// Config 返回运行时配置
func (r *Runtime) Config() *config.Config { return r.cfg }

// Manager 返回节点管理器
func (r *Runtime) Manager() *nodemgr.Manager { return r.manager }

// Factory 返回进程内传输工厂
func (r *Runtime) Factory() *memdds.Factory { return r.factory }

// Bus 返回事件总线
func (r *Runtime) Bus() *eventbus.Bus { return r.bus }

// Registry 返回 Prometheus 注册表
func (r *Runtime) Registry() *prometheus.Registry { return r.registry }

// Phase 返回当前生命周期阶段
func (r *Runtime) Phase() lifecycle.Phase {
	if r.coordinator == nil {
		return lifecycle.PhaseCreated
	}
	return r.coordinator.Phase()
}
