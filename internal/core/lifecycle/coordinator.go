// Package lifecycle 提供运行时生命周期协调器
//
// 阶段按序推进：
//   - created: fx 应用已构建
//   - starting: OnStart 钩子执行中
//   - running: 所有组件就绪，可以创建节点
//   - stopping: OnStop 钩子执行中
//   - stopped: 节点已销毁，传输层已释放
//
// 每个阶段对应一个只关闭一次的信号通道，WaitFor 据此实现阶段 gate。
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
)

var logger = log.Logger("core/lifecycle")

// ============================================================================
//                              阶段定义
// ============================================================================

// Phase 生命周期阶段
type Phase int

const (
	// PhaseCreated 已构建，未启动
	PhaseCreated Phase = iota
	// PhaseStarting 启动中
	PhaseStarting
	// PhaseRunning 稳态运行
	PhaseRunning
	// PhaseStopping 关闭中
	PhaseStopping
	// PhaseStopped 已关闭
	PhaseStopped
)

// String 返回阶段字符串表示
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseStopping:
		return "stopping"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// ============================================================================
//                              Coordinator
// ============================================================================

// Coordinator 生命周期协调器
type Coordinator struct {
	mu sync.RWMutex

	phase   Phase
	signals map[Phase]chan struct{}

	onPhaseChange []func(old, new Phase)
}

// NewCoordinator 创建生命周期协调器
func NewCoordinator() *Coordinator {
	c := &Coordinator{
		phase:   PhaseCreated,
		signals: make(map[Phase]chan struct{}),
	}
	for p := PhaseCreated; p <= PhaseStopped; p++ {
		c.signals[p] = make(chan struct{})
	}
	close(c.signals[PhaseCreated])
	return c
}

// Phase 返回当前阶段
func (c *Coordinator) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// AdvanceTo 推进到指定阶段
//
// 只能向前推进；跳过的中间阶段信号一并关闭。
// 阶段变更回调在释放锁后同步调用。
func (c *Coordinator) AdvanceTo(target Phase) error {
	c.mu.Lock()
	if _, ok := c.signals[target]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("invalid phase: %d", target)
	}
	if target < c.phase {
		cur := c.phase
		c.mu.Unlock()
		return fmt.Errorf("cannot advance backwards: current=%s target=%s", cur, target)
	}
	if target == c.phase {
		c.mu.Unlock()
		return nil
	}

	old := c.phase
	for p := old + 1; p <= target; p++ {
		close(c.signals[p])
	}
	c.phase = target

	callbacks := make([]func(old, new Phase), len(c.onPhaseChange))
	copy(callbacks, c.onPhaseChange)
	c.mu.Unlock()

	logger.Info("生命周期阶段推进", "from", old.String(), "to", target.String())
	for _, cb := range callbacks {
		cb(old, target)
	}
	return nil
}

// WaitFor 阻塞直到指定阶段到达或上下文取消
func (c *Coordinator) WaitFor(ctx context.Context, phase Phase) error {
	c.mu.RLock()
	ch := c.signals[phase]
	c.mu.RUnlock()

	if ch == nil {
		return fmt.Errorf("invalid phase: %d", phase)
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reached 指定阶段是否已到达
func (c *Coordinator) Reached(phase Phase) bool {
	c.mu.RLock()
	ch := c.signals[phase]
	c.mu.RUnlock()
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// OnPhaseChange 注册阶段变更回调
func (c *Coordinator) OnPhaseChange(callback func(old, new Phase)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPhaseChange = append(c.onPhaseChange, callback)
}
