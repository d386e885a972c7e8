package graphnotify

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-dep2p-graph/internal/core/metrics"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

var logger = log.Logger("core/graphnotify")

var _ pkgif.GraphNotifier = (*Notifier)(nil)

// Option 通知器选项
type Option func(*Notifier)

// WithEmitter 触发时通过 em 发射 types.EvtGraphChanged
//
// 通知器接管 em，Close 时一并关闭。
func WithEmitter(em pkgif.Emitter) Option {
	return func(n *Notifier) {
		n.emitter = em
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

// WithClock 设置时钟（事件时间戳）
func WithClock(c clock.Clock) Option {
	return func(n *Notifier) {
		n.clock = c
	}
}

// Notifier 图变化通知器
type Notifier struct {
	identifier string
	source     string

	ch       chan struct{}
	closed   atomic.Bool
	triggers atomic.Uint64

	emitter pkgif.Emitter
	metrics *metrics.Metrics
	clock   clock.Clock

	closeOnce sync.Once
}

// New 创建通知器
//
// identifier 为实现标识，source 标识所属节点（写入事件）。
func New(identifier, source string, opts ...Option) *Notifier {
	n := &Notifier{
		identifier: identifier,
		source:     source,
		ch:         make(chan struct{}, 1),
		clock:      clock.New(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Identifier 返回实现标识
func (n *Notifier) Identifier() string {
	return n.identifier
}

// C 返回等待通道，每次读取消费一个信号
func (n *Notifier) C() <-chan struct{} {
	return n.ch
}

// Trigger 发出图变化信号
//
// 已有未消费的信号时合并。关闭后返回 types.ErrClosed。
func (n *Notifier) Trigger() error {
	if n.closed.Load() {
		return types.ErrClosed
	}

	seq := n.triggers.Add(1)
	select {
	case n.ch <- struct{}{}:
	default:
	}
	n.metrics.Triggered()

	if n.emitter == nil {
		return nil
	}
	evt := types.EvtGraphChanged{
		Source:   n.source,
		Sequence: seq,
		Time:     n.clock.Now(),
	}
	if err := n.emitter.Emit(evt); err != nil {
		return fmt.Errorf("emit graph event: %w", err)
	}
	return nil
}

// Triggers 返回累计触发次数
func (n *Notifier) Triggers() uint64 {
	return n.triggers.Load()
}

// Close 关闭通知器
//
// 通道不关闭，等待方不会因关闭而被唤醒。
func (n *Notifier) Close() error {
	var err error
	n.closeOnce.Do(func() {
		n.closed.Store(true)
		if n.emitter != nil {
			err = n.emitter.Close()
		}
		logger.Debug("通知器已关闭", "source", n.source, "triggers", n.triggers.Load())
	})
	return err
}
