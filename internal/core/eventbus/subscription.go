package eventbus

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅
type Subscription struct {
	bus       *Bus
	typ       reflect.Type
	out       chan interface{}
	closeOnce sync.Once
}

// Out 返回事件通道
func (s *Subscription) Out() <-chan interface{} {
	return s.out
}

// Close 取消订阅
//
// 可重复调用。摘除与关闭通道在节点锁内完成，emit 不会写入已关闭的通道。
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		n, ok := s.bus.nodes[s.typ]
		if !ok {
			s.bus.mu.Unlock()
			close(s.out)
			return
		}
		n.mu.Lock()
		s.bus.mu.Unlock()

		for i, sink := range n.sinks {
			if sink == s {
				n.sinks = append(n.sinks[:i], n.sinks[i+1:]...)
				break
			}
		}
		close(s.out)
		n.mu.Unlock()

		s.bus.release(n)
	})
	return nil
}

// ============================================================================
// Emitter 实现
// ============================================================================

// Emitter 事件发射器
type Emitter struct {
	bus       *Bus
	node      *node
	closed    atomic.Bool
	closeOnce sync.Once
}

// Emit 发射事件
func (e *Emitter) Emit(event interface{}) error {
	if e.closed.Load() {
		return ErrEmitterClosed
	}
	e.node.emit(event)
	return nil
}

// Close 关闭发射器
func (e *Emitter) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.node.mu.Lock()
		e.node.emitters--
		e.node.mu.Unlock()
		e.bus.release(e.node)
	})
	return nil
}
