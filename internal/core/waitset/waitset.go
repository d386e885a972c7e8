package waitset

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
)

var (
	// ErrTimeout 等待超时
	ErrTimeout = errors.New("wait set timed out")

	// ErrEmpty 等待集没有条件
	ErrEmpty = errors.New("wait set has no conditions")
)

// Infinite 无限等待
const Infinite time.Duration = -1

// Option 等待集选项
type Option func(*WaitSet)

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(ws *WaitSet) {
		ws.clock = c
	}
}

// WaitSet 条件等待集
type WaitSet struct {
	clock clock.Clock

	mu    sync.Mutex
	conds []pkgif.GraphCondition
}

// New 创建等待集
func New(opts ...Option) *WaitSet {
	ws := &WaitSet{clock: clock.New()}
	for _, opt := range opts {
		opt(ws)
	}
	return ws
}

// Attach 加入条件，重复加入忽略
func (ws *WaitSet) Attach(c pkgif.GraphCondition) {
	if c == nil {
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, existing := range ws.conds {
		if existing == c {
			return
		}
	}
	ws.conds = append(ws.conds, c)
}

// Detach 移除条件
func (ws *WaitSet) Detach(c pkgif.GraphCondition) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for i, existing := range ws.conds {
		if existing == c {
			ws.conds = append(ws.conds[:i], ws.conds[i+1:]...)
			return
		}
	}
}

// Len 返回条件数量
func (ws *WaitSet) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.conds)
}

// Wait 等待任一条件就绪
//
// timeout 为 0 时只轮询一次，为 Infinite 时只受 ctx 约束。
// 返回本次就绪的全部条件；超时返回 ErrTimeout。
func (ws *WaitSet) Wait(ctx context.Context, timeout time.Duration) ([]pkgif.GraphCondition, error) {
	ws.mu.Lock()
	conds := make([]pkgif.GraphCondition, len(ws.conds))
	copy(conds, ws.conds)
	ws.mu.Unlock()

	if len(conds) == 0 {
		return nil, ErrEmpty
	}

	// 条件 0..n-1，之后依次为 ctx、计时器或 default
	cases := make([]reflect.SelectCase, 0, len(conds)+2)
	for _, c := range conds {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.C())})
	}
	ctxIdx := len(cases)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})

	timerIdx := -1
	switch {
	case timeout == 0:
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectDefault})
	case timeout > 0:
		timer := ws.clock.Timer(timeout)
		defer timer.Stop()
		timerIdx = len(cases)
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(timer.C)})
	}

	chosen, _, _ := reflect.Select(cases)
	switch {
	case chosen == ctxIdx:
		return nil, ctx.Err()
	case chosen == timerIdx || chosen >= len(conds):
		return nil, ErrTimeout
	}

	ready := []pkgif.GraphCondition{conds[chosen]}
	for i, c := range conds {
		if i == chosen {
			continue
		}
		select {
		case <-c.C():
			ready = append(ready, c)
		default:
		}
	}
	return ready, nil
}
