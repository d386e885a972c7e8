package nodemgr

import (
	"fmt"

	"go.uber.org/multierr"
)

// guard 已获取资源的释放动作
type guard struct {
	step    step
	release func() error
}

// guardStack 按获取顺序记录释放动作，失败时逆序执行
type guardStack struct {
	guards []guard
}

func (s *guardStack) push(st step, release func() error) {
	s.guards = append(s.guards, guard{step: st, release: release})
}

// unwind 逆序释放全部资源，返回合并后的释放错误
func (s *guardStack) unwind() error {
	var err error
	for i := len(s.guards) - 1; i >= 0; i-- {
		g := s.guards[i]
		if rerr := g.release(); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("release %s: %w", g.step, rerr))
		}
	}
	s.guards = nil
	return err
}

// dismiss 放弃释放（创建成功后所有权转移给节点）
func (s *guardStack) dismiss() {
	s.guards = nil
}

// step 节点创建步骤
type step int

const (
	stepParticipant step = iota + 1
	stepNotifier
	stepPublisherListener
	stepSubscriberListener
	stepNodeHandle
	stepNodeInfo
	stepBuiltinReaders
	stepAttachListeners
)

// String 返回步骤名
func (s step) String() string {
	switch s {
	case stepParticipant:
		return "participant"
	case stepNotifier:
		return "notifier"
	case stepPublisherListener:
		return "publisher_listener"
	case stepSubscriberListener:
		return "subscriber_listener"
	case stepNodeHandle:
		return "node_handle"
	case stepNodeInfo:
		return "node_info"
	case stepBuiltinReaders:
		return "builtin_readers"
	case stepAttachListeners:
		return "attach_listeners"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}
