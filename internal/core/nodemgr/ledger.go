package nodemgr

import (
	"sync/atomic"

	"github.com/dep2p/go-dep2p-graph/internal/core/metrics"
)

// Resources 资源台账快照
type Resources struct {
	Participants int64
	Notifiers    int64
	Listeners    int64
	Nodes        int64
}

// ledger 记录节点管理器持有的资源数量
type ledger struct {
	participants atomic.Int64
	notifiers    atomic.Int64
	listeners    atomic.Int64
	nodes        atomic.Int64

	metrics *metrics.Metrics
}

func (l *ledger) add(counter *atomic.Int64, resource string, delta int64) {
	n := counter.Add(delta)
	l.metrics.SetResource(resource, n)
}

func (l *ledger) snapshot() Resources {
	return Resources{
		Participants: l.participants.Load(),
		Notifiers:    l.notifiers.Load(),
		Listeners:    l.listeners.Load(),
		Nodes:        l.nodes.Load(),
	}
}
