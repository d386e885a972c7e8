package memdds

import (
	"sync"

	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// domain 单个域内的参与者与端点公告
type domain struct {
	id uint32

	mu           sync.Mutex
	participants map[types.GUID]*Participant

	// 当前存活的公告（编码后），供后加入的参与者回放
	publications  map[types.GUID][]byte
	subscriptions map[types.GUID][]byte
}

func newDomain(id uint32) *domain {
	return &domain{
		id:            id,
		participants:  make(map[types.GUID]*Participant),
		publications:  make(map[types.GUID][]byte),
		subscriptions: make(map[types.GUID][]byte),
	}
}

func (d *domain) live(kind types.EntityKind) map[types.GUID][]byte {
	if kind == types.KindSubscriber {
		return d.subscriptions
	}
	return d.publications
}

// announce 向所有参与者公告端点（调用方持有 d.mu）
func (d *domain) announce(kind types.EntityKind, a announcement) error {
	payload, err := encodeAnnouncement(a)
	if err != nil {
		return err
	}
	d.live(kind)[a.key] = payload

	s := wireSample{handle: a.key, state: types.InstanceAlive, payload: payload}
	for _, p := range d.participants {
		p.readerFor(kind).enqueue(s)
	}
	return nil
}

// dispose 向所有参与者公告端点已删除（调用方持有 d.mu）
func (d *domain) dispose(kind types.EntityKind, entity types.GUID) {
	delete(d.live(kind), entity)

	s := wireSample{handle: entity, state: types.InstanceNotAliveDisposed}
	for _, p := range d.participants {
		p.readerFor(kind).enqueue(s)
	}
}

// join 加入参与者并回放现有公告（调用方持有 d.mu）
func (d *domain) join(p *Participant) {
	d.participants[p.guid] = p
	for _, kind := range []types.EntityKind{types.KindPublisher, types.KindSubscriber} {
		r := p.readerFor(kind)
		for key, payload := range d.live(kind) {
			r.enqueue(wireSample{handle: key, state: types.InstanceAlive, payload: payload})
		}
	}
}
