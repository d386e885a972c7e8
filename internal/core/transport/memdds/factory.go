package memdds

import (
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

var logger = log.Logger("core/transport/memdds")

var _ pkgif.ParticipantFactory = (*Factory)(nil)

// Option 工厂选项
type Option func(*Factory)

// WithClock 设置时钟（存活声明时间）
func WithClock(c clock.Clock) Option {
	return func(f *Factory) {
		f.clock = c
	}
}

// Factory 参与者工厂
type Factory struct {
	clock clock.Clock

	mu           sync.Mutex
	domains      map[uint32]*domain
	createFaults int
}

// NewFactory 创建工厂
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		clock:   clock.New(),
		domains: make(map[uint32]*domain),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateParticipant 在指定域创建参与者
func (f *Factory) CreateParticipant(domainID uint32, qos types.ParticipantQos) (pkgif.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createFaults > 0 {
		f.createFaults--
		return nil, fmt.Errorf("create participant: %w", ErrInjected)
	}

	d, ok := f.domains[domainID]
	if !ok {
		d = newDomain(domainID)
		f.domains[domainID] = d
	}

	p := newParticipant(f, d, qos)
	d.mu.Lock()
	d.join(p)
	d.mu.Unlock()

	logger.Debug("参与者已创建", "domain", domainID, "guid", p.guid.ShortString())
	return p, nil
}

// DeleteParticipant 删除参与者
//
// 仍有本地实体时返回 ErrPreconditionNotMet 且不做修改。
// 返回前停止内置读取器的分发，之后不会再有监听器回调。
func (f *Factory) DeleteParticipant(pp pkgif.Participant) error {
	p, ok := pp.(*Participant)
	if !ok || p == nil || p.factory != f {
		return ErrForeignParticipant
	}

	f.mu.Lock()
	d := p.domain
	d.mu.Lock()

	p.mu.Lock()
	if p.deleted {
		p.mu.Unlock()
		d.mu.Unlock()
		f.mu.Unlock()
		return fmt.Errorf("%w: participant already deleted", types.ErrInvalidArgument)
	}
	if n := len(p.local); n > 0 {
		p.mu.Unlock()
		d.mu.Unlock()
		f.mu.Unlock()
		return fmt.Errorf("delete participant %s: %w (%d local entities)", p.guid.ShortString(), ErrPreconditionNotMet, n)
	}
	p.deleted = true
	p.mu.Unlock()

	delete(d.participants, p.guid)
	if len(d.participants) == 0 {
		delete(f.domains, d.id)
	}
	d.mu.Unlock()
	f.mu.Unlock()

	p.publications.stop()
	p.subscriptions.stop()

	logger.Debug("参与者已删除", "domain", d.id, "guid", p.guid.ShortString())
	return nil
}

// Participants 返回指定域的参与者数量
func (f *Factory) Participants(domainID uint32) int {
	f.mu.Lock()
	d, ok := f.domains[domainID]
	f.mu.Unlock()
	if !ok {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.participants)
}

// InjectCreateFailures 使接下来 n 次 CreateParticipant 失败
func (f *Factory) InjectCreateFailures(n int) {
	f.mu.Lock()
	f.createFaults = n
	f.mu.Unlock()
}
