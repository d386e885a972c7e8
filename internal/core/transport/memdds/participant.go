package memdds

import (
	"fmt"
	"sort"
	"sync"
	"time"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

var _ pkgif.Participant = (*Participant)(nil)

// 实体 ID 低字节约定
const (
	entityKindWriter uint32 = 0x03
	entityKindReader uint32 = 0x04
)

// Participant 域参与者
type Participant struct {
	factory  *Factory
	domain   *domain
	guid     types.GUID
	userData []byte

	publications  *Reader
	subscriptions *Reader

	mu             sync.Mutex
	nextEntity     uint32
	local          map[types.GUID]types.EntityKind
	deleted        bool
	lastLiveliness time.Time
}

func newParticipant(f *Factory, d *domain, qos types.ParticipantQos) *Participant {
	userData := make([]byte, len(qos.UserData))
	copy(userData, qos.UserData)
	return &Participant{
		factory:       f,
		domain:        d,
		guid:          types.NewParticipantGUID(),
		userData:      userData,
		publications:  newReader(types.BuiltinPublicationsReader, types.KindPublisher),
		subscriptions: newReader(types.BuiltinSubscriptionsReader, types.KindSubscriber),
		local:         make(map[types.GUID]types.EntityKind),
	}
}

// GUID 返回参与者 GUID
func (p *Participant) GUID() types.GUID {
	return p.guid
}

// DomainID 返回所在域
func (p *Participant) DomainID() uint32 {
	return p.domain.id
}

// UserData 返回 user_data 副本
func (p *Participant) UserData() []byte {
	out := make([]byte, len(p.userData))
	copy(out, p.userData)
	return out
}

// BuiltinReader 按名称查找内置发现读取器
func (p *Participant) BuiltinReader(name string) (pkgif.BuiltinReader, error) {
	r, err := p.reader(name)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Reader 同 BuiltinReader，返回具体类型（故障注入）
func (p *Participant) Reader(name string) (*Reader, error) {
	return p.reader(name)
}

func (p *Participant) reader(name string) (*Reader, error) {
	switch name {
	case types.BuiltinPublicationsReader:
		return p.publications, nil
	case types.BuiltinSubscriptionsReader:
		return p.subscriptions, nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrReaderNotFound, name)
	}
}

func (p *Participant) readerFor(kind types.EntityKind) *Reader {
	if kind == types.KindSubscriber {
		return p.subscriptions
	}
	return p.publications
}

// AssertLiveliness 声明存活
func (p *Participant) AssertLiveliness() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleted {
		return types.ErrClosed
	}
	p.lastLiveliness = p.factory.clock.Now()
	return nil
}

// LastLiveliness 返回最近一次声明存活的时间
func (p *Participant) LastLiveliness() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastLiveliness
}

// DiscoveredParticipants 返回域内所有参与者（含自身），按 GUID 排序
func (p *Participant) DiscoveredParticipants() ([]types.ParticipantData, error) {
	d := p.domain
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.participants[p.guid]; !ok {
		return nil, types.ErrClosed
	}

	out := make([]types.ParticipantData, 0, len(d.participants))
	for _, other := range d.participants {
		out = append(out, types.ParticipantData{GUID: other.guid, UserData: other.UserData()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GUID.Compare(out[j].GUID) < 0
	})
	return out, nil
}

// ============================================================================
//                              本地实体
// ============================================================================

// CreateWriter 创建本地写入者并向域公告
func (p *Participant) CreateWriter(topicName, typeName string) (types.GUID, error) {
	return p.createEntity(types.KindPublisher, topicName, typeName)
}

// CreateReader 创建本地读取者并向域公告
func (p *Participant) CreateReader(topicName, typeName string) (types.GUID, error) {
	return p.createEntity(types.KindSubscriber, topicName, typeName)
}

// DeleteEntity 删除本地实体并向域公告 disposed
func (p *Participant) DeleteEntity(entity types.GUID) error {
	d := p.domain
	d.mu.Lock()
	defer d.mu.Unlock()

	p.mu.Lock()
	if p.deleted {
		p.mu.Unlock()
		return types.ErrClosed
	}
	kind, ok := p.local[entity]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	delete(p.local, entity)
	p.mu.Unlock()

	d.dispose(kind, entity)
	return nil
}

// LocalEntities 返回本地实体数量
func (p *Participant) LocalEntities() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.local)
}

func (p *Participant) createEntity(kind types.EntityKind, topicName, typeName string) (types.GUID, error) {
	if topicName == "" || typeName == "" {
		return types.ZeroGUID, fmt.Errorf("%w: topic and type names are required", types.ErrInvalidArgument)
	}

	d := p.domain
	d.mu.Lock()
	defer d.mu.Unlock()

	p.mu.Lock()
	if p.deleted {
		p.mu.Unlock()
		return types.ZeroGUID, types.ErrClosed
	}
	p.nextEntity++
	suffix := entityKindWriter
	if kind == types.KindSubscriber {
		suffix = entityKindReader
	}
	entity := types.NewEntityGUID(p.guid, p.nextEntity<<8|suffix)
	p.local[entity] = kind
	p.mu.Unlock()

	err := d.announce(kind, announcement{
		key:         entity,
		participant: p.guid,
		topicName:   topicName,
		typeName:    typeName,
	})
	if err != nil {
		p.mu.Lock()
		delete(p.local, entity)
		p.mu.Unlock()
		return types.ZeroGUID, err
	}
	return entity, nil
}
