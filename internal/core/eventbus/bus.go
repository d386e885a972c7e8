package eventbus

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrNonPointerType 非指针类型
	ErrNonPointerType = errors.New("event type must be a pointer")
	// ErrEmitterClosed 发射器已关闭
	ErrEmitterClosed = errors.New("emitter closed")
)

// 默认订阅缓冲区
const defaultBuffer = 16

// 确保实现了接口
var _ pkgif.EventBus = (*Bus)(nil)

// 选项重导出
var (
	// BufSize 设置订阅缓冲区大小
	BufSize = pkgif.BufSize
	// Stateful 设置发射器为有状态模式
	Stateful = pkgif.Stateful
)

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 事件总线
type Bus struct {
	mu    sync.Mutex
	nodes map[reflect.Type]*node
}

// node 单一事件类型的路由节点
type node struct {
	mu        sync.Mutex
	typ       reflect.Type
	sinks     []*Subscription
	emitters  int
	keepLast  bool
	last      interface{}
	dropCount atomic.Int64
}

// NewBus 创建新的事件总线
func NewBus() *Bus {
	return &Bus{
		nodes: make(map[reflect.Type]*node),
	}
}

// Subscribe 订阅事件
func (b *Bus) Subscribe(eventType interface{}, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	settings := pkgif.SubscriptionSettings{Buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Buffer < 0 {
		settings.Buffer = 0
	}

	sub := &Subscription{
		bus: b,
		typ: typ,
		out: make(chan interface{}, settings.Buffer),
	}

	b.mu.Lock()
	n := b.nodeLocked(typ)
	n.mu.Lock()
	b.mu.Unlock()

	n.sinks = append(n.sinks, sub)
	if n.keepLast && n.last != nil {
		select {
		case sub.out <- n.last:
		default:
		}
	}
	n.mu.Unlock()

	return sub, nil
}

// Emitter 获取发射器
func (b *Bus) Emitter(eventType interface{}, opts ...pkgif.EmitterOpt) (pkgif.Emitter, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	var settings pkgif.EmitterSettings
	for _, opt := range opts {
		opt(&settings)
	}

	b.mu.Lock()
	n := b.nodeLocked(typ)
	n.mu.Lock()
	b.mu.Unlock()

	n.emitters++
	if settings.Stateful {
		n.keepLast = true
	}
	n.mu.Unlock()

	return &Emitter{bus: b, node: n}, nil
}

// Dropped 返回指定事件类型累计丢弃的事件数
func (b *Bus) Dropped(eventType interface{}) int64 {
	typ, err := elemType(eventType)
	if err != nil {
		return 0
	}
	b.mu.Lock()
	n, ok := b.nodes[typ]
	b.mu.Unlock()
	if !ok {
		return 0
	}
	return n.dropCount.Load()
}

// ============================================================================
// 内部方法
// ============================================================================

func elemType(eventType interface{}) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Ptr {
		return nil, ErrNonPointerType
	}
	return typ.Elem(), nil
}

// nodeLocked 获取或创建事件类型节点（调用方持有 b.mu）
func (b *Bus) nodeLocked(typ reflect.Type) *node {
	n, ok := b.nodes[typ]
	if !ok {
		n = &node{typ: typ}
		b.nodes[typ] = n
	}
	return n
}

// release 节点无订阅者且无发射器时移除
func (b *Bus) release(n *node) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n.mu.Lock()
	idle := len(n.sinks) == 0 && n.emitters == 0
	n.mu.Unlock()

	if idle && b.nodes[n.typ] == n {
		delete(b.nodes, n.typ)
	}
}

// emit 发射事件到所有订阅者（不阻塞）
func (n *node) emit(event interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.keepLast {
		n.last = event
	}

	for _, sub := range n.sinks {
		select {
		case sub.out <- event:
		default:
			dropped := n.dropCount.Add(1)
			// 每丢弃 100 个事件警告一次
			if dropped%100 == 1 {
				logger.Warn("慢消费者检测",
					"dropped", dropped,
					"type", n.typ.String())
			}
		}
	}
}
