package entitylistener

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dep2p/go-dep2p-graph/internal/core/metrics"
	"github.com/dep2p/go-dep2p-graph/internal/core/topiccache"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

var logger = log.Logger("core/entitylistener")

var _ pkgif.ReaderListener = (*Listener)(nil)

// 默认值
const (
	DefaultSampleBufferCapacity = 8
	DefaultFailureLogInterval   = 5 * time.Second
)

// Config 监听器配置
type Config struct {
	// SampleBufferCapacity 样本序列初始容量
	SampleBufferCapacity int

	// FailureLogInterval 失败日志最小间隔，0 表示每次都记录
	FailureLogInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		SampleBufferCapacity: DefaultSampleBufferCapacity,
		FailureLogInterval:   DefaultFailureLogInterval,
	}
}

// Stats 监听器统计
type Stats struct {
	Batches  uint64 // 应用了至少一个样本的批次
	Empty    uint64 // 无数据的回调
	Added    uint64
	Removed  uint64
	Skipped  uint64 // 实例句柄不可用的样本
	Failures uint64 // 被丢弃的批次
	Triggers uint64 // 成功的图通知
}

// Listener 发现读取器监听器
type Listener struct {
	kind     types.EntityKind
	mu       *sync.Mutex
	cache    *topiccache.Cache
	notifier pkgif.GraphNotifier
	metrics  *metrics.Metrics

	capacity int
	failLog  rate.Sometimes

	// 以下字段受 mu 保护
	closed bool
	stats  Stats
}

// New 创建监听器
//
// mu 为节点共享锁，监听器不拥有它；cache 归监听器所有。
func New(kind types.EntityKind, mu *sync.Mutex, cache *topiccache.Cache, notifier pkgif.GraphNotifier, cfg Config, m *metrics.Metrics) (*Listener, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: entity kind %s", types.ErrInvalidArgument, kind)
	}
	if mu == nil || cache == nil || notifier == nil {
		return nil, fmt.Errorf("%w: listener requires lock, cache and notifier", types.ErrInvalidArgument)
	}
	if cache.Kind() != kind {
		return nil, fmt.Errorf("%w: cache kind %s does not match listener kind %s",
			types.ErrInvalidArgument, cache.Kind(), kind)
	}
	if cfg.SampleBufferCapacity <= 0 {
		cfg.SampleBufferCapacity = DefaultSampleBufferCapacity
	}

	return &Listener{
		kind:     kind,
		mu:       mu,
		cache:    cache,
		notifier: notifier,
		metrics:  m,
		capacity: cfg.SampleBufferCapacity,
		failLog:  rate.Sometimes{First: 1, Interval: cfg.FailureLogInterval},
	}, nil
}

// Kind 返回监听器对应的实体类型
func (l *Listener) Kind() types.EntityKind {
	return l.kind
}

// Cache 返回缓存，调用方必须持有节点锁
func (l *Listener) Cache() *topiccache.Cache {
	return l.cache
}

// ============================================================================
//                              批次处理
// ============================================================================

// OnDataAvailable 处理一个批次
func (l *Listener) OnDataAvailable(reader pkgif.BuiltinReader) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	seq, err := reader.AllocSamples(l.capacity)
	if err != nil {
		l.fail(metrics.ReasonAlloc, "分配样本序列失败", err)
		return
	}
	defer l.release(reader, seq)

	if err := reader.Take(seq, types.LengthUnlimited); err != nil {
		if errors.Is(err, types.ErrNoData) {
			l.stats.Empty++
			return
		}
		l.fail(metrics.ReasonTake, "取样失败", err)
		return
	}

	var added, removed, skipped int
	for i := range seq.Infos {
		info := seq.Infos[i]
		if info.InstanceHandle == nil {
			skipped++
			continue
		}
		entityGUID := *info.InstanceHandle

		if info.ValidData && info.InstanceState == types.InstanceAlive {
			if i >= len(seq.Data) {
				skipped++
				continue
			}
			data, ok := l.extract(seq.Data[i])
			if !ok {
				skipped++
				continue
			}
			l.cache.AddTopic(data.ParticipantGUID, entityGUID, data.TopicName, data.TypeName, l.kind)
			added++
			continue
		}

		l.cache.RemoveTopic(entityGUID)
		removed++
	}

	l.stats.Added += uint64(added)
	l.stats.Removed += uint64(removed)
	l.stats.Skipped += uint64(skipped)
	l.metrics.ObserveBatch(l.kind, added, removed, skipped)

	if added+removed == 0 {
		return
	}
	l.stats.Batches++

	if err := l.notifier.Trigger(); err != nil {
		l.metrics.TriggerFailed()
		logger.Warn("图通知失败", "kind", l.kind, "error", err)
		return
	}
	l.stats.Triggers++
}

// extract 按实体类型读取内置主题数据
func (l *Listener) extract(d types.BuiltinTopicData) (types.DiscoverySample, bool) {
	switch l.kind {
	case types.KindPublisher:
		if d.Publication == nil {
			return types.DiscoverySample{}, false
		}
		return types.DiscoverySample{
			ParticipantGUID: d.Publication.ParticipantKey,
			EntityGUID:      d.Publication.Key,
			TopicName:       d.Publication.TopicName,
			TypeName:        d.Publication.TypeName,
			Valid:           true,
			Alive:           true,
		}, true
	case types.KindSubscriber:
		if d.Subscription == nil {
			return types.DiscoverySample{}, false
		}
		return types.DiscoverySample{
			ParticipantGUID: d.Subscription.ParticipantKey,
			EntityGUID:      d.Subscription.Key,
			TopicName:       d.Subscription.TopicName,
			TypeName:        d.Subscription.TypeName,
			Valid:           true,
			Alive:           true,
		}, true
	default:
		return types.DiscoverySample{}, false
	}
}

// release 归还借出的样本
func (l *Listener) release(reader pkgif.BuiltinReader, seq *types.SampleSeq) {
	if !seq.Loaned {
		return
	}
	if err := reader.ReturnLoan(seq); err != nil {
		logger.Warn("归还样本失败", "kind", l.kind, "error", err)
	}
}

// fail 丢弃批次并记录限速日志
func (l *Listener) fail(reason, msg string, err error) {
	l.stats.Failures++
	l.metrics.BatchFailed(l.kind, reason)
	l.failLog.Do(func() {
		logger.Warn(msg, "kind", l.kind, "failures", l.stats.Failures, "error", err)
	})
}

// ============================================================================
//                              读取与关闭
// ============================================================================

// Stats 返回统计快照
func (l *Listener) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// WithCache 持有节点锁执行 fn
func (l *Listener) WithCache(fn func(*topiccache.Cache)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.cache)
}

// Close 清空缓存，之后的回调被忽略
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.cache.Clear()
	return nil
}
