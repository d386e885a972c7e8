package entitylistener

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-dep2p-graph/internal/core/topiccache"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// ============================================================================
// 测试辅助
// ============================================================================

type fakeSample struct {
	data types.BuiltinTopicData
	info types.SampleInfo
}

// fakeReader 可编程的内置读取器
type fakeReader struct {
	kind types.EntityKind

	mu      sync.Mutex
	pending []fakeSample
	alloc   error
	take    error

	allocs  int
	takes   int
	returns int
}

func (r *fakeReader) Name() string { return "fake" }
func (r *fakeReader) Kind() types.EntityKind { return r.kind }
func (r *fakeReader) SetListener(pkgif.ReaderListener) error { return nil }

func (r *fakeReader) AllocSamples(capacity int) (*types.SampleSeq, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allocs++
	if r.alloc != nil {
		return nil, r.alloc
	}
	return types.NewSampleSeq(capacity), nil
}

func (r *fakeReader) Take(seq *types.SampleSeq, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.takes++
	if r.take != nil {
		return r.take
	}
	if len(r.pending) == 0 {
		return types.ErrNoData
	}
	for _, s := range r.pending {
		seq.Data = append(seq.Data, s.data)
		seq.Infos = append(seq.Infos, s.info)
	}
	r.pending = nil
	seq.Loaned = true
	return nil
}

func (r *fakeReader) ReturnLoan(seq *types.SampleSeq) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !seq.Loaned {
		return errors.New("not loaned")
	}
	r.returns++
	seq.Reset()
	return nil
}

func (r *fakeReader) push(samples ...fakeSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, samples...)
}

// countingNotifier 计数通知器
type countingNotifier struct {
	count atomic.Int64
	err   error
	ch    chan struct{}
}

func (n *countingNotifier) C() <-chan struct{} { return n.ch }

func (n *countingNotifier) Trigger() error {
	if n.err != nil {
		return n.err
	}
	n.count.Add(1)
	return nil
}

func alive(kind types.EntityKind, participant, entity types.GUID, topic, typ string) fakeSample {
	handle := entity
	s := fakeSample{
		info: types.SampleInfo{InstanceHandle: &handle, ValidData: true, InstanceState: types.InstanceAlive},
	}
	if kind == types.KindPublisher {
		s.data.Publication = &types.PublicationBuiltinTopicData{
			Key: entity, ParticipantKey: participant, TopicName: topic, TypeName: typ,
		}
	} else {
		s.data.Subscription = &types.SubscriptionBuiltinTopicData{
			Key: entity, ParticipantKey: participant, TopicName: topic, TypeName: typ,
		}
	}
	return s
}

func disposed(entity types.GUID) fakeSample {
	handle := entity
	return fakeSample{
		info: types.SampleInfo{InstanceHandle: &handle, InstanceState: types.InstanceNotAliveDisposed},
	}
}

func noHandle() fakeSample {
	return fakeSample{info: types.SampleInfo{ValidData: true, InstanceState: types.InstanceAlive}}
}

func newTestListener(t *testing.T, kind types.EntityKind, mu *sync.Mutex, n pkgif.GraphNotifier) *Listener {
	t.Helper()
	l, err := New(kind, mu, topiccache.New(kind, nil, nil), n, DefaultConfig(), nil)
	require.NoError(t, err)
	return l
}

// ============================================================================
// 构造测试
// ============================================================================

func TestNew_Validation(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	pubCache := topiccache.New(types.KindPublisher, nil, nil)

	_, err := New(types.EntityKind(7), &mu, pubCache, n, DefaultConfig(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = New(types.KindPublisher, nil, pubCache, n, DefaultConfig(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = New(types.KindPublisher, &mu, nil, n, DefaultConfig(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = New(types.KindPublisher, &mu, pubCache, nil, DefaultConfig(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = New(types.KindSubscriber, &mu, pubCache, n, DefaultConfig(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	l, err := New(types.KindPublisher, &mu, pubCache, n, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSampleBufferCapacity, l.capacity)
}

// ============================================================================
// 批次测试
// ============================================================================

func TestListener_SingleTriggerPerBatch(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	l := newTestListener(t, types.KindPublisher, &mu, n)
	r := &fakeReader{kind: types.KindPublisher}

	p := types.NewParticipantGUID()
	for i := uint32(1); i <= 5; i++ {
		r.push(alive(types.KindPublisher, p, types.NewEntityGUID(p, i), "rt/chatter", "T"))
	}

	l.OnDataAvailable(r)

	assert.Equal(t, int64(1), n.count.Load())
	assert.Equal(t, 5, l.Cache().Len())
	assert.Equal(t, 1, r.returns)

	stats := l.Stats()
	assert.Equal(t, uint64(1), stats.Batches)
	assert.Equal(t, uint64(5), stats.Added)
	assert.Equal(t, uint64(1), stats.Triggers)
}

func TestListener_EmptyBatchNoTrigger(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	l := newTestListener(t, types.KindSubscriber, &mu, n)
	r := &fakeReader{kind: types.KindSubscriber}

	l.OnDataAvailable(r)

	assert.Equal(t, int64(0), n.count.Load())
	assert.Equal(t, 0, r.returns)
	assert.Equal(t, uint64(1), l.Stats().Empty)
	assert.Equal(t, uint64(0), l.Stats().Failures)
}

func TestListener_AllocFailureDropsBatch(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	l := newTestListener(t, types.KindPublisher, &mu, n)
	r := &fakeReader{kind: types.KindPublisher, alloc: types.ErrResourceExhausted}

	p := types.NewParticipantGUID()
	r.push(alive(types.KindPublisher, p, types.NewEntityGUID(p, 1), "rt/x", "T"))

	l.OnDataAvailable(r)

	assert.Equal(t, 0, l.Cache().Len())
	assert.Equal(t, int64(0), n.count.Load())
	assert.Equal(t, 0, r.takes)
	assert.Equal(t, uint64(1), l.Stats().Failures)

	// 下一次回调重试
	r.alloc = nil
	l.OnDataAvailable(r)
	assert.Equal(t, 1, l.Cache().Len())
	assert.Equal(t, int64(1), n.count.Load())
}

func TestListener_TakeFailureDropsBatch(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	l := newTestListener(t, types.KindPublisher, &mu, n)
	r := &fakeReader{kind: types.KindPublisher, take: types.ErrTransportTransient}

	p := types.NewParticipantGUID()
	r.push(alive(types.KindPublisher, p, types.NewEntityGUID(p, 1), "rt/x", "T"))

	l.OnDataAvailable(r)

	assert.Equal(t, 0, l.Cache().Len())
	assert.Equal(t, int64(0), n.count.Load())
	assert.Equal(t, 0, r.returns)
	assert.Equal(t, uint64(1), l.Stats().Failures)
}

func TestListener_SkipsMissingHandle(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	l := newTestListener(t, types.KindPublisher, &mu, n)
	r := &fakeReader{kind: types.KindPublisher}

	r.push(noHandle(), noHandle())
	l.OnDataAvailable(r)

	assert.Equal(t, int64(0), n.count.Load())
	assert.Equal(t, uint64(2), l.Stats().Skipped)
	assert.Equal(t, 1, r.returns)

	p := types.NewParticipantGUID()
	r.push(noHandle(), alive(types.KindPublisher, p, types.NewEntityGUID(p, 1), "rt/x", "T"))
	l.OnDataAvailable(r)

	assert.Equal(t, int64(1), n.count.Load())
	assert.Equal(t, 1, l.Cache().Len())
}

func TestListener_DisposeRemoves(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	l := newTestListener(t, types.KindSubscriber, &mu, n)
	r := &fakeReader{kind: types.KindSubscriber}

	p := types.NewParticipantGUID()
	e := types.NewEntityGUID(p, 4)
	r.push(alive(types.KindSubscriber, p, e, "rt/x", "T"))
	l.OnDataAvailable(r)
	require.Equal(t, 1, l.Cache().Len())

	r.push(disposed(e))
	l.OnDataAvailable(r)

	assert.Equal(t, 0, l.Cache().Len())
	assert.Equal(t, int64(2), n.count.Load())
	assert.Equal(t, uint64(1), l.Stats().Removed)
}

func TestListener_AddThenRemoveInOneBatch(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	l := newTestListener(t, types.KindPublisher, &mu, n)
	r := &fakeReader{kind: types.KindPublisher}

	p := types.NewParticipantGUID()
	e := types.NewEntityGUID(p, 1)
	r.push(alive(types.KindPublisher, p, e, "rt/x", "T"), disposed(e))
	l.OnDataAvailable(r)

	assert.Equal(t, 0, l.Cache().Len())
	assert.Equal(t, int64(1), n.count.Load())
}

func TestListener_IgnoresOtherKindData(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	l := newTestListener(t, types.KindPublisher, &mu, n)
	r := &fakeReader{kind: types.KindPublisher}

	p := types.NewParticipantGUID()
	r.push(alive(types.KindSubscriber, p, types.NewEntityGUID(p, 1), "rt/x", "T"))
	l.OnDataAvailable(r)

	assert.Equal(t, 0, l.Cache().Len())
	assert.Equal(t, uint64(1), l.Stats().Skipped)
	assert.Equal(t, int64(0), n.count.Load())
}

func TestListener_TriggerFailureKeepsChanges(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{err: types.ErrClosed}
	l := newTestListener(t, types.KindPublisher, &mu, n)
	r := &fakeReader{kind: types.KindPublisher}

	p := types.NewParticipantGUID()
	r.push(alive(types.KindPublisher, p, types.NewEntityGUID(p, 1), "rt/x", "T"))
	l.OnDataAvailable(r)

	assert.Equal(t, 1, l.Cache().Len())
	assert.Equal(t, uint64(0), l.Stats().Triggers)
	assert.Equal(t, 1, r.returns)
}

func TestListener_Close(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	l := newTestListener(t, types.KindPublisher, &mu, n)
	r := &fakeReader{kind: types.KindPublisher}

	p := types.NewParticipantGUID()
	r.push(alive(types.KindPublisher, p, types.NewEntityGUID(p, 1), "rt/x", "T"))
	l.OnDataAvailable(r)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	assert.Equal(t, 0, l.Cache().Len())

	r.push(alive(types.KindPublisher, p, types.NewEntityGUID(p, 2), "rt/x", "T"))
	l.OnDataAvailable(r)

	assert.Equal(t, 0, l.Cache().Len())
	assert.Equal(t, 1, r.allocs)
}

// ============================================================================
// 并发测试
// ============================================================================

// 两个监听器共享一把锁，读取方只能观察到完整批次
func TestListener_ConcurrentBatches(t *testing.T) {
	var mu sync.Mutex
	n := &countingNotifier{}
	pub := newTestListener(t, types.KindPublisher, &mu, n)
	sub := newTestListener(t, types.KindSubscriber, &mu, n)

	const (
		writers = 4
		batches = 50
	)

	var g errgroup.Group
	for w := 0; w < writers; w++ {
		kind := types.KindPublisher
		l := pub
		if w%2 == 1 {
			kind = types.KindSubscriber
			l = sub
		}
		g.Go(func() error {
			r := &fakeReader{kind: kind}
			p := types.NewParticipantGUID()
			for b := 0; b < batches; b++ {
				id := uint32(b*2 + 1)
				r.push(
					alive(kind, p, types.NewEntityGUID(p, id), "rt/x", "T"),
					alive(kind, p, types.NewEntityGUID(p, id+1), "rt/x", "T"),
				)
				l.OnDataAvailable(r)
			}
			return nil
		})
	}

	var inconsistent atomic.Int64
	g.Go(func() error {
		for i := 0; i < 200; i++ {
			pub.WithCache(func(c *topiccache.Cache) {
				if c.Len()%2 != 0 || c.CountTopic("rt/x") != c.Len() {
					inconsistent.Add(1)
				}
			})
		}
		return nil
	})

	require.NoError(t, g.Wait())

	assert.Equal(t, int64(0), inconsistent.Load())
	assert.Equal(t, writers/2*batches*2, pub.Cache().Len())
	assert.Equal(t, writers/2*batches*2, sub.Cache().Len())
	assert.Equal(t, int64(writers*batches), n.count.Load())
}
