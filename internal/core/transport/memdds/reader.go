package memdds

import (
	"fmt"
	"sync"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

var _ pkgif.BuiltinReader = (*Reader)(nil)

// wireSample 读取器队列中的样本
//
// payload 为空表示实例已不再存活。
type wireSample struct {
	handle  types.GUID
	state   types.InstanceState
	payload []byte
}

// Reader 内置发现读取器
type Reader struct {
	name string
	kind types.EntityKind

	mu          sync.Mutex
	queue       []wireSample
	listener    pkgif.ReaderListener
	allocFaults int
	takeFaults  int
	stopped     bool

	wake     chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func newReader(name string, kind types.EntityKind) *Reader {
	r := &Reader{
		name: name,
		kind: kind,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	r.wg.Add(1)
	go r.dispatch()
	return r
}

// Name 返回读取器名称
func (r *Reader) Name() string {
	return r.name
}

// Kind 返回读取器对应的实体类型
func (r *Reader) Kind() types.EntityKind {
	return r.kind
}

// AllocSamples 分配样本序列
func (r *Reader) AllocSamples(capacity int) (*types.SampleSeq, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return nil, types.ErrClosed
	}
	if r.allocFaults > 0 {
		r.allocFaults--
		return nil, fmt.Errorf("alloc samples: %w", ErrInjected)
	}
	return types.NewSampleSeq(capacity), nil
}

// Take 取出至多 max 个样本
func (r *Reader) Take(seq *types.SampleSeq, max int) error {
	if seq == nil {
		return fmt.Errorf("%w: nil sample sequence", types.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return types.ErrClosed
	}
	if r.takeFaults > 0 {
		r.takeFaults--
		return fmt.Errorf("take: %w: %w", types.ErrTransportTransient, ErrInjected)
	}
	if seq.Loaned {
		return fmt.Errorf("%w: sample sequence already loaned", types.ErrInvalidArgument)
	}
	if len(r.queue) == 0 {
		return types.ErrNoData
	}

	n := len(r.queue)
	if max >= 0 && max < n {
		n = max
	}

	data := make([]types.BuiltinTopicData, 0, n)
	infos := make([]types.SampleInfo, 0, n)
	for _, s := range r.queue[:n] {
		handle := s.handle
		info := types.SampleInfo{InstanceHandle: &handle, InstanceState: s.state}
		var d types.BuiltinTopicData
		if s.payload != nil {
			a, err := decodeAnnouncement(s.payload)
			if err != nil {
				return fmt.Errorf("%w: %w", types.ErrTransportTransient, err)
			}
			d = a.toTopicData(r.kind)
			info.ValidData = true
		}
		data = append(data, d)
		infos = append(infos, info)
	}

	seq.Data = append(seq.Data, data...)
	seq.Infos = append(seq.Infos, infos...)
	seq.Loaned = true
	r.queue = r.queue[n:]
	return nil
}

// ReturnLoan 归还样本
func (r *Reader) ReturnLoan(seq *types.SampleSeq) error {
	if seq == nil || !seq.Loaned {
		return ErrNotLoaned
	}
	seq.Reset()
	return nil
}

// SetListener 注册或清除监听器
//
// 注册时若已有待取样本，立即安排一次回调。
func (r *Reader) SetListener(l pkgif.ReaderListener) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return types.ErrClosed
	}
	r.listener = l
	pending := len(r.queue) > 0
	r.mu.Unlock()

	if l != nil && pending {
		r.signal()
	}
	return nil
}

// Pending 返回待取样本数
func (r *Reader) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// InjectAllocFailures 使接下来 n 次 AllocSamples 失败
func (r *Reader) InjectAllocFailures(n int) {
	r.mu.Lock()
	r.allocFaults = n
	r.mu.Unlock()
}

// InjectTakeFailures 使接下来 n 次 Take 失败
func (r *Reader) InjectTakeFailures(n int) {
	r.mu.Lock()
	r.takeFaults = n
	r.mu.Unlock()
}

// Redeliver 对仍在队列中的样本重新安排回调
func (r *Reader) Redeliver() {
	r.signal()
}

// ============================================================================
//                              分发
// ============================================================================

func (r *Reader) enqueue(s wireSample) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, s)
	r.mu.Unlock()
	r.signal()
}

func (r *Reader) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Reader) dispatch() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case <-r.wake:
		}

		r.mu.Lock()
		l := r.listener
		pending := len(r.queue) > 0
		r.mu.Unlock()

		if l != nil && pending {
			l.OnDataAvailable(r)
		}
	}
}

// stop 注销监听器并等待进行中的回调结束
//
// 不能在该读取器的回调内调用。
func (r *Reader) stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.listener = nil
		r.mu.Unlock()

		close(r.done)
		r.wg.Wait()

		r.mu.Lock()
		r.stopped = true
		r.queue = nil
		r.mu.Unlock()
	})
}
