package interfaces

import "github.com/dep2p/go-dep2p-graph/pkg/types"

// ============================================================================
//                              传输层契约
// ============================================================================

// ParticipantFactory 参与者工厂
type ParticipantFactory interface {
	// CreateParticipant 在指定域创建参与者
	CreateParticipant(domainID uint32, qos types.ParticipantQos) (Participant, error)

	// DeleteParticipant 删除参与者
	//
	// 契约：返回前同步注销该参与者所有内置读取器上的监听器，
	// 返回后不会再有任何监听器回调。
	// 参与者仍有本地实体时返回 types.ErrTeardownBlocked，且不做任何修改。
	DeleteParticipant(p Participant) error
}

// Participant 域参与者
type Participant interface {
	// GUID 返回参与者 GUID
	GUID() types.GUID

	// DomainID 返回所在域
	DomainID() uint32

	// BuiltinReader 按名称查找内置发现读取器
	// 名称为 types.BuiltinPublicationsReader / types.BuiltinSubscriptionsReader
	BuiltinReader(name string) (BuiltinReader, error)

	// AssertLiveliness 声明存活
	AssertLiveliness() error

	// DiscoveredParticipants 返回已发现参与者（含自身）
	DiscoveredParticipants() ([]types.ParticipantData, error)
}

// BuiltinReader 内置发现读取器
type BuiltinReader interface {
	// Name 返回读取器名称
	Name() string

	// Kind 返回读取器对应的实体类型
	Kind() types.EntityKind

	// AllocSamples 分配样本序列
	AllocSamples(capacity int) (*types.SampleSeq, error)

	// Take 取出至多 max 个样本（types.LengthUnlimited 表示不限）
	// 无数据时返回 types.ErrNoData
	Take(seq *types.SampleSeq, max int) error

	// ReturnLoan 归还 Take 借出的样本
	ReturnLoan(seq *types.SampleSeq) error

	// SetListener 注册或清除（nil）数据可用监听器
	SetListener(l ReaderListener) error
}

// ReaderListener 数据可用监听器
//
// 由传输层在其自有 goroutine 上调用，调用方不受控制。
type ReaderListener interface {
	OnDataAvailable(reader BuiltinReader)
}

// ReaderListenerFunc 函数适配器
type ReaderListenerFunc func(reader BuiltinReader)

// OnDataAvailable 实现 ReaderListener
func (f ReaderListenerFunc) OnDataAvailable(reader BuiltinReader) {
	f(reader)
}
