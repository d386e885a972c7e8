package types

// ============================================================================
//                              内置发现主题数据
// ============================================================================

// 内置发现读取器名称
const (
	// BuiltinPublicationsReader 发布者发现读取器
	BuiltinPublicationsReader = "BuiltinPublications"
	// BuiltinSubscriptionsReader 订阅者发现读取器
	BuiltinSubscriptionsReader = "BuiltinSubscriptions"
)

// LengthUnlimited Take 不限制数量
const LengthUnlimited = -1

// PublicationBuiltinTopicData 发布者内置主题数据
type PublicationBuiltinTopicData struct {
	Key            GUID
	ParticipantKey GUID
	TopicName      string
	TypeName       string
}

// SubscriptionBuiltinTopicData 订阅者内置主题数据
type SubscriptionBuiltinTopicData struct {
	Key            GUID
	ParticipantKey GUID
	TopicName      string
	TypeName       string
}

// BuiltinTopicData 内置主题样本
//
// 由发布者读取器填充 Publication，由订阅者读取器填充 Subscription。
type BuiltinTopicData struct {
	Publication  *PublicationBuiltinTopicData
	Subscription *SubscriptionBuiltinTopicData
}

// InstanceState 实例状态
type InstanceState int

const (
	// InstanceAlive 实例存活
	InstanceAlive InstanceState = iota
	// InstanceNotAliveDisposed 实例已被销毁
	InstanceNotAliveDisposed
	// InstanceNotAliveNoWriters 实例无写入者
	InstanceNotAliveNoWriters
)

// String 返回实例状态字符串
func (s InstanceState) String() string {
	switch s {
	case InstanceAlive:
		return "alive"
	case InstanceNotAliveDisposed:
		return "disposed"
	case InstanceNotAliveNoWriters:
		return "no_writers"
	default:
		return "unknown"
	}
}

// SampleInfo 样本元信息
type SampleInfo struct {
	// InstanceHandle 实例句柄（即实体 GUID），nil 表示不可用
	InstanceHandle *GUID

	// ValidData 样本数据是否有效
	ValidData bool

	// InstanceState 实例状态
	InstanceState InstanceState
}

// SampleSeq 样本序列
//
// 由传输层分配，Take 后处于借出状态，必须通过 ReturnLoan 归还。
type SampleSeq struct {
	Data  []BuiltinTopicData
	Infos []SampleInfo

	// Loaned 是否处于借出状态（由传输层维护）
	Loaned bool
}

// NewSampleSeq 创建指定初始容量的样本序列
func NewSampleSeq(capacity int) *SampleSeq {
	if capacity < 0 {
		capacity = 0
	}
	return &SampleSeq{
		Data:  make([]BuiltinTopicData, 0, capacity),
		Infos: make([]SampleInfo, 0, capacity),
	}
}

// Len 返回样本数量
func (s *SampleSeq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Data)
}

// Reset 清空序列
func (s *SampleSeq) Reset() {
	s.Data = s.Data[:0]
	s.Infos = s.Infos[:0]
	s.Loaned = false
}

// DiscoverySample 从内置主题样本提取的逻辑发现样本
type DiscoverySample struct {
	ParticipantGUID GUID
	EntityGUID      GUID
	TopicName       string
	TypeName        string
	Valid           bool
	Alive           bool
}

// ============================================================================
//                              参与者数据
// ============================================================================

// ParticipantQos 参与者 QoS（仅保留发现所需的 user_data）
type ParticipantQos struct {
	UserData []byte
}

// ParticipantData 已发现参与者的数据
type ParticipantData struct {
	GUID     GUID
	UserData []byte
}
