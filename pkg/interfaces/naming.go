package interfaces

import "github.com/dep2p/go-dep2p-graph/pkg/types"

// Demangler 将传输层名称还原为框架逻辑名称
//
// 纯函数，无副作用。返回空字符串表示该名称不属于框架命名空间。
type Demangler interface {
	DemangleTopic(name string) string
	DemangleType(name string) string
}

// ServicePairer 将请求 / 响应主题合并为逻辑服务
type ServicePairer interface {
	// IsServiceTopic 主题名是否符合服务请求/响应约定
	IsServiceTopic(topicName string) bool

	// PairServices 合并条目为 服务名 -> 类型集合
	PairServices(entries []types.TopicEntry) types.NamesAndTypes
}
