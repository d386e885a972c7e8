package types

import (
	"fmt"
	"sort"
)

// ============================================================================
//                              EntityKind - 实体类型
// ============================================================================

// EntityKind 发现实体类型
type EntityKind int

const (
	// KindPublisher 发布者（来自 publication 内置主题）
	KindPublisher EntityKind = iota
	// KindSubscriber 订阅者（来自 subscription 内置主题）
	KindSubscriber
)

// String 返回实体类型的字符串表示
func (k EntityKind) String() string {
	switch k {
	case KindPublisher:
		return "publisher"
	case KindSubscriber:
		return "subscriber"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Valid 是否为已知实体类型
func (k EntityKind) Valid() bool {
	return k == KindPublisher || k == KindSubscriber
}

// ============================================================================
//                              TopicEntry - 主题条目
// ============================================================================

// TopicEntry 发现图中的一个端点
//
// 以 EntityGUID 唯一标识，同一 EntityGUID 最多存在一个条目。
type TopicEntry struct {
	ParticipantGUID GUID
	EntityGUID      GUID
	TopicName       string
	TypeName        string
	Kind            EntityKind
}

// ============================================================================
//                              NamesAndTypes - 名称到类型集合
// ============================================================================

// TypeSet 类型名集合
type TypeSet map[string]struct{}

// NamesAndTypes 名称 -> 类型名集合
type NamesAndTypes map[string]TypeSet

// NewNamesAndTypes 创建空映射
func NewNamesAndTypes() NamesAndTypes {
	return make(NamesAndTypes)
}

// Add 添加一个 (名称, 类型) 对
func (nt NamesAndTypes) Add(name, typeName string) {
	set, ok := nt[name]
	if !ok {
		set = make(TypeSet)
		nt[name] = set
	}
	set[typeName] = struct{}{}
}

// Merge 合并另一个映射
func (nt NamesAndTypes) Merge(other NamesAndTypes) {
	for name, set := range other {
		for typeName := range set {
			nt.Add(name, typeName)
		}
	}
}

// Names 返回排序后的名称列表
func (nt NamesAndTypes) Names() []string {
	names := make([]string, 0, len(nt))
	for name := range nt {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types 返回指定名称的排序类型列表
func (nt NamesAndTypes) Types(name string) []string {
	set := nt[name]
	out := make([]string, 0, len(set))
	for typeName := range set {
		out = append(out, typeName)
	}
	sort.Strings(out)
	return out
}

// Has 是否包含 (名称, 类型) 对
func (nt NamesAndTypes) Has(name, typeName string) bool {
	_, ok := nt[name][typeName]
	return ok
}

// ToLists 转换为可序列化的 名称 -> 排序类型列表
func (nt NamesAndTypes) ToLists() map[string][]string {
	out := make(map[string][]string, len(nt))
	for name := range nt {
		out[name] = nt.Types(name)
	}
	return out
}
