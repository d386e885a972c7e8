package topiccache

import (
	"sort"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// Cache 发现图缓存（非并发安全）
type Cache struct {
	kind      types.EntityKind
	demangler pkgif.Demangler
	pairer    pkgif.ServicePairer

	// entries 实体 GUID -> 条目
	entries map[types.GUID]types.TopicEntry

	// topicTypes 主题名 -> 类型名 -> 引用计数
	topicTypes map[string]map[string]int

	// participants 参与者 GUID -> 实体 GUID 集合
	participants map[types.GUID]map[types.GUID]struct{}
}

// New 创建缓存
//
// demangler 与 pairer 为空时，反混淆退化为原样返回，服务查询返回空结果。
func New(kind types.EntityKind, demangler pkgif.Demangler, pairer pkgif.ServicePairer) *Cache {
	if demangler == nil {
		demangler = passthrough{}
	}
	return &Cache{
		kind:         kind,
		demangler:    demangler,
		pairer:       pairer,
		entries:      make(map[types.GUID]types.TopicEntry),
		topicTypes:   make(map[string]map[string]int),
		participants: make(map[types.GUID]map[types.GUID]struct{}),
	}
}

// Kind 返回缓存对应的实体类型
func (c *Cache) Kind() types.EntityKind {
	return c.kind
}

// ============================================================================
//                              写入
// ============================================================================

// AddTopic 插入或替换条目
//
// 已存在同一 entityGUID 时原地替换，先撤销旧条目的索引。
func (c *Cache) AddTopic(participantGUID, entityGUID types.GUID, topicName, typeName string, kind types.EntityKind) {
	if old, ok := c.entries[entityGUID]; ok {
		c.unindex(old)
	}

	entry := types.TopicEntry{
		ParticipantGUID: participantGUID,
		EntityGUID:      entityGUID,
		TopicName:       topicName,
		TypeName:        typeName,
		Kind:            kind,
	}
	c.entries[entityGUID] = entry
	c.index(entry)
}

// RemoveTopic 删除条目，不存在时为空操作
func (c *Cache) RemoveTopic(entityGUID types.GUID) {
	old, ok := c.entries[entityGUID]
	if !ok {
		return
	}
	delete(c.entries, entityGUID)
	c.unindex(old)
}

// Clear 清空缓存与全部索引
func (c *Cache) Clear() {
	c.entries = make(map[types.GUID]types.TopicEntry)
	c.topicTypes = make(map[string]map[string]int)
	c.participants = make(map[types.GUID]map[types.GUID]struct{})
}

func (c *Cache) index(e types.TopicEntry) {
	typesOf, ok := c.topicTypes[e.TopicName]
	if !ok {
		typesOf = make(map[string]int)
		c.topicTypes[e.TopicName] = typesOf
	}
	typesOf[e.TypeName]++

	ents, ok := c.participants[e.ParticipantGUID]
	if !ok {
		ents = make(map[types.GUID]struct{})
		c.participants[e.ParticipantGUID] = ents
	}
	ents[e.EntityGUID] = struct{}{}
}

func (c *Cache) unindex(e types.TopicEntry) {
	if typesOf, ok := c.topicTypes[e.TopicName]; ok {
		if typesOf[e.TypeName] <= 1 {
			delete(typesOf, e.TypeName)
		} else {
			typesOf[e.TypeName]--
		}
		if len(typesOf) == 0 {
			delete(c.topicTypes, e.TopicName)
		}
	}

	// 参与者索引项保留（即使集合为空）
	if ents, ok := c.participants[e.ParticipantGUID]; ok {
		delete(ents, e.EntityGUID)
	}
}

// ============================================================================
//                              查询
// ============================================================================

// Len 返回条目数量
func (c *Cache) Len() int {
	return len(c.entries)
}

// Get 按实体 GUID 查找条目
func (c *Cache) Get(entityGUID types.GUID) (types.TopicEntry, bool) {
	e, ok := c.entries[entityGUID]
	return e, ok
}

// CountTopic 返回主题名精确匹配的条目数
func (c *Cache) CountTopic(topicName string) int {
	count := 0
	for _, n := range c.topicTypes[topicName] {
		count += n
	}
	return count
}

// FillTopicNamesAndTypes 汇总所有条目的 主题 -> 类型集合
//
// demangle 为 true 时主题名与类型名经过反混淆；反混淆结果为空的名称被忽略。
func (c *Cache) FillTopicNamesAndTypes(demangle bool) types.NamesAndTypes {
	out := types.NewNamesAndTypes()
	for topicName, typesOf := range c.topicTypes {
		for typeName := range typesOf {
			c.addName(out, demangle, topicName, typeName)
		}
	}
	return out
}

// FillTopicNamesAndTypesByGUID 同 FillTopicNamesAndTypes，仅限指定参与者
func (c *Cache) FillTopicNamesAndTypesByGUID(demangle bool, participantGUID types.GUID) types.NamesAndTypes {
	out := types.NewNamesAndTypes()
	for entityGUID := range c.participants[participantGUID] {
		e := c.entries[entityGUID]
		c.addName(out, demangle, e.TopicName, e.TypeName)
	}
	return out
}

// FillServiceNamesAndTypes 汇总符合服务命名约定的条目
//
// 合并逻辑由 ServicePairer 决定；只有请求端或响应端的服务同样返回。
func (c *Cache) FillServiceNamesAndTypes() types.NamesAndTypes {
	if c.pairer == nil {
		return types.NewNamesAndTypes()
	}
	var services []types.TopicEntry
	for _, e := range c.entries {
		if c.pairer.IsServiceTopic(e.TopicName) {
			services = append(services, e)
		}
	}
	return c.pairer.PairServices(services)
}

// FillServiceNamesAndTypesByGUID 同 FillServiceNamesAndTypes，仅限指定参与者
func (c *Cache) FillServiceNamesAndTypesByGUID(participantGUID types.GUID) types.NamesAndTypes {
	if c.pairer == nil {
		return types.NewNamesAndTypes()
	}
	var services []types.TopicEntry
	for entityGUID := range c.participants[participantGUID] {
		e := c.entries[entityGUID]
		if c.pairer.IsServiceTopic(e.TopicName) {
			services = append(services, e)
		}
	}
	return c.pairer.PairServices(services)
}

// Entries 返回按实体 GUID 排序的条目副本
func (c *Cache) Entries() []types.TopicEntry {
	out := make([]types.TopicEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntityGUID.Compare(out[j].EntityGUID) < 0
	})
	return out
}

// Participants 返回参与者索引中的 GUID（含已无实体的参与者）
func (c *Cache) Participants() []types.GUID {
	out := make([]types.GUID, 0, len(c.participants))
	for g := range c.participants {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Compare(out[j]) < 0
	})
	return out
}

// EntitiesOf 返回指定参与者的实体数量
func (c *Cache) EntitiesOf(participantGUID types.GUID) int {
	return len(c.participants[participantGUID])
}

func (c *Cache) addName(out types.NamesAndTypes, demangle bool, topicName, typeName string) {
	if !demangle {
		out.Add(topicName, typeName)
		return
	}
	topic := c.demangler.DemangleTopic(topicName)
	if topic == "" {
		return
	}
	typ := c.demangler.DemangleType(typeName)
	if typ == "" {
		return
	}
	out.Add(topic, typ)
}

// passthrough 原样返回的反混淆器
type passthrough struct{}

func (passthrough) DemangleTopic(name string) string { return name }
func (passthrough) DemangleType(name string) string { return name }
