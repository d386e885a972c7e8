package nodemgr

import (
	"fmt"

	"github.com/dep2p/go-dep2p-graph/internal/core/entitylistener"
	"github.com/dep2p/go-dep2p-graph/internal/core/naming"
	"github.com/dep2p/go-dep2p-graph/internal/core/topiccache"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// NodeName 已发现节点的名称与命名空间
type NodeName struct {
	Name      string
	Namespace string
}

// Snapshot 节点发现图快照（同一把锁内读取）
type Snapshot struct {
	Publishers  []types.TopicEntry
	Subscribers []types.TopicEntry
}

// Stats 节点监听器统计
type Stats struct {
	Publishers  entitylistener.Stats
	Subscribers entitylistener.Stats
	Triggers    uint64
}

// withNode 校验句柄并在读锁内执行 fn
func (m *Manager) withNode(n *Node, fn func(info *nodeInfo) error) error {
	if err := m.validate(n); err != nil {
		return err
	}
	n.state.RLock()
	defer n.state.RUnlock()
	if n.info == nil {
		return types.ErrNodeDestroyed
	}
	return fn(n.info)
}

// withCaches 持有图锁读取两个缓存
func withCaches(info *nodeInfo, fn func(pub, sub *topiccache.Cache)) {
	info.ctx.mu.Lock()
	defer info.ctx.mu.Unlock()
	fn(info.ctx.publishers.Cache(), info.ctx.subscribers.Cache())
}

// ============================================================================
//                              节点
// ============================================================================

// AssertLiveliness 声明节点存活
func (m *Manager) AssertLiveliness(n *Node) error {
	return m.withNode(n, func(info *nodeInfo) error {
		return info.participant.AssertLiveliness()
	})
}

// GraphGuardCondition 返回节点的图守护条件
func (m *Manager) GraphGuardCondition(n *Node) (pkgif.GraphCondition, error) {
	var cond pkgif.GraphCondition
	err := m.withNode(n, func(info *nodeInfo) error {
		cond = info.ctx.notifier
		return nil
	})
	return cond, err
}

// NodeNames 返回域内已发现的节点（含自身），忽略没有名称的参与者
func (m *Manager) NodeNames(n *Node) ([]NodeName, error) {
	var out []NodeName
	err := m.withNode(n, func(info *nodeInfo) error {
		participants, err := info.participant.DiscoveredParticipants()
		if err != nil {
			return fmt.Errorf("discovered participants: %w", err)
		}
		out = make([]NodeName, 0, len(participants))
		for _, p := range participants {
			name, namespace, ok := ParseUserData(p.UserData)
			if !ok {
				continue
			}
			out = append(out, NodeName{Name: name, Namespace: namespace})
		}
		return nil
	})
	return out, err
}

// ============================================================================
//                              计数
// ============================================================================

// CountPublishers 返回主题的发布者数量
//
// 未配置 NoDemangle 时 topicName 为用户可见名称（如 /chatter），
// 否则为原始传输层名称。
func (m *Manager) CountPublishers(n *Node, topicName string) (int, error) {
	return m.count(n, topicName, types.KindPublisher)
}

// CountSubscribers 返回主题的订阅者数量
func (m *Manager) CountSubscribers(n *Node, topicName string) (int, error) {
	return m.count(n, topicName, types.KindSubscriber)
}

func (m *Manager) count(n *Node, topicName string, kind types.EntityKind) (int, error) {
	if topicName == "" {
		return 0, fmt.Errorf("%w: topic name is empty", types.ErrInvalidArgument)
	}
	key := topicName
	if !m.cfg.NoDemangle {
		key = naming.MangleTopic(topicName)
	}

	var count int
	err := m.withNode(n, func(info *nodeInfo) error {
		withCaches(info, func(pub, sub *topiccache.Cache) {
			if kind == types.KindPublisher {
				count = pub.CountTopic(key)
			} else {
				count = sub.CountTopic(key)
			}
		})
		return nil
	})
	return count, err
}

// ============================================================================
//                              名称与类型
// ============================================================================

// TopicNamesAndTypes 返回域内所有主题及其类型（发布者与订阅者合并）
func (m *Manager) TopicNamesAndTypes(n *Node, demangle bool) (types.NamesAndTypes, error) {
	out := types.NewNamesAndTypes()
	err := m.withNode(n, func(info *nodeInfo) error {
		withCaches(info, func(pub, sub *topiccache.Cache) {
			out.Merge(pub.FillTopicNamesAndTypes(demangle))
			out.Merge(sub.FillTopicNamesAndTypes(demangle))
		})
		return nil
	})
	return out, err
}

// ServiceNamesAndTypes 返回域内所有服务及其类型
func (m *Manager) ServiceNamesAndTypes(n *Node) (types.NamesAndTypes, error) {
	out := types.NewNamesAndTypes()
	err := m.withNode(n, func(info *nodeInfo) error {
		withCaches(info, func(pub, sub *topiccache.Cache) {
			out.Merge(pub.FillServiceNamesAndTypes())
			out.Merge(sub.FillServiceNamesAndTypes())
		})
		return nil
	})
	return out, err
}

// PublisherNamesAndTypesByNode 返回指定节点发布的主题
func (m *Manager) PublisherNamesAndTypesByNode(n *Node, nodeName, nodeNamespace string, demangle bool) (types.NamesAndTypes, error) {
	return m.byNode(n, nodeName, nodeNamespace, func(guid types.GUID, pub, _ *topiccache.Cache) types.NamesAndTypes {
		return pub.FillTopicNamesAndTypesByGUID(demangle, guid)
	})
}

// SubscriberNamesAndTypesByNode 返回指定节点订阅的主题
func (m *Manager) SubscriberNamesAndTypesByNode(n *Node, nodeName, nodeNamespace string, demangle bool) (types.NamesAndTypes, error) {
	return m.byNode(n, nodeName, nodeNamespace, func(guid types.GUID, _, sub *topiccache.Cache) types.NamesAndTypes {
		return sub.FillTopicNamesAndTypesByGUID(demangle, guid)
	})
}

// ServiceNamesAndTypesByNode 返回指定节点参与的服务
func (m *Manager) ServiceNamesAndTypesByNode(n *Node, nodeName, nodeNamespace string) (types.NamesAndTypes, error) {
	return m.byNode(n, nodeName, nodeNamespace, func(guid types.GUID, pub, sub *topiccache.Cache) types.NamesAndTypes {
		out := pub.FillServiceNamesAndTypesByGUID(guid)
		out.Merge(sub.FillServiceNamesAndTypesByGUID(guid))
		return out
	})
}

func (m *Manager) byNode(n *Node, nodeName, nodeNamespace string,
	fill func(guid types.GUID, pub, sub *topiccache.Cache) types.NamesAndTypes) (types.NamesAndTypes, error) {
	if nodeName == "" {
		return nil, fmt.Errorf("%w: node name is empty", types.ErrInvalidArgument)
	}

	var out types.NamesAndTypes
	err := m.withNode(n, func(info *nodeInfo) error {
		guid, err := findParticipant(info.participant, nodeName, nodeNamespace)
		if err != nil {
			return err
		}
		withCaches(info, func(pub, sub *topiccache.Cache) {
			out = fill(guid, pub, sub)
		})
		return nil
	})
	return out, err
}

// findParticipant 按 user_data 查找节点对应的参与者
func findParticipant(p pkgif.Participant, nodeName, nodeNamespace string) (types.GUID, error) {
	participants, err := p.DiscoveredParticipants()
	if err != nil {
		return types.ZeroGUID, fmt.Errorf("discovered participants: %w", err)
	}
	for _, d := range participants {
		name, namespace, ok := ParseUserData(d.UserData)
		if ok && name == nodeName && namespace == nodeNamespace {
			return d.GUID, nil
		}
	}
	return types.ZeroGUID, fmt.Errorf("%w: %s", types.ErrNodeNotFound, FullyQualified(nodeNamespace, nodeName))
}

// ============================================================================
//                              内省
// ============================================================================

// Snapshot 返回节点视角的完整发现图
func (m *Manager) Snapshot(n *Node) (Snapshot, error) {
	var snap Snapshot
	err := m.withNode(n, func(info *nodeInfo) error {
		withCaches(info, func(pub, sub *topiccache.Cache) {
			snap.Publishers = pub.Entries()
			snap.Subscribers = sub.Entries()
		})
		return nil
	})
	return snap, err
}

// Stats 返回节点监听器统计
func (m *Manager) Stats(n *Node) (Stats, error) {
	var st Stats
	err := m.withNode(n, func(info *nodeInfo) error {
		st.Publishers = info.ctx.publishers.Stats()
		st.Subscribers = info.ctx.subscribers.Stats()
		st.Triggers = info.ctx.notifier.Triggers()
		return nil
	})
	return st, err
}
