package nodemgr

import (
	"strings"
	"sync"

	"github.com/dep2p/go-dep2p-graph/internal/core/entitylistener"
	"github.com/dep2p/go-dep2p-graph/internal/core/graphnotify"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
)

// listenerContext 注册到传输层的监听器上下文，归节点所有
//
// mu 是节点唯一的图锁，两个监听器与所有图查询共用。
type listenerContext struct {
	mu          sync.Mutex
	notifier    *graphnotify.Notifier
	publishers  *entitylistener.Listener
	subscribers *entitylistener.Listener
}

// nodeInfo 节点信息块
type nodeInfo struct {
	participant pkgif.Participant
	pubReader   pkgif.BuiltinReader
	subReader   pkgif.BuiltinReader
	ctx         *listenerContext
}

// Node 节点句柄
type Node struct {
	identifier string

	state     sync.RWMutex
	name      string
	namespace string
	info      *nodeInfo
}

// Identifier 返回创建该节点的实现标识
func (n *Node) Identifier() string {
	return n.identifier
}

// Name 返回节点名，销毁后为空
func (n *Node) Name() string {
	n.state.RLock()
	defer n.state.RUnlock()
	return n.name
}

// Namespace 返回命名空间，销毁后为空
func (n *Node) Namespace() string {
	n.state.RLock()
	defer n.state.RUnlock()
	return n.namespace
}

// FullyQualifiedName 返回 命名空间/节点名
func (n *Node) FullyQualifiedName() string {
	n.state.RLock()
	defer n.state.RUnlock()
	return FullyQualified(n.namespace, n.name)
}

// Participant 返回节点的域参与者，销毁后为 nil
func (n *Node) Participant() pkgif.Participant {
	n.state.RLock()
	defer n.state.RUnlock()
	if n.info == nil {
		return nil
	}
	return n.info.participant
}

// Destroyed 节点是否已销毁
func (n *Node) Destroyed() bool {
	n.state.RLock()
	defer n.state.RUnlock()
	return n.info == nil
}

// FullyQualified 拼接命名空间与节点名，名称为空时返回空字符串
func FullyQualified(namespace, name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSuffix(namespace, "/") + "/" + name
}
