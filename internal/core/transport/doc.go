// Package transport 提供发现传输层
//
// 节点管理器只依赖 pkgif.ParticipantFactory。本包把具体后端装配进
// Fx 容器；当前唯一的后端是进程内域 memdds：
//
//	app := fx.New(
//	    transport.Module(),
//	    fx.Invoke(func(f pkgif.ParticipantFactory) { ... }),
//	)
//
// # 生命周期
//
// OnStop 时检查仍存活的参与者并记录日志；参与者由节点管理器负责删除。
package transport
