// Package eventbus 实现进程内事件总线
//
// 图通知器通过总线广播 types.EvtGraphChanged，使多个观察者（命令行
// 输出、测试）无需持有节点锁即可感知图变化：
//
//	bus := eventbus.NewBus()
//	sub, _ := bus.Subscribe(new(types.EvtGraphChanged), eventbus.BufSize(32))
//	defer sub.Close()
//
//	em, _ := bus.Emitter(new(types.EvtGraphChanged))
//	em.Emit(types.EvtGraphChanged{Source: "/demo/talker"})
//
// # 并发安全
//
// Emit 从不阻塞：订阅者缓冲区满时丢弃事件并计数。因此 Emit 可以在
// 持有节点锁的监听器回调中调用。
package eventbus
