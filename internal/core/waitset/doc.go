// Package waitset 实现图条件等待集
//
// WaitSet 同时等待多个 pkgif.GraphCondition（通常是各节点的图通知器），
// 返回本次醒来时已就绪的条件。读取就绪条件会消费它的信号。
//
//	ws := waitset.New()
//	ws.Attach(node.GraphGuardCondition())
//
//	ready, err := ws.Wait(ctx, time.Second)
//	if errors.Is(err, waitset.ErrTimeout) { ... }
package waitset
