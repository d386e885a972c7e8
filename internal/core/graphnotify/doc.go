// Package graphnotify 实现图变化通知器
//
// Notifier 是节点的图守护条件：监听器在批量应用后调用 Trigger，
// 等待集通过 C() 等待。信号合并：未被消费的信号会吸收后续触发，
// 等待方醒来后通过图查询读取最新状态。
//
// Trigger 从不阻塞，也不获取节点锁，可以在持有节点锁时调用。
package graphnotify
