// Package entitylistener 实现内置发现读取器的监听器
//
// 每个节点有两个 Listener：发布者（publication 读取器）与订阅者
// （subscription 读取器）。两者共享节点的同一把锁，各自拥有一个缓存。
//
// # 批次
//
// 传输层在任意 goroutine 上调用 OnDataAvailable。每次回调作为一个批次：
//
//  1. 获取节点锁
//  2. 分配样本序列，Take 全部可用样本
//  3. 逐个样本：实例句柄不可用则跳过；有效且存活则 AddTopic，否则 RemoveTopic
//  4. 有样本被应用时触发一次图通知
//  5. 归还样本，释放锁
//
// 分配或取样失败时记录日志（限速）并丢弃整个批次，缓存不做任何修改，
// 由下一次回调重试。通知失败只记录日志，不回滚已应用的修改。
package entitylistener
