// Package topiccache 实现发现图缓存
//
// Cache 以实体 GUID 为键保存 TopicEntry，并维护两个派生索引：
//
//   - 主题名 -> 类型名（引用计数，用于图查询）
//   - 参与者 GUID -> 实体 GUID 集合（用于按节点查询）
//
// # 并发
//
// Cache 自身不加锁。所有方法都要求调用方持有节点共享锁，
// 写入方（实体监听器）与读取方（图查询）使用同一把锁，
// 因此读取方不会观察到索引与条目不一致的中间状态。
//
// # 参与者索引
//
// 参与者的实体全部移除后，其索引项以空集合保留，直到 Clear。
package topiccache
