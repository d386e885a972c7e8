// Package nodemgr 管理节点的创建与销毁
//
// 节点由以下资源组成，按顺序获取：
//
//  1. 域参与者（user_data 携带 name=<n>;namespace=<ns>;）
//  2. 图通知器
//  3. 发布者监听器
//  4. 订阅者监听器
//  5. 节点句柄（复制名称与命名空间）
//  6. 节点信息块
//  7. 解析内置读取器（publications / subscriptions）
//  8. 把监听器挂到读取器上
//
// 任一步失败时，已获取的资源按相反顺序释放，不返回句柄。
//
// # 销毁
//
// DestroyNode 先删除参与者（同步注销所有回调）。删除失败时立即返回，
// 节点保持可用；成功后再关闭监听器、通知器并使句柄失效。
//
// # 图查询
//
// 查询方法对节点的共享锁只加一次，在同一锁内读取发布者与订阅者缓存。
package nodemgr
