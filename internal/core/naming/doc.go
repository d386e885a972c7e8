// Package naming 实现框架逻辑名称与传输层名称之间的转换
//
// 传输层命名约定：
//
//	主题:       rt/<name>                    -> /<name>
//	服务请求:   rq/<name>Request             -> /<name>
//	服务响应:   rr/<name>Reply               -> /<name>
//	消息类型:   pkg::msg::dds_::Type_        -> pkg/msg/Type
//	服务类型:   pkg::srv::dds_::Type_Request_ -> pkg/srv/Type
//
// Demangler 对结果做 LRU 缓存，可在多个节点间共享。
package naming
