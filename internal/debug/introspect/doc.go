// Package introspect 提供本地发现图自省 HTTP 服务
//
// 该服务运行在本地端口，以 JSON 形式暴露节点管理器持有的节点与发现图，
// 用于调试。默认绑定到 127.0.0.1，不暴露到网络。
//
// # 端点
//
//	GET /debug/introspect              - 完整诊断报告
//	GET /debug/introspect/nodes        - 本地节点与监听器统计
//	GET /debug/introspect/graph?node=  - 指定本地节点视角的发现图
//	GET /debug/introspect/runtime      - Go 运行时信息
//	GET /metrics                       - Prometheus 指标
//	GET /debug/pprof/*                 - Go pprof 端点
//	GET /health                        - 健康检查
//
// 通过 config.Diagnostics.EnableIntrospect 启用。
package introspect
