// Package metrics 提供发现图的 Prometheus 指标
//
// 指标覆盖监听器批次（应用 / 跳过 / 失败）、图变化触发次数、
// 节点创建失败步骤以及节点资源台账：
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.New("dep2p_graph", reg)
//
//	m.ObserveBatch(types.KindPublisher, 2, 1, 0)
//	m.Triggered()
//
// 所有方法对 nil *Metrics 安全，禁用指标时组件可直接传 nil。
package metrics
