// Package dep2pgraph 维护进程内节点的发现图
//
// 每个节点对应传输层的一个参与者。参与者的内置发布 / 订阅发现读取器
// 把远端端点的出现与消失报告给节点的监听器，监听器维护主题缓存，
// 并在每批变更后唤醒图守护条件。
//
// # 快速开始
//
//	rt, err := dep2pgraph.Start(ctx,
//	    dep2pgraph.WithConfigFile("graph.yaml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Stop(context.Background())
//
//	node, err := rt.CreateNode("observer", "/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	n, _ := rt.Manager().CountPublishers(node, "/chatter")
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────────┐
//	│  Runtime            dep2pgraph.New() / dep2pgraph.Start()     │
//	├──────────────────────────────────────────────────────────────┤
//	│  nodemgr            节点创建 / 销毁 / 图查询                   │
//	│  entitylistener     发现样本批处理                             │
//	│  topiccache         按实体 GUID 索引的主题缓存                 │
//	│  graphnotify        图守护条件 + EvtGraphChanged               │
//	├──────────────────────────────────────────────────────────────┤
//	│  transport/memdds   进程内 DDS 域                              │
//	│  naming             名称反混淆与服务配对                       │
//	│  eventbus / metrics / lifecycle                               │
//	└──────────────────────────────────────────────────────────────┘
//
// # 文件组织
//
//   - dep2p.go: 版本信息
//   - runtime.go: Runtime 门面
//   - options.go: 用户配置选项
//   - fx.go: Fx 应用装配
//   - errors.go: 公共错误定义
package dep2pgraph
