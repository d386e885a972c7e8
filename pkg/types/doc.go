// Package types 定义发现图的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - guid.go     - GUID（参与者 / 实体的 16 字节标识）
//   - graph.go    - EntityKind, TopicEntry, NamesAndTypes
//   - sample.go   - 内置发现主题数据、SampleInfo、SampleSeq
//   - events.go   - 图变化事件
//   - errors.go   - 公共错误定义与分类
package types
