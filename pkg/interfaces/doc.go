// Package interfaces 定义发现图的公共接口
//
// 本包只包含契约，不包含实现。一个接口文件对应一个实现目录：
//
//   - transport.go  - 传输层契约（参与者工厂、参与者、内置发现读取器）
//                     实现：internal/core/transport/memdds
//   - naming.go     - 名称反混淆与服务配对
//                     实现：internal/core/naming
//   - graph.go      - 图通知条件（供外部等待集使用）
//                     实现：internal/core/graphnotify
//   - eventbus.go   - 事件总线
//                     实现：internal/core/eventbus
package interfaces
