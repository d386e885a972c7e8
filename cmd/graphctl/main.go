// Package main 提供 graphctl 命令行入口
//
// 用法：
//
//	graphctl run                       # 默认配置运行演示域
//	graphctl run -c graph.yaml         # 从配置文件运行
//	graphctl run --metrics-addr :9464  # 同时暴露 /metrics
//	graphctl validate -c graph.yaml    # 验证配置
//	graphctl version                   # 版本信息
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dep2pgraph "github.com/dep2p/go-dep2p-graph"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
)

var logger = log.Logger("graphctl")

// rootCmd 无子命令时只显示帮助
var rootCmd = &cobra.Command{
	Use:   "graphctl",
	Short: "进程内发现图观察工具",
	Long: `graphctl 在进程内 DDS 域上创建节点，并在每次发现图变化时打印图。

示例配置 (graph.yaml):
  node:
    name: graph_observer
    namespace: /
    domain_id: 0
  graph:
    sample_buffer_capacity: 8
  log:
    level: entitylistener=debug,info
  metrics:
    enabled: true`,
	SilenceUsage: true,
}

// versionCmd 打印版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "打印版本信息",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), dep2pgraph.VersionInfo())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
