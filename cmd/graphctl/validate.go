package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dep2p/go-dep2p-graph/config"
)

// validateCmd 加载并验证配置文件
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "验证配置文件",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "配置文件路径（必填）")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config ok: %s\n", path)
	fmt.Fprintf(out, "  node:    %s (namespace %s, domain %d)\n", cfg.Node.Name, cfg.Node.Namespace, cfg.Node.DomainID)
	fmt.Fprintf(out, "  metrics: enabled=%t namespace=%s\n", cfg.Metrics.Enabled, cfg.Metrics.Namespace)
	return nil
}
