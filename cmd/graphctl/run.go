package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	dep2pgraph "github.com/dep2p/go-dep2p-graph"
	"github.com/dep2p/go-dep2p-graph/config"
	"github.com/dep2p/go-dep2p-graph/internal/core/nodemgr"
	"github.com/dep2p/go-dep2p-graph/internal/core/waitset"
	ulogger "github.com/dep2p/go-dep2p-graph/internal/util/logger"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

const (
	shutdownTimeout = 10 * time.Second
	pollInterval    = time.Second
)

// runCmd 运行演示域并打印图变化
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "运行演示域并在每次图变化时打印发现图",
	Long: `创建观察节点（配置 node 段），可选地创建演示节点 talker / listener / blinker，
每次图守护条件被触发时打印观察节点看到的发现图。

运行直到 Ctrl+C、SIGTERM 或 --duration 到期。`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("config", "c", "", "配置文件路径（JSON / YAML）")
	flags.Uint32("domain", 0, "覆盖配置中的域 ID")
	flags.String("metrics-addr", "", "/metrics 监听地址（覆盖配置）")
	flags.Bool("demo", true, "创建演示节点")
	flags.Duration("blink", 2*time.Second, "blinker 切换间隔，0 表示不切换")
	flags.Duration("duration", 0, "运行时长，0 表示直到收到信号")
}

// runOptions run 子命令参数
type runOptions struct {
	configPath  string
	domain      *uint32
	metricsAddr string
	demo        bool
	blink       time.Duration
	duration    time.Duration
}

func runRun(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	var ro runOptions
	ro.configPath, _ = flags.GetString("config")
	if flags.Changed("domain") {
		d, _ := flags.GetUint32("domain")
		ro.domain = &d
	}
	ro.metricsAddr, _ = flags.GetString("metrics-addr")
	ro.demo, _ = flags.GetBool("demo")
	ro.blink, _ = flags.GetDuration("blink")
	ro.duration, _ = flags.GetDuration("duration")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if ro.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ro.duration)
		defer cancel()
	}

	return run(ctx, cmd.OutOrStdout(), ro)
}

// run 装配运行时并阻塞到 ctx 结束
func run(ctx context.Context, out io.Writer, ro runOptions) (err error) {
	cfg, err := loadConfig(ro.configPath)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []dep2pgraph.Option{dep2pgraph.WithConfig(cfg)}
	if ro.domain != nil {
		opts = append(opts, dep2pgraph.WithDomain(*ro.domain))
	}
	rt, err := dep2pgraph.Start(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if stopErr := rt.Stop(stopCtx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	observer, err := rt.CreateDefaultNode()
	if err != nil {
		return err
	}
	logger.Info("观察节点已创建", "node", observer.FullyQualifiedName())

	var d *demo
	if ro.demo {
		d, err = setupDemo(rt)
		if err != nil {
			return err
		}
		defer func() {
			if tdErr := d.teardown(); tdErr != nil {
				logger.Warn("演示节点清理失败", "error", tdErr)
			}
		}()
	}

	cond, err := rt.Manager().GraphGuardCondition(observer)
	if err != nil {
		return err
	}
	ws := waitset.New()
	ws.Attach(cond)

	sub, err := rt.Bus().Subscribe(new(types.EvtGraphChanged))
	if err != nil {
		return fmt.Errorf("subscribe graph events: %w", err)
	}
	defer sub.Close()

	g, gctx := errgroup.WithContext(ctx)

	metricsAddr := cfg.Metrics.ListenAddr
	if ro.metricsAddr != "" {
		metricsAddr = ro.metricsAddr
	}
	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           metricsMux(rt),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("指标服务已启动", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
	}

	if d != nil {
		g.Go(func() error {
			return d.churn(gctx, clock.New(), ro.blink)
		})
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-sub.Out():
				if !ok {
					return nil
				}
				if e, ok := ev.(types.EvtGraphChanged); ok {
					logger.Debug("图变化事件", "source", e.Source, "seq", e.Sequence)
				}
			}
		}
	})

	g.Go(func() error {
		return watchGraph(gctx, out, rt, observer, ws)
	})

	return g.Wait()
}

// watchGraph 每次图守护条件被触发时打印图
func watchGraph(ctx context.Context, out io.Writer, rt *dep2pgraph.Runtime, observer *nodemgr.Node, ws *waitset.WaitSet) error {
	if err := printGraph(out, rt.Manager(), observer); err != nil {
		return err
	}
	for {
		_, err := ws.Wait(ctx, pollInterval)
		switch {
		case err == nil:
			if err := printGraph(out, rt.Manager(), observer); err != nil {
				return err
			}
		case errors.Is(err, waitset.ErrTimeout):
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
}

// metricsMux /metrics 路由
func metricsMux(rt *dep2pgraph.Runtime) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.Registry(), promhttp.HandlerOpts{}))
	return mux
}

// loadConfig 加载配置文件，路径为空时使用默认配置
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.NewConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogging 按 log 段安装日志，GRAPH_LOG_LEVEL / GRAPH_LOG_FORMAT 优先
func setupLogging(lc config.LogConfig) (func(), error) {
	lcfg := ulogger.DefaultConfig()
	ulogger.ApplyLevelSpec(&lcfg, lc.Level)
	lcfg.Format = ulogger.ParseFormat(lc.Format)
	if spec := os.Getenv(ulogger.EnvLogLevel); spec != "" {
		ulogger.ApplyLevelSpec(&lcfg, spec)
	}
	if f := os.Getenv(ulogger.EnvLogFormat); f != "" {
		lcfg.Format = ulogger.ParseFormat(f)
	}

	closeFn := func() {}
	if lc.File != "" {
		file, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		ulogger.SetOutput(file)
		closeFn = func() {
			ulogger.SetOutput(os.Stderr)
			_ = file.Close()
		}
	}
	ulogger.Install(lcfg)
	return closeFn, nil
}
