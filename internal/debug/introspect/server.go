package introspect

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-dep2p-graph/config"
	"github.com/dep2p/go-dep2p-graph/internal/core/nodemgr"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

var logger = log.Logger("debug/introspect")

// ============================================================================
//                              配置
// ============================================================================

// Config 服务配置
type Config struct {
	// Addr 监听地址，默认 config.DefaultIntrospectAddr
	Addr string

	// Manager 节点管理器，为空时健康状态为 degraded
	Manager *nodemgr.Manager

	// Gatherer 可选的指标来源，非空时挂载 /metrics
	Gatherer prometheus.Gatherer
}

// ============================================================================
//                              Server
// ============================================================================

// Server 本地自省 HTTP 服务
type Server struct {
	config Config

	server   *http.Server
	listener net.Listener

	running   bool
	startTime time.Time

	mu sync.Mutex
}

// New 创建自省服务
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultIntrospectAddr
	}
	return &Server{
		config:    cfg,
		startTime: time.Now(),
	}
}

// Handler 返回路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/introspect", s.handleIntrospect)
	mux.HandleFunc("/debug/introspect/nodes", s.handleNodes)
	mux.HandleFunc("/debug/introspect/graph", s.handleGraph)
	mux.HandleFunc("/debug/introspect/runtime", s.handleRuntime)

	if s.config.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start 启动服务
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("自省服务异常退出", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	logger.Info("自省服务已启动", "addr", listener.Addr().String())
	return nil
}

// Stop 停止服务
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logger.Error("关闭自省服务失败", "error", err)
		return err
	}

	s.running = false
	logger.Info("自省服务已停止")
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// ============================================================================
//                              响应结构
// ============================================================================

// IntrospectResponse 完整诊断响应
type IntrospectResponse struct {
	Timestamp time.Time          `json:"timestamp"`
	Uptime    string             `json:"uptime"`
	Resources *nodemgr.Resources `json:"resources,omitempty"`
	Nodes     []NodeInfo         `json:"nodes,omitempty"`
	Runtime   *RuntimeInfo       `json:"runtime,omitempty"`
}

// NodeInfo 本地节点信息
type NodeInfo struct {
	Name        string        `json:"name"`
	Namespace   string        `json:"namespace"`
	FQN         string        `json:"fqn"`
	Participant types.GUID    `json:"participant"`
	Stats       nodemgr.Stats `json:"stats"`
}

// EntryInfo 发现图条目
type EntryInfo struct {
	Participant types.GUID `json:"participant"`
	Entity      types.GUID `json:"entity"`
	Topic       string     `json:"topic"`
	Type        string     `json:"type"`
	Kind        string     `json:"kind"`
}

// GraphInfo 节点视角的发现图
type GraphInfo struct {
	Node        string              `json:"node"`
	Nodes       []string            `json:"nodes"`
	Topics      map[string][]string `json:"topics"`
	Services    map[string][]string `json:"services"`
	Publishers  []EntryInfo         `json:"publishers"`
	Subscribers []EntryInfo         `json:"subscribers"`
}

// RuntimeInfo 运行时信息
type RuntimeInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc"`
	MemSys       uint64 `json:"mem_sys"`
	NumGC        uint32 `json:"num_gc"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ============================================================================
//                              HTTP 处理器
// ============================================================================

func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := IntrospectResponse{
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
		Nodes:     s.collectNodes(),
		Runtime:   collectRuntimeInfo(),
	}
	if s.config.Manager != nil {
		res := s.config.Manager.Resources()
		response.Resources = &res
	}
	s.writeJSON(w, response)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.config.Manager == nil {
		http.Error(w, "Node manager not available", http.StatusServiceUnavailable)
		return
	}
	nodes := s.collectNodes()
	if nodes == nil {
		nodes = []NodeInfo{}
	}
	s.writeJSON(w, nodes)
}

// handleGraph 以 ?node=<fqn> 指定的本地节点视角返回发现图
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.config.Manager == nil {
		http.Error(w, "Node manager not available", http.StatusServiceUnavailable)
		return
	}
	fqn := r.URL.Query().Get("node")
	if fqn == "" {
		http.Error(w, "missing node parameter", http.StatusBadRequest)
		return
	}

	var node *nodemgr.Node
	for _, n := range s.config.Manager.Nodes() {
		if n.FullyQualifiedName() == fqn {
			node = n
			break
		}
	}
	if node == nil {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}

	info, err := s.collectGraph(node)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.writeJSON(w, info)
}

func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, collectRuntimeInfo())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	}
	if s.config.Manager == nil {
		health.Status = "degraded"
	}
	s.writeJSON(w, health)
}

// ============================================================================
//                              数据收集
// ============================================================================

// collectNodes 收集本地节点，已销毁的节点被跳过
func (s *Server) collectNodes() []NodeInfo {
	if s.config.Manager == nil {
		return nil
	}
	var out []NodeInfo
	for _, n := range s.config.Manager.Nodes() {
		stats, err := s.config.Manager.Stats(n)
		if err != nil {
			continue
		}
		info := NodeInfo{
			Name:      n.Name(),
			Namespace: n.Namespace(),
			FQN:       n.FullyQualifiedName(),
			Stats:     stats,
		}
		if p := n.Participant(); p != nil {
			info.Participant = p.GUID()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FQN < out[j].FQN })
	return out
}

func (s *Server) collectGraph(n *nodemgr.Node) (*GraphInfo, error) {
	m := s.config.Manager
	names, err := m.NodeNames(n)
	if err != nil {
		return nil, err
	}
	topics, err := m.TopicNamesAndTypes(n, true)
	if err != nil {
		return nil, err
	}
	services, err := m.ServiceNamesAndTypes(n)
	if err != nil {
		return nil, err
	}
	snap, err := m.Snapshot(n)
	if err != nil {
		return nil, err
	}

	info := &GraphInfo{
		Node:        n.FullyQualifiedName(),
		Nodes:       make([]string, 0, len(names)),
		Topics:      topics.ToLists(),
		Services:    services.ToLists(),
		Publishers:  toEntries(snap.Publishers),
		Subscribers: toEntries(snap.Subscribers),
	}
	for _, nn := range names {
		info.Nodes = append(info.Nodes, nodemgr.FullyQualified(nn.Namespace, nn.Name))
	}
	sort.Strings(info.Nodes)
	return info, nil
}

func toEntries(entries []types.TopicEntry) []EntryInfo {
	out := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryInfo{
			Participant: e.ParticipantGUID,
			Entity:      e.EntityGUID,
			Topic:       e.TopicName,
			Type:        e.TypeName,
			Kind:        e.Kind.String(),
		})
	}
	return out
}

func collectRuntimeInfo() *RuntimeInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &RuntimeInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

// ============================================================================
//                              辅助方法
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		logger.Error("JSON 编码失败", "error", err)
	}
}
