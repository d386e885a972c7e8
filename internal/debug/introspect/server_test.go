package introspect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-dep2p-graph/config"
	"github.com/dep2p/go-dep2p-graph/internal/core/metrics"
	"github.com/dep2p/go-dep2p-graph/internal/core/naming"
	"github.com/dep2p/go-dep2p-graph/internal/core/nodemgr"
	"github.com/dep2p/go-dep2p-graph/internal/core/transport/memdds"
)

func newManager(t *testing.T) *nodemgr.Manager {
	t.Helper()
	d, err := naming.NewDemangler(16)
	require.NoError(t, err)
	m, err := nodemgr.New(nodemgr.DefaultConfig(), memdds.NewFactory(),
		nodemgr.WithNaming(d, naming.NewServicePairer()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// ============================================================================
// Server 测试
// ============================================================================

func TestNew_DefaultAddr(t *testing.T) {
	assert.Equal(t, config.DefaultIntrospectAddr, New(Config{}).Addr())
	assert.Equal(t, "127.0.0.1:8080", New(Config{Addr: "127.0.0.1:8080"}).Addr())
}

func TestServer_StartStop(t *testing.T) {
	server := New(Config{Addr: "127.0.0.1:0"})

	require.NoError(t, server.Start(context.Background()))
	assert.NotEqual(t, "127.0.0.1:0", server.Addr())
	require.NoError(t, server.Start(context.Background()))

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "degraded", health.Status)

	require.NoError(t, server.Stop())
	require.NoError(t, server.Stop())
}

func TestServer_Graph(t *testing.T) {
	m := newManager(t)
	observer, err := m.CreateNode("observer", "/", 0)
	require.NoError(t, err)
	talker, err := m.CreateNode("talker", "/demo", 0)
	require.NoError(t, err)

	p := talker.Participant().(*memdds.Participant)
	w, err := p.CreateWriter(naming.MangleTopic("/chatter"), naming.MangleType("std_msgs/msg/String"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.DeleteEntity(w) })

	require.Eventually(t, func() bool {
		n, err := m.CountPublishers(observer, "/chatter")
		return err == nil && n == 1
	}, 2*time.Second, 5*time.Millisecond)

	h := New(Config{Manager: m}).Handler()

	rec := get(t, h, "/debug/introspect/graph?node=/observer")
	require.Equal(t, http.StatusOK, rec.Code)
	var graph GraphInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.Equal(t, "/observer", graph.Node)
	assert.Equal(t, []string{"/demo/talker", "/observer"}, graph.Nodes)
	assert.Equal(t, map[string][]string{"/chatter": {"std_msgs/msg/String"}}, graph.Topics)
	require.Len(t, graph.Publishers, 1)
	assert.Equal(t, w, graph.Publishers[0].Entity)
	assert.Equal(t, "publisher", graph.Publishers[0].Kind)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/debug/introspect/graph").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/debug/introspect/graph?node=/ghost").Code)

	rec = get(t, h, "/debug/introspect/nodes")
	require.Equal(t, http.StatusOK, rec.Code)
	var nodes []NodeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "/demo/talker", nodes[0].FQN)
	assert.Equal(t, "/observer", nodes[1].FQN)
	assert.Positive(t, nodes[1].Stats.Publishers.Added)

	rec = get(t, h, "/debug/introspect")
	require.Equal(t, http.StatusOK, rec.Code)
	var full IntrospectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &full))
	require.NotNil(t, full.Resources)
	assert.Equal(t, int64(2), full.Resources.Nodes)
}

func TestServer_NoManager(t *testing.T) {
	h := New(Config{}).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/debug/introspect/nodes").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/debug/introspect/graph?node=/x").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/debug/introspect/runtime").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New("test", reg)
	require.NoError(t, err)
	m.Triggered()

	rec := get(t, New(Config{Gatherer: reg}).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_graph_triggers_total 1")
}

// ============================================================================
// Fx 模块测试
// ============================================================================

func TestModule_Disabled(t *testing.T) {
	var server *Server
	app := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		Module(),
		fx.Populate(&server),
	)
	app.RequireStart()
	app.RequireStop()
	assert.Nil(t, server)
}

func TestModule_Enabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Diagnostics.EnableIntrospect = true
	cfg.Diagnostics.IntrospectAddr = "127.0.0.1:0"

	var server *Server
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&server),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, server)
	resp, err := http.Get("http://" + server.Addr() + "/debug/introspect/runtime")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
