package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// ============================================================================
// 反混淆测试
// ============================================================================

func TestDemangleTopic(t *testing.T) {
	assert.Equal(t, "/chatter", DemangleTopic("rt/chatter"))
	assert.Equal(t, "/ns/chatter", DemangleTopic("rt/ns/chatter"))
	assert.Equal(t, "", DemangleTopic("chatter"))
	assert.Equal(t, "", DemangleTopic("rq/add_two_intsRequest"))
	assert.Equal(t, "", DemangleTopic("rtchatter"))
}

func TestDemangleType(t *testing.T) {
	assert.Equal(t, "std_msgs/msg/String", DemangleType("std_msgs::msg::dds_::String_"))
	assert.Equal(t, "std_msgs/String", DemangleType("std_msgs/String"))
	assert.Equal(t, "", DemangleType("::dds_::String_"))
}

func TestMangleRoundTrip(t *testing.T) {
	assert.Equal(t, "rt/chatter", MangleTopic("chatter"))
	assert.Equal(t, "/chatter", DemangleTopic(MangleTopic("/chatter")))
	assert.Equal(t, "std_msgs::msg::dds_::String_", MangleType("std_msgs/msg/String"))
	assert.Equal(t, "std_msgs/msg/String", DemangleType(MangleType("std_msgs/msg/String")))
}

func TestDemangler_Caches(t *testing.T) {
	d, err := NewDemangler(2)
	require.NoError(t, err)

	assert.Equal(t, "/chatter", d.DemangleTopic("rt/chatter"))
	assert.Equal(t, "/chatter", d.DemangleTopic("rt/chatter"))
	assert.Equal(t, 1, d.topics.Len())

	assert.Equal(t, "", d.DemangleTopic("raw"))
	assert.Equal(t, "", d.DemangleTopic("raw"))
	assert.Equal(t, 2, d.topics.Len())

	assert.Equal(t, "pkg/msg/T", d.DemangleType("pkg::msg::dds_::T_"))
	assert.Equal(t, 1, d.types.Len())
}

// ============================================================================
// 服务配对测试
// ============================================================================

func TestServicePairer_IsServiceTopic(t *testing.T) {
	p := NewServicePairer()

	assert.True(t, p.IsServiceTopic("rq/add_two_intsRequest"))
	assert.True(t, p.IsServiceTopic("rr/add_two_intsReply"))
	assert.False(t, p.IsServiceTopic("rq/add_two_intsReply"))
	assert.False(t, p.IsServiceTopic("rt/chatter"))
	assert.False(t, p.IsServiceTopic("rq/Request"))
}

func TestServicePairer_MergesBothHalves(t *testing.T) {
	p := NewServicePairer()

	entries := []types.TopicEntry{
		{TopicName: MangleServiceRequest("add_two_ints"), TypeName: MangleServiceType("example_interfaces/srv/AddTwoInts", true)},
		{TopicName: MangleServiceResponse("add_two_ints"), TypeName: MangleServiceType("example_interfaces/srv/AddTwoInts", false)},
	}

	got := p.PairServices(entries)
	assert.Equal(t, map[string][]string{
		"/add_two_ints": {"example_interfaces/srv/AddTwoInts"},
	}, got.ToLists())
}

func TestServicePairer_PartialService(t *testing.T) {
	p := NewServicePairer()

	entries := []types.TopicEntry{
		{TopicName: "rr/only_replyReply", TypeName: "pkg::srv::dds_::Only_Response_"},
		{TopicName: "rq/badRequest", TypeName: "NotAServiceType"},
	}

	got := p.PairServices(entries)
	assert.Equal(t, []string{"/only_reply"}, got.Names())
	assert.Equal(t, []string{"pkg/srv/Only"}, got.Types("/only_reply"))
}

// ============================================================================
// Fx 模块测试
// ============================================================================

func TestModule_Provides(t *testing.T) {
	var (
		d pkgif.Demangler
		p pkgif.ServicePairer
	)

	app := fxtest.New(t,
		Module(),
		fx.Populate(&d, &p),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, d)
	require.NotNil(t, p)
	assert.Equal(t, "/x", d.DemangleTopic("rt/x"))
}
