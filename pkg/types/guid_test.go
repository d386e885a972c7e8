package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// GUID 测试
// ============================================================================

func TestGUID_NewParticipantGUID(t *testing.T) {
	a := NewParticipantGUID()
	b := NewParticipantGUID()

	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
	assert.Equal(t, EntityIDParticipant, a.EntityID())
}

func TestGUID_EntityDerivation(t *testing.T) {
	p := NewParticipantGUID()
	e := NewEntityGUID(p, 0x103)

	assert.True(t, e.SamePrefix(p))
	assert.Equal(t, uint32(0x103), e.EntityID())
	assert.Equal(t, p, e.ParticipantGUID())
	assert.NotEqual(t, p, e)
}

func TestGUID_ParseRoundTrip(t *testing.T) {
	g := NewParticipantGUID()

	parsed, err := ParseGUID(g.String())
	require.NoError(t, err)
	assert.Equal(t, g, parsed)
	assert.Len(t, g.ShortString(), 8)
}

func TestGUID_ParseInvalid(t *testing.T) {
	_, err := ParseGUID("not-a-guid")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidGUID)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGUID_FromBytes(t *testing.T) {
	g := NewParticipantGUID()

	got, err := GUIDFromBytes(g.Bytes())
	require.NoError(t, err)
	assert.Equal(t, g, got)

	_, err = GUIDFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidGUID)
}

func TestGUID_JSONText(t *testing.T) {
	g := NewParticipantGUID()

	data, err := json.Marshal(map[string]GUID{"guid": g})
	require.NoError(t, err)

	var out map[string]GUID
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, g, out["guid"])
}
