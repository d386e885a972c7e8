package nodemgr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestUserData_RoundTrip(t *testing.T) {
	data := FormatUserData("talker", "/demo")
	assert.Equal(t, "name=talker;namespace=/demo;", string(data))

	name, ns, ok := ParseUserData(data)
	require.True(t, ok)
	assert.Equal(t, "talker", name)
	assert.Equal(t, "/demo", ns)
}

func TestUserData_Unnamed(t *testing.T) {
	_, _, ok := ParseUserData(nil)
	assert.False(t, ok)

	_, ns, ok := ParseUserData([]byte("namespace=/x;vendor=acme;"))
	assert.False(t, ok)
	assert.Equal(t, "/x", ns)
}

func TestGuardStack_UnwindsInReverse(t *testing.T) {
	var order []step
	var s guardStack
	for _, st := range []step{stepParticipant, stepNotifier, stepPublisherListener} {
		st := st
		s.push(st, func() error {
			order = append(order, st)
			if st == stepNotifier {
				return errors.New("close failed")
			}
			return nil
		})
	}

	err := s.unwind()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "release notifier")
	assert.Equal(t, []step{stepPublisherListener, stepNotifier, stepParticipant}, order)

	// 已清空
	assert.NoError(t, s.unwind())
}

func TestGuardStack_Dismiss(t *testing.T) {
	called := false
	var s guardStack
	s.push(stepParticipant, func() error {
		called = true
		return nil
	})
	s.dismiss()

	require.NoError(t, s.unwind())
	assert.False(t, called)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "subscriber_listener", stepSubscriberListener.String())
	assert.Equal(t, "step(42)", step(42).String())
}
