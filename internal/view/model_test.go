package view

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/connerohnesorge/mdstream/internal/scheduler"
	"github.com/connerohnesorge/mdstream/internal/store"
	"github.com/connerohnesorge/mdstream/internal/theme"
)

func TestCountPrefixAccumulatesDigits(t *testing.T) {
	var c CountPrefixState
	_, _, handled := c.HandleKey("9")
	assert.True(t, handled)
	assert.Equal(t, "9", c.String())

	count, isNav, handled := c.HandleKey("j")
	assert.True(t, handled)
	assert.True(t, isNav)
	assert.Equal(t, 9, count)
	assert.False(t, c.IsActive())
}

func TestCountPrefixDefaultsToOne(t *testing.T) {
	var c CountPrefixState
	count, isNav, handled := c.HandleKey("k")
	assert.True(t, handled)
	assert.True(t, isNav)
	assert.Equal(t, 1, count)
}

func TestCountPrefixEscResetsActive(t *testing.T) {
	var c CountPrefixState
	c.HandleKey("4")
	assert.True(t, c.IsActive())

	_, isNav, handled := c.HandleKey(keyEsc)
	assert.True(t, handled)
	assert.False(t, isNav)
	assert.False(t, c.IsActive())
}

func TestModelInitStartsSpinnerTicking(t *testing.T) {
	th, err := theme.Get("default")
	assert.NoError(t, err)

	m := NewModel(store.New(), scheduler.New(scheduler.MicrotaskStrategy{}), th)
	cmd := m.Init()
	assert.True(t, cmd != nil)
}

func TestModelViewIncludesSpinnerFrame(t *testing.T) {
	th, err := theme.Get("default")
	assert.NoError(t, err)

	m := NewModel(store.New(), scheduler.New(scheduler.MicrotaskStrategy{}), th)
	out := m.View()
	assert.True(t, strings.Contains(out, m.spin.View()))
}
