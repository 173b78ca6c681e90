package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestShow(t *testing.T) {
	m, cmd := New().Show("Copied Lat: 1.00000, Lng: 2.00000", StyleSuccess, time.Millisecond)

	require.NotNil(t, cmd)
	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "Copied")
	assert.Equal(t, DismissMsg{Gen: 1}, cmd())
}

func TestDismiss_IgnoresStaleGeneration(t *testing.T) {
	m, first := New().Show("First", StyleInfo, time.Millisecond)
	m, _ = m.Show("Second", StyleWarn, time.Millisecond)

	m = m.Dismiss(first().(DismissMsg))
	assert.True(t, m.Visible(), "the older timer must not hide the newer toast")
	assert.Equal(t, "Second", m.Message())

	m = m.Dismiss(DismissMsg{Gen: 2})
	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestOverlay_BottomCenter(t *testing.T) {
	m, _ := New().Show("hi", StyleInfo, time.Second)
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 20)+"\n", 8), "\n")

	lines := strings.Split(m.Overlay(bg, 20, 8), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, strings.Repeat(".", 20), lines[0])
	assert.Contains(t, lines[5], "hi")
	assert.Equal(t, strings.Repeat(".", 20), lines[7])
}

func TestOverlay_HiddenReturnsBackground(t *testing.T) {
	assert.Equal(t, "bg", New().Overlay("bg", 10, 1))
}
