package surface

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoad(t *testing.T) {
	s := NewStore()
	s.Load([]Control{
		button("a", 0, 0),
		button("a", 10, 10),
		{Type: "mystery", Label: "x"},
		{ID: "s", Type: KindSlider, RangeMode: Unipolar, Width: 100, Height: 40},
	})

	require.Equal(t, 3, s.Len())
	a, idx := s.Find("a")
	require.NotNil(t, a)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0.0, a.X, "first occurrence of an id wins")

	x := s.Controls()[1]
	assert.Equal(t, KindButton, x.Type)
	assert.Equal(t, 100.0, x.Width)

	sl, _ := s.Find("s")
	assert.Equal(t, Horizontal, sl.Orientation)
	assert.Equal(t, 0.5, sl.Value)
	assert.True(t, s.TakeDirty())
	assert.False(t, s.Dirty())
}

func TestStoreMutations(t *testing.T) {
	s := NewStore()
	a := &Control{ID: "a", Type: KindButton}
	require.NoError(t, s.Append(a))
	assert.ErrorIs(t, s.Append(&Control{ID: "a"}), ErrDuplicateID)

	pending := &Control{Type: KindButton}
	require.NoError(t, s.Append(pending))
	assert.ErrorIs(t, s.AssignID(pending, "a"), ErrDuplicateID)
	require.NoError(t, s.AssignID(pending, "b"))

	got, ok := s.Lookup("b")
	assert.True(t, ok)
	assert.Same(t, pending, got)

	assert.True(t, s.Remove(a))
	assert.False(t, s.Remove(a))
	assert.False(t, s.Contains(a))
	assert.Equal(t, 1, s.Len())
}

func TestSnapshotOmitsRuntimeState(t *testing.T) {
	s := NewStore()
	s.Load([]Control{slider("s", 0, 0, 100, 40, Horizontal, Bipolar)})
	c, _ := s.Find("s")
	c.Value = 0.7
	c.Active = true

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "0.7")
	assert.NotContains(t, string(data), "Active")
}

func TestAddKeyDeduplicates(t *testing.T) {
	c := &Control{Type: KindButton}
	assert.True(t, c.AddKey("Ctrl"))
	assert.True(t, c.AddKey("c"))
	assert.False(t, c.AddKey("ctrl"))
	assert.False(t, c.AddKey("  "))
	assert.Equal(t, []string{"ctrl", "c"}, c.Keys)

	c.SetKeys([]string{"alt", "tab", "alt"})
	assert.Equal(t, []string{"alt", "tab"}, c.Keys)
}

func TestSetValueClamps(t *testing.T) {
	c := &Control{Type: KindSlider, RangeMode: Unipolar}
	assert.Equal(t, 0.0, c.SetValue(-3))
	assert.Equal(t, 1.0, c.SetValue(3))
	c.RangeMode = Bipolar
	assert.Equal(t, -1.0, c.SetValue(-3))
}
