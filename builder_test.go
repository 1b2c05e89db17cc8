package faust_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/faust"
)

func TestBuild(t *testing.T) {
	zones := make([]float32, 4)
	b := faust.NewBuilder()
	b.OpenVerticalBox("synth")
	b.Declare(&zones[0], "unit", "Hz")
	b.AddHorizontalSlider("freq", &zones[0], 440, 20, 20000, 1)
	b.OpenHorizontalBox("env")
	b.AddNumEntry("attack", &zones[1], 0.1, 0, 1, 0.01)
	b.AddVerticalSlider("release", &zones[2], 0.3, 0, 2, 0.01)
	b.CloseBox()
	b.AddButton("gate", &zones[3])
	b.CloseBox()

	widgets, err := b.Build()
	require.NoError(t, err)
	require.Len(t, widgets, 1)

	box, ok := widgets[0].(*faust.Box)
	require.True(t, ok)
	assert.Equal(t, faust.VerticalBox, box.Layout)
	assert.Equal(t, "synth", box.Label())
	require.Len(t, box.Inner, 3)

	freq, ok := box.Inner[0].(*faust.Numeric)
	require.True(t, ok)
	assert.Equal(t, faust.HorizontalSlider, freq.Layout)
	assert.Equal(t, "freq", freq.Label())
	assert.Equal(t, float32(440), freq.Init)
	assert.Equal(t, float32(20), freq.Min)
	assert.Equal(t, float32(20000), freq.Max)
	assert.Equal(t, float32(1), freq.Step)
	assert.Equal(t, "Hz", freq.Meta.Unit)

	env, ok := box.Inner[1].(*faust.Box)
	require.True(t, ok)
	assert.Equal(t, faust.HorizontalBox, env.Layout)
	require.Len(t, env.Inner, 2)
	assert.Equal(t, "attack", env.Inner[0].Label())
	assert.Equal(t, "release", env.Inner[1].Label())

	gate, ok := box.Inner[2].(*faust.Button)
	require.True(t, ok)
	assert.Equal(t, faust.HeldButton, gate.Layout)

	// Leaves are bound to the live cells.
	freq.Zone.Set(880)
	assert.Equal(t, float32(880), zones[0])
	zones[3] = 1
	assert.Equal(t, float32(1), gate.Zone.Get())
}

func TestBuildLeafCount(t *testing.T) {
	zones := make([]float32, 5)
	b := faust.NewBuilder()
	b.OpenTabBox("tabs")
	for i := range zones {
		b.AddCheckButton("c", &zones[i])
	}
	b.CloseBox()

	widgets, err := b.Build()
	require.NoError(t, err)
	require.Len(t, widgets, 1)
	tabs := widgets[0].(*faust.Box)
	assert.Equal(t, faust.TabBox, tabs.Layout)
	assert.Len(t, tabs.Inner, len(zones))
}

func TestBuildTabSelection(t *testing.T) {
	var z1, z2 float32
	b := faust.NewBuilder()
	b.OpenTabBox("tabs")
	b.AddButton("one", &z1)
	b.AddButton("two", &z2)
	b.CloseBox()

	widgets, err := b.Build()
	require.NoError(t, err)
	tabs := widgets[0].(*faust.Box)
	assert.Equal(t, 0, tabs.Selected())

	tabs.Select(1)
	assert.Equal(t, 1, tabs.Selected())
	// Switching tabs keeps the other children's zones alive.
	tabs.Inner[0].(*faust.Button).Zone.Set(1)
	assert.Equal(t, float32(1), z1)

	tabs.Select(-3)
	assert.Equal(t, 0, tabs.Selected())
	tabs.Select(10)
	assert.Equal(t, 1, tabs.Selected())
}

func TestEmptyTabSelection(t *testing.T) {
	// An empty box is a valid stream: open immediately closed.
	b := faust.NewBuilder()
	b.OpenTabBox("tabs")
	b.CloseBox()
	widgets, err := b.Build()
	require.NoError(t, err)

	tabs := widgets[0].(*faust.Box)
	assert.Equal(t, 0, tabs.Selected())
	tabs.Select(3)
	assert.Equal(t, 0, tabs.Selected())
	tabs.Select(-1)
	assert.Equal(t, 0, tabs.Selected())
}

func TestBuildLabels(t *testing.T) {
	var z1, z2 float32
	build := func() []faust.Widget {
		b := faust.NewBuilder()
		b.OpenVerticalBox("0x00")
		b.AddButton("b\xff\xfead", &z1)
		b.AddButton("plain", &z2)
		b.CloseBox()
		widgets, err := b.Build()
		require.NoError(t, err)
		return widgets
	}

	widgets := build()
	box := widgets[0].(*faust.Box)
	// The unlabelled-group placeholder becomes empty.
	assert.Equal(t, "", box.Label())

	// A label that is not valid text is replaced by a stable hash.
	hashed := box.Inner[0].Label()
	assert.NotEqual(t, "b\xff\xfead", hashed)
	assert.NotEmpty(t, hashed)
	assert.Equal(t, hashed, build()[0].(*faust.Box).Inner[0].Label())
	assert.Equal(t, "plain", box.Inner[1].Label())
}

func TestBuildMetadata(t *testing.T) {
	var gain, mode, level, gate float32
	b := faust.NewBuilder()
	// Metadata may arrive before or after the leaf it describes, keyed
	// by zone only.
	b.Declare(&mode, "style", "menu{'Clean':0;'Crunch':1; 'Lead' : 2}")
	b.Declare(&gain, "style", "knob")
	b.Declare(&gain, "tooltip", "output gain")
	b.Declare(&gain, "tooltip", "overall output gain")
	b.Declare(&gain, "scale", "log")
	b.Declare(&gain, "bogus", "ignored")
	b.Declare(&level, "style", "menu{broken")
	b.Declare(&level, "hidden", "notabool")
	b.Declare(&gate, "hidden", "true")
	b.Declare(&gate, "tooltip", "midi gate")
	b.AddHorizontalSlider("gain", &gain, 0.5, 0, 1, 0.01)
	b.AddNumEntry("mode", &mode, 0, 0, 2, 1)
	b.AddHorizontalBargraph("level", &level, 0, 1)
	b.AddButton("gate", &gate)

	widgets, err := b.Build()
	require.NoError(t, err)
	require.Len(t, widgets, 4)

	g := widgets[0].(*faust.Numeric)
	assert.Equal(t, faust.Knob, g.Meta.Style)
	// Last writer wins per key.
	assert.Equal(t, "overall output gain", g.Meta.Tooltip)
	assert.Equal(t, faust.Log, g.Meta.Scale)

	m := widgets[1].(*faust.Numeric)
	assert.Equal(t, faust.Menu, m.Meta.Style)
	require.Len(t, m.Meta.Entries, 3)
	assert.Equal(t, faust.StyleEntry{Label: "Crunch", Value: 1}, m.Meta.Entries[1])
	assert.Equal(t, faust.StyleEntry{Label: "Lead", Value: 2}, m.Meta.Entries[2])

	// Malformed structured values are dropped, never fatal.
	l := widgets[2].(*faust.Bargraph)
	assert.Equal(t, faust.FromLayout, l.Meta.Style)
	assert.False(t, l.Meta.Hidden)

	bt := widgets[3].(*faust.Button)
	assert.True(t, bt.Hidden)
	assert.Equal(t, "midi gate", bt.Tooltip)
}

func TestBuildEmpty(t *testing.T) {
	widgets, err := faust.NewBuilder().Build()
	assert.NoError(t, err)
	assert.Empty(t, widgets)
}

func TestBuildUnbalanced(t *testing.T) {
	var z float32
	tests := []struct {
		name    string
		declare func(b *faust.Builder)
	}{
		{
			name: "close without open",
			declare: func(b *faust.Builder) {
				b.CloseBox()
			},
		},
		{
			name: "extra close",
			declare: func(b *faust.Builder) {
				b.OpenVerticalBox("v")
				b.AddButton("b", &z)
				b.CloseBox()
				b.CloseBox()
			},
		},
		{
			name: "missing terminal close",
			declare: func(b *faust.Builder) {
				b.OpenHorizontalBox("h")
				b.OpenVerticalBox("v")
				b.AddButton("b", &z)
				b.CloseBox()
			},
		},
	}
	for _, c := range tests {
		t.Run(c.name, func(t *testing.T) {
			b := faust.NewBuilder()
			c.declare(b)
			widgets, err := b.Build()
			assert.Nil(t, widgets)
			require.Error(t, err)
			assert.ErrorIs(t, err, faust.ErrUnbalanced)
		})
	}
}
