package faust

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// Zone is a single live float32 cell owned by a compiled instance, holding
// one parameter's current value. A zone is valid exactly as long as the
// owning instance is alive and must never be touched afterwards. Get and
// Set are single-word atomic operations on the float bits, so the control
// thread and the audio thread may access a zone without any further
// coordination.
type Zone struct {
	ptr *float32
}

// NewZone wraps a raw cell exposed by a compiled instance. The caller
// guarantees the cell outlives every use of the returned Zone.
func NewZone(ptr *float32) Zone {
	return Zone{ptr: ptr}
}

// Get returns the zone's current value.
func (z Zone) Get() float32 {
	return math.Float32frombits(atomic.LoadUint32((*uint32)(unsafe.Pointer(z.ptr))))
}

// Set overwrites the zone's current value.
func (z Zone) Set(v float32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(z.ptr)), math.Float32bits(v))
}

// BoxLayout defines how a grouping box arranges its children.
type BoxLayout int

const (
	HorizontalBox BoxLayout = iota
	VerticalBox
	// TabBox shows one child at a time.
	TabBox
)

// ButtonLayout defines how a boolean control behaves.
type ButtonLayout int

const (
	// HeldButton is active only while held down.
	HeldButton ButtonLayout = iota
	Checkbox
)

// NumericLayout defines how an interactive numeric control is presented.
type NumericLayout int

const (
	NumEntry NumericLayout = iota
	HorizontalSlider
	VerticalSlider
)

// BargraphLayout defines how a numeric readout is presented.
type BargraphLayout int

const (
	HorizontalBargraph BargraphLayout = iota
	VerticalBargraph
)

// Widget is one node of the reconstructed parameter tree: a grouping box,
// a boolean control, a numeric control or a numeric readout. Every leaf
// owns exactly one zone; boxes own none.
type Widget interface {
	Label() string
}

// Box groups widgets. The tree structure never changes after
// construction; the only mutable bit is which child of a tab box is
// visible.
type Box struct {
	Layout BoxLayout
	Name   string
	Inner  []Widget

	selected int
}

func (b *Box) Label() string { return b.Name }

// Selected returns the index of the visible child of a tab box.
func (b *Box) Selected() int { return b.selected }

// Select changes the visible child of a tab box. The other children keep
// their zones. Out-of-range indexes are clamped; an empty box stays at 0.
func (b *Box) Select(i int) {
	n := len(b.Inner)
	if n == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	b.selected = i
}

// Button is an interactive boolean control.
type Button struct {
	Layout  ButtonLayout
	Name    string
	Zone    Zone
	Hidden  bool
	Tooltip string
}

func (b *Button) Label() string { return b.Name }

// Numeric is an interactive bounded float control. Init, Min, Max and
// Step define its legal domain; Zone is the single read/write channel for
// its current value.
type Numeric struct {
	Layout NumericLayout
	Name   string
	Zone   Zone
	Init   float32
	Min    float32
	Max    float32
	Step   float32
	Meta   Metadata
}

func (n *Numeric) Label() string { return n.Name }

// Bargraph is a non-interactive bounded float readout.
type Bargraph struct {
	Layout BargraphLayout
	Name   string
	Zone   Zone
	Min    float32
	Max    float32
	Meta   Metadata
}

func (b *Bargraph) Label() string { return b.Name }
