package faust

import "sync"

// LoadMode selects the voice allocation bound when an instance is
// created.
type LoadMode int

const (
	// AutoDetect lets the script's own metadata decide between effect
	// and instrument mode.
	AutoDetect LoadMode = -1
	// Effect is a monophonic, always-active unit.
	Effect LoadMode = 0
)

// Instrument is a polyphonic unit with at most n simultaneous voices.
func Instrument(n int) LoadMode {
	if n < 1 {
		panic("faust: instrument needs at least one voice")
	}
	return LoadMode(n)
}

// Voices returns the voice count convention the gateway expects: -1 for
// auto-detect, 0 for effect, n>0 for an instrument with n voices.
func (m LoadMode) Voices() int { return int(m) }

// UI receives the flat control declaration stream a compiled instance
// emits while wiring up its controls. Calls arrive strictly in the
// instance's own depth-first pre-order traversal, forming a valid
// bracketed sequence. Declare calls may interleave in any order relative
// to the leaf owning the zone, but always before the stream is consumed.
type UI interface {
	OpenTabBox(label string)
	OpenHorizontalBox(label string)
	OpenVerticalBox(label string)
	CloseBox()
	AddButton(label string, zone *float32)
	AddCheckButton(label string, zone *float32)
	AddHorizontalSlider(label string, zone *float32, init, min, max, step float32)
	AddVerticalSlider(label string, zone *float32, init, min, max, step float32)
	AddNumEntry(label string, zone *float32, init, min, max, step float32)
	AddHorizontalBargraph(label string, zone *float32, min, max float32)
	AddVerticalBargraph(label string, zone *float32, min, max float32)
	Declare(zone *float32, key, value string)
}

// Gateway is the boundary to the external compiler toolchain. It is
// consumed by this module, never implemented here.
type Gateway interface {
	// Compile builds a factory from the script at the given path,
	// resolving imports against importPaths plus, by convention, the
	// script's own folder. Failures carry a Diagnostic.
	Compile(script string, importPaths []string) (Factory, error)
	// Load deserializes a factory previously written with Factory.Save.
	Load(dir string) (Factory, error)
}

// Factory owns the machine code of one compiled script and produces
// playable instances. Close it only after every instance is closed.
type Factory interface {
	// Instantiate binds one voice allocation at the given sample rate.
	// nvoices follows the LoadMode.Voices convention.
	Instantiate(sampleRate, nvoices int) (Instance, error)
	// Save serializes the factory into dir for a later Gateway.Load.
	Save(dir string) error
	Close() error
}

// Instance is one playable voice allocation. It owns the zones its
// declaration stream exposes; they die with it.
type Instance interface {
	NumInputs() int
	NumOutputs() int
	// BuildControls replays the instance's control declarations into ui.
	BuildControls(ui UI)
	// HandleMIDI forwards one raw 3-byte MIDI message at a block-relative
	// sample offset.
	HandleMIDI(offset float64, msg [3]byte)
	// HandleSync forwards one transport event at a block-relative sample
	// offset.
	HandleSync(offset float64, msg SyncMsg)
	// Compute runs the unit for frames samples over the given channel
	// buffers, in place.
	Compute(frames int, buffers [][]float32)
	Close() error
}

// maxDiagnostic bounds compiler diagnostics per the gateway contract.
const maxDiagnostic = 4096

// Diagnostic is a human-readable compiler failure. It is truncated, never
// overflowed, beyond the gateway's 4096-byte buffer.
type Diagnostic string

// NewDiagnostic caps msg at the diagnostic buffer size.
func NewDiagnostic(msg string) Diagnostic {
	if len(msg) > maxDiagnostic {
		msg = msg[:maxDiagnostic]
	}
	return Diagnostic(msg)
}

func (d Diagnostic) Error() string { return string(d) }

// Initializer is implemented by gateways whose runtime expects
// process-wide registries (e.g. a global GUI/zone map) to exist before
// any unit is created.
type Initializer interface {
	InitGlobals()
}

var globalsOnce sync.Once

// InitGlobals runs the gateway's one-time process-wide setup, if it needs
// any. Repeated calls are no-ops; there is no teardown.
func InitGlobals(g Gateway) {
	if i, ok := g.(Initializer); ok {
		globalsOnce.Do(i.InitGlobals)
	}
}
