// Package mock provides a pure-Go stand-in for the external compiler
// toolchain. Its units declare a scripted control layout, own real zone
// cells, process audio and record every MIDI and transport event they
// receive, so the full host chain can be exercised without the real
// compiler. It also backs the command-line host's demo mode.
package mock

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/pipelined/faust"
)

// ProcessFunc computes one block over the given channel buffers in place.
type ProcessFunc func(frames int, buffers [][]float32)

// Unit is the blueprint every factory of a Gateway instantiates.
type Unit struct {
	NumInputs  int
	NumOutputs int
	// NumZones is how many float32 cells each instance allocates.
	NumZones int
	// Controls replays the unit's control declarations into ui. zones
	// has NumZones cells owned by the instance.
	Controls func(ui faust.UI, zones []*float32)
	// Allocate returns a per-instance process closure, so it can carry
	// voice state. When nil, instances scale every buffer by zone 0, or
	// pass audio through when the unit has no zones.
	Allocate func(sampleRate int, zones []*float32) ProcessFunc
}

// MIDIEvent is one recorded raw MIDI message.
type MIDIEvent struct {
	Offset float64
	Msg    [3]byte
}

// SyncEvent is one recorded transport event.
type SyncEvent struct {
	Offset float64
	Msg    faust.SyncMsg
}

// Gateway implements faust.Gateway with scripted units.
type Gateway struct {
	// Unit is the blueprint compiled scripts instantiate.
	Unit Unit
	// Fail, when non-empty, makes Compile fail with this diagnostic.
	Fail string
	// FailInstance, when non-empty, makes Instantiate fail.
	FailInstance string

	mu        sync.Mutex
	factories []*Factory
	compiled  int
	loaded    int
	inited    bool
	events    []string
}

var _ faust.Gateway = (*Gateway)(nil)
var _ faust.Initializer = (*Gateway)(nil)

// InitGlobals records the one-time process-wide setup call.
func (g *Gateway) InitGlobals() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inited = true
}

// Initialized reports whether InitGlobals ran.
func (g *Gateway) Initialized() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inited
}

// Compile pretends to compile the script at path. A non-empty script
// path must exist on disk; its contents are ignored.
func (g *Gateway) Compile(script string, importPaths []string) (faust.Factory, error) {
	if g.Fail != "" {
		return nil, faust.NewDiagnostic(g.Fail)
	}
	if script != "" {
		if _, err := os.Stat(script); err != nil {
			return nil, faust.NewDiagnostic(fmt.Sprintf("cannot open script: %v", err))
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.compiled++
	f := &Factory{gw: g, source: script}
	g.factories = append(g.factories, f)
	return f, nil
}

// Load deserializes a factory previously written with Factory.Save.
func (g *Gateway) Load(dir string) (faust.Factory, error) {
	src, err := os.ReadFile(filepath.Join(dir, "unit.mock"))
	if err != nil {
		return nil, fmt.Errorf("reading cached factory: %w", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loaded++
	f := &Factory{gw: g, source: string(src)}
	g.factories = append(g.factories, f)
	return f, nil
}

// Compiled returns how many factories were built from source.
func (g *Gateway) Compiled() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.compiled
}

// Loaded returns how many factories were deserialized from cache folders.
func (g *Gateway) Loaded() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loaded
}

// Factories returns every factory the gateway handed out, in order.
func (g *Gateway) Factories() []*Factory {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Factory(nil), g.factories...)
}

// CloseOrder returns the sequence of "instance"/"factory" close calls.
func (g *Gateway) CloseOrder() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.events...)
}

func (g *Gateway) record(event string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, event)
}

// Factory is a mock compiled-script factory.
type Factory struct {
	gw     *Gateway
	source string

	mu        sync.Mutex
	instances []*Instance
	closed    bool
}

// Instantiate binds one voice allocation of the gateway's unit.
func (f *Factory) Instantiate(sampleRate, nvoices int) (faust.Instance, error) {
	if f.gw.FailInstance != "" {
		return nil, faust.NewDiagnostic(f.gw.FailInstance)
	}
	unit := f.gw.Unit
	inst := &Instance{
		gw:         f.gw,
		unit:       unit,
		sampleRate: sampleRate,
		nvoices:    nvoices,
		cells:      make([]float32, unit.NumZones),
	}
	inst.zones = make([]*float32, unit.NumZones)
	for i := range inst.cells {
		inst.zones[i] = &inst.cells[i]
	}
	if unit.Allocate != nil {
		inst.process = unit.Allocate(sampleRate, inst.zones)
	} else {
		inst.process = defaultProcess(inst.zones)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances = append(f.instances, inst)
	return inst, nil
}

// Save writes the factory into dir for a later Gateway.Load. The artifact
// is deterministic: identical sources produce identical bytes.
func (f *Factory) Save(dir string) error {
	return os.WriteFile(filepath.Join(dir, "unit.mock"), []byte(f.source), 0o644)
}

// Close releases the factory.
func (f *Factory) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.gw.record("factory")
	return nil
}

// Closed reports whether Close was called.
func (f *Factory) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Instances returns every instance the factory produced, in order.
func (f *Factory) Instances() []*Instance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Instance(nil), f.instances...)
}

// Instance is one mock voice allocation with real zone cells.
type Instance struct {
	gw         *Gateway
	unit       Unit
	sampleRate int
	nvoices    int
	cells      []float32
	zones      []*float32
	process    ProcessFunc

	mu     sync.Mutex
	midi   []MIDIEvent
	syncs  []SyncEvent
	blocks []int
	closed bool
}

func (i *Instance) NumInputs() int  { return i.unit.NumInputs }
func (i *Instance) NumOutputs() int { return i.unit.NumOutputs }

// BuildControls replays the unit's scripted declarations.
func (i *Instance) BuildControls(ui faust.UI) {
	if i.unit.Controls != nil {
		i.unit.Controls(ui, i.zones)
	}
}

func (i *Instance) HandleMIDI(offset float64, msg [3]byte) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.midi = append(i.midi, MIDIEvent{Offset: offset, Msg: msg})
}

func (i *Instance) HandleSync(offset float64, msg faust.SyncMsg) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.syncs = append(i.syncs, SyncEvent{Offset: offset, Msg: msg})
}

func (i *Instance) Compute(frames int, buffers [][]float32) {
	i.mu.Lock()
	i.blocks = append(i.blocks, frames)
	i.mu.Unlock()
	i.process(frames, buffers)
}

func (i *Instance) Close() error {
	i.mu.Lock()
	i.closed = true
	i.mu.Unlock()
	i.gw.record("instance")
	return nil
}

// Closed reports whether Close was called.
func (i *Instance) Closed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closed
}

// SampleRate returns the rate the instance was bound at.
func (i *Instance) SampleRate() int { return i.sampleRate }

// Voices returns the nvoices value the instance was bound with.
func (i *Instance) Voices() int { return i.nvoices }

// Zones exposes the instance's raw cells for test assertions.
func (i *Instance) Zones() []*float32 { return i.zones }

// MIDI returns the recorded MIDI events.
func (i *Instance) MIDI() []MIDIEvent {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]MIDIEvent(nil), i.midi...)
}

// Syncs returns the recorded transport events.
func (i *Instance) Syncs() []SyncEvent {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]SyncEvent(nil), i.syncs...)
}

// Blocks returns the frame count of every Compute call.
func (i *Instance) Blocks() []int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]int(nil), i.blocks...)
}

// defaultProcess scales every buffer by zone 0, or leaves the audio
// untouched when the unit has no zones.
func defaultProcess(zones []*float32) ProcessFunc {
	return func(frames int, buffers [][]float32) {
		gain := float32(1)
		if len(zones) > 0 {
			gain = faust.NewZone(zones[0]).Get()
		}
		for _, buf := range buffers {
			for i := 0; i < frames; i++ {
				buf[i] *= gain
			}
		}
	}
}

// Demo returns a small stereo synth unit used by the command-line host's
// demo mode: a sine oscillator with frequency and gain controls, a mute
// checkbox and an output level readout.
func Demo() Unit {
	return Unit{
		NumOutputs: 2,
		NumZones:   4,
		Controls: func(ui faust.UI, z []*float32) {
			ui.OpenTabBox("demo")
			ui.OpenVerticalBox("osc")
			ui.Declare(z[0], "unit", "Hz")
			ui.Declare(z[0], "scale", "log")
			ui.AddHorizontalSlider("freq", z[0], 440, 20, 20000, 1)
			ui.Declare(z[1], "style", "knob")
			ui.AddHorizontalSlider("gain", z[1], 0.2, 0, 1, 0.01)
			ui.AddCheckButton("mute", z[2])
			ui.CloseBox()
			ui.OpenHorizontalBox("meter")
			ui.AddHorizontalBargraph("level", z[3], 0, 1)
			ui.CloseBox()
			ui.CloseBox()
		},
		Allocate: func(sampleRate int, z []*float32) ProcessFunc {
			freq := faust.NewZone(z[0])
			gain := faust.NewZone(z[1])
			mute := faust.NewZone(z[2])
			level := faust.NewZone(z[3])
			freq.Set(440)
			gain.Set(0.2)
			var phase float64
			return func(frames int, buffers [][]float32) {
				g := gain.Get()
				if mute.Get() != 0 {
					g = 0
				}
				step := 2 * math.Pi * float64(freq.Get()) / float64(sampleRate)
				var peak float32
				for i := 0; i < frames; i++ {
					v := float32(math.Sin(phase)) * g
					phase += step
					for _, buf := range buffers {
						buf[i] = v
					}
					if a := float32(math.Abs(float64(v))); a > peak {
						peak = a
					}
				}
				if phase > 2*math.Pi {
					phase = math.Mod(phase, 2*math.Pi)
				}
				level.Set(peak)
			}
		},
	}
}
