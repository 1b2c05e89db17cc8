package faust

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pipelined/faust/cache"
)

// Info tells the sample rate a unit was bound to and how many input and
// output audio channels it expects.
type Info struct {
	SampleRate int
	NumInputs  int
	NumOutputs int
}

// Dsp owns one compiled unit end to end: its factory, its instance and
// the widget tree bound to the instance's zones. A Dsp is never rebound;
// reloading a script constructs a brand-new Dsp, so a failed reload
// leaves the previous one, its zones and anything referencing them fully
// valid.
type Dsp struct {
	// playing is the transport state at the end of the previous block.
	playing atomic.Bool

	// lifeMu pins the native handles for the duration of any call into
	// them. Close takes it exclusively: a block in flight finishes
	// before the instance dies, and every later call into the wrapper
	// is a no-op instead of a dangling dereference.
	lifeMu sync.RWMutex

	// computeMu serializes calls into the unit's compute entry point and
	// covers nothing else: zones are atomic cells and the widget tree
	// has its own lock, so control-thread access never contends with
	// compute.
	computeMu sync.Mutex
	instance  Instance
	factory   Factory

	widgetsMu sync.RWMutex
	widgets   []Widget

	// chans is how many buffers Process overwrites per block.
	chans int
	info  Info
}

// Load compiles the script (or fetches its factory from c, which may be
// nil), binds an instance at the given sample rate and voice mode and
// reconstructs its widget tree. Any failure releases every native handle
// acquired so far and returns a display-friendly diagnostic; no partially
// constructed Dsp is ever retained.
func Load(g Gateway, c *cache.Cache, script string, importPaths []string, sampleRate int, mode LoadMode) (*Dsp, error) {
	factory, err := newFactory(g, c, script, importPaths)
	if err != nil {
		return nil, err
	}
	instance, err := factory.Instantiate(sampleRate, mode.Voices())
	if err != nil {
		factory.Close()
		return nil, err
	}
	builder := NewBuilder()
	instance.BuildControls(builder)
	widgets, err := builder.Build()
	if err != nil {
		instance.Close()
		factory.Close()
		// A malformed stream means the gateway breached its declaration
		// protocol; continuing with a corrupted tree is unsafe.
		panic(err)
	}
	in, out := instance.NumInputs(), instance.NumOutputs()
	return &Dsp{
		factory:  factory,
		instance: instance,
		widgets:  widgets,
		chans:    max(in, out),
		info:     Info{SampleRate: sampleRate, NumInputs: in, NumOutputs: out},
	}, nil
}

// newFactory obtains a factory through the cache when one is given. Only
// the script contents take part in the cache id, not what it imports.
func newFactory(g Gateway, c *cache.Cache, script string, importPaths []string) (Factory, error) {
	if c == nil {
		return g.Compile(script, importPaths)
	}
	id, err := cache.Hash(script)
	if err != nil {
		return nil, err
	}
	dir, writer := c.Query(id)
	if writer == nil {
		return g.Load(dir)
	}
	factory, err := g.Compile(script, importPaths)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Materialize(factory.Save); err != nil {
		factory.Close()
		return nil, err
	}
	return factory, nil
}

// Info returns the channel counts and bound sample rate.
func (d *Dsp) Info() Info { return d.info }

// Widgets calls fn with the widget tree for reading. Any number of
// readers may inspect the tree concurrently; if another goroutine is in
// ModifyWidgets, this waits until it returns.
func (d *Dsp) Widgets(fn func([]Widget)) {
	d.widgetsMu.RLock()
	defer d.widgetsMu.RUnlock()
	fn(d.widgets)
}

// ModifyWidgets calls fn with exclusive access to the widget tree, e.g.
// to switch the visible child of a tab box. Zone values do not need this:
// Zone.Set is safe under the read lock.
func (d *Dsp) ModifyWidgets(fn func([]Widget)) {
	d.widgetsMu.Lock()
	defer d.widgetsMu.Unlock()
	fn(d.widgets)
}

// WriteZones serializes every leaf's current value into dst, keyed by the
// leaf's /-joined label path. A closed wrapper leaves dst untouched.
func (d *Dsp) WriteZones(dst map[string]string) {
	d.lifeMu.RLock()
	defer d.lifeMu.RUnlock()
	if d.instance == nil {
		return
	}
	d.widgetsMu.RLock()
	defer d.widgetsMu.RUnlock()
	WriteZones(d.widgets, dst)
}

// LoadZones restores zone values from a persisted map. Paths that resolve
// are applied even when others fail; the returned *ZoneError lists every
// missing and unparsable path.
func (d *Dsp) LoadZones(src map[string]string) error {
	d.lifeMu.RLock()
	defer d.lifeMu.RUnlock()
	if d.instance == nil {
		return nil
	}
	// Zone writes do not mutate the tree structure.
	d.widgetsMu.RLock()
	defer d.widgetsMu.RUnlock()
	return LoadZones(d.widgets, src)
}

// MIDIEvent is one timestamped raw 3-byte message, block-relative, as
// supplied by the audio callback.
type MIDIEvent struct {
	Offset float64
	Msg    [3]byte
}

// HandleMIDI forwards one timestamped raw 3-byte MIDI message to the
// unit. All messages for a block must be delivered before Process.
func (d *Dsp) HandleMIDI(offset float64, msg [3]byte) {
	d.lifeMu.RLock()
	defer d.lifeMu.RUnlock()
	if d.instance == nil {
		return
	}
	d.instance.HandleMIDI(offset, msg)
}

// Sync drives the unit's transport for the upcoming block: a Start event
// on the silence-to-playing edge, a Stop event on the opposite edge, and
// while playing a 24 PPQN clock derived from clock (nil when the host
// provides no tempo). Event offsets are block-relative, never absolute.
func (d *Dsp) Sync(playing bool, clock *ClockData) {
	d.lifeMu.RLock()
	defer d.lifeMu.RUnlock()
	if d.instance == nil {
		return
	}
	d.sync(playing, clock)
}

// sync is called with lifeMu held.
func (d *Dsp) sync(playing bool, clock *ClockData) {
	was := d.playing.Load()
	if !playing {
		if was {
			d.instance.HandleSync(0, SyncStop)
			d.playing.Store(false)
		}
		return
	}
	if !was {
		d.instance.HandleSync(0, SyncStart)
		d.playing.Store(true)
	}
	if clock != nil {
		eachPulse(d.info.SampleRate, *clock, func(offset int64) {
			d.instance.HandleSync(float64(offset), SyncClock)
		})
	}
}

// Process computes one block in place. It overwrites the first
// max(NumInputs, NumOutputs) buffers and leaves any extra buffers
// untouched. Passing fewer buffers is an integration bug and panics. All
// MIDI and sync events for the block must have been delivered already; if
// another goroutine is in Process, this waits until it returns.
func (d *Dsp) Process(buffers [][]float32) {
	if len(buffers) < d.chans {
		panic(fmt.Sprintf("faust: process needs %d buffer(s), got %d", d.chans, len(buffers)))
	}
	d.lifeMu.RLock()
	defer d.lifeMu.RUnlock()
	if d.instance == nil {
		return
	}
	d.compute(buffers)
}

// ProcessBlock runs one block end to end: MIDI delivery, transport sync,
// then compute, with the native handles pinned for the whole sequence. A
// concurrent Close waits until the block finishes; a wrapper already
// closed reports false and leaves the buffers untouched. This is the call
// an audio thread makes once per block.
func (d *Dsp) ProcessBlock(buffers [][]float32, midi []MIDIEvent, playing bool, clock *ClockData) bool {
	if len(buffers) < d.chans {
		panic(fmt.Sprintf("faust: process needs %d buffer(s), got %d", d.chans, len(buffers)))
	}
	d.lifeMu.RLock()
	defer d.lifeMu.RUnlock()
	if d.instance == nil {
		return false
	}
	for _, e := range midi {
		d.instance.HandleMIDI(e.Offset, e.Msg)
	}
	d.sync(playing, clock)
	d.compute(buffers)
	return true
}

// compute is called with lifeMu held.
func (d *Dsp) compute(buffers [][]float32) {
	d.computeMu.Lock()
	defer d.computeMu.Unlock()
	frames := 0
	if len(buffers) > 0 {
		frames = len(buffers[0])
	}
	d.instance.Compute(frames, buffers[:d.chans])
}

// Close destroys the instance and then the factory, in that order. It
// waits for an in-flight block on any other goroutine; afterwards every
// call into the wrapper is a harmless no-op. Cache artifacts on disk are
// unaffected.
func (d *Dsp) Close() error {
	d.lifeMu.Lock()
	defer d.lifeMu.Unlock()
	var first error
	if d.instance != nil {
		first = d.instance.Close()
		d.instance = nil
	}
	if d.factory != nil {
		if err := d.factory.Close(); first == nil {
			first = err
		}
		d.factory = nil
	}
	return first
}
