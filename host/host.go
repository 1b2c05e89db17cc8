// Package host glues a compiled unit to a live audio driver. It owns the
// current faust.Dsp, reloads scripts entirely off the audio thread and
// publishes the result with a single atomic swap, so the audio thread
// never observes a partially constructed wrapper.
package host

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/pipelined/faust"
	"github.com/pipelined/faust/cache"
	"github.com/pipelined/faust/log"
)

// Config selects what to load and how.
type Config struct {
	Script      string
	ImportPaths []string
	SampleRate  int
	Mode        faust.LoadMode
}

// MIDIEvent is one timestamped raw 3-byte message, block-relative, as
// supplied by the audio callback.
type MIDIEvent = faust.MIDIEvent

// Host owns the current Dsp. The audio thread only ever reads the atomic
// pointer; Load runs on the control thread and publishes a fully
// constructed wrapper or nothing at all.
type Host struct {
	gateway faust.Gateway
	cache   *cache.Cache
	log     *logrus.Logger

	current atomic.Pointer[faust.Dsp]

	mu      sync.Mutex
	restore map[string]string
}

// New returns a host compiling through g, memoizing factories in c when
// it is non-nil. The gateway's one-time process-wide setup runs here.
func New(g faust.Gateway, c *cache.Cache) *Host {
	faust.InitGlobals(g)
	return &Host{gateway: g, cache: c, log: log.GetLogger()}
}

// Current returns the Dsp the next audio block will use, or nil.
func (h *Host) Current() *faust.Dsp { return h.current.Load() }

// Channels returns how many buffers the current Dsp overwrites per
// block, or 0 when none is loaded.
func (h *Host) Channels() int {
	if d := h.current.Load(); d != nil {
		i := d.Info()
		if i.NumInputs > i.NumOutputs {
			return i.NumInputs
		}
		return i.NumOutputs
	}
	return 0
}

// RestoreZones stores a persisted zone map to be applied on every
// following successful Load. The map is kept around because hosts may
// retrigger loading several times in rapid succession while restoring
// state.
func (h *Host) RestoreZones(zones map[string]string) {
	m := make(map[string]string, len(zones))
	for k, v := range zones {
		m[k] = v
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.restore = m
}

// SaveZones snapshots the current Dsp's zone values, or nil when no unit
// is loaded.
func (h *Host) SaveZones() map[string]string {
	d := h.current.Load()
	if d == nil {
		return nil
	}
	m := make(map[string]string)
	d.WriteZones(m)
	return m
}

// Load builds a new Dsp from cfg and publishes it to the audio thread.
// On any failure the previous Dsp stays active and untouched, and the
// diagnostic is returned. Never call from the audio thread: loading
// compiles and touches the disk.
func (h *Host) Load(cfg Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, err := faust.Load(h.gateway, h.cache, cfg.Script, cfg.ImportPaths, cfg.SampleRate, cfg.Mode)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"script": cfg.Script,
		}).Infof("load failed: %v", err)
		return err
	}
	if len(h.restore) > 0 {
		if err := d.LoadZones(h.restore); err != nil {
			d.Close()
			h.log.WithFields(logrus.Fields{
				"script": cfg.Script,
			}).Infof("restoring state failed: %v", err)
			return err
		}
	}
	info := d.Info()
	h.log.WithFields(logrus.Fields{
		"script":      cfg.Script,
		"sample_rate": info.SampleRate,
		"inputs":      info.NumInputs,
		"outputs":     info.NumOutputs,
		"nvoices":     cfg.Mode.Voices(),
	}).Debug("dsp loaded")
	h.swap(d)
	return nil
}

// Unload drops the current Dsp, if any.
func (h *Host) Unload() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.swap(nil)
}

func (h *Host) swap(d *faust.Dsp) {
	if old := h.current.Swap(d); old != nil {
		// Close waits on the old wrapper's lifetime lock, so an audio
		// block in flight finishes before its zones die; an audio thread
		// that already picked up the old pointer then finds a closed,
		// inert wrapper instead of dangling handles.
		old.Close()
	}
}

// Process runs one block through the current Dsp: MIDI first, then
// transport sync, then compute. The caller must supply at least
// Channels() buffers of equal length. Returns false, leaving the buffers
// untouched, when no unit is loaded or the picked-up unit was unloaded
// concurrently.
func (h *Host) Process(buffers [][]float32, midi []MIDIEvent, playing bool, clock *faust.ClockData) bool {
	d := h.current.Load()
	if d == nil {
		return false
	}
	return d.ProcessBlock(buffers, midi, playing, clock)
}
