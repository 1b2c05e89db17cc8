// Package portaudio plays a host's current unit through the default
// output device.
package portaudio

import (
	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/faust"
	"github.com/pipelined/faust/host"
)

// Player pulls audio blocks from a host and writes them to the default
// output device. The transport it reports to the unit is always playing,
// anchored at sample zero.
type Player struct {
	host *host.Host

	buf    []float32   // interleaved device buffer
	blocks [][]float32 // per-channel block buffers, reused across blocks
	stream *portaudio.Stream

	sampleRate  int
	bufferSize  int
	numChannels int
	tempo       float64
	pos         int64
}

// NewPlayer returns a player pulling blocks of bufferSize samples from h.
func NewPlayer(h *host.Host, sampleRate, bufferSize, numChannels int, tempo float64) *Player {
	return &Player{
		host:        h,
		sampleRate:  sampleRate,
		bufferSize:  bufferSize,
		numChannels: numChannels,
		tempo:       tempo,
	}
}

// Start initializes a portaudio api and opens the default output stream.
func (p *Player) Start() error {
	p.buf = make([]float32, p.bufferSize*p.numChannels)
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, p.numChannels, float64(p.sampleRate), p.bufferSize, &p.buf)
	if err != nil {
		return err
	}
	p.stream = stream
	return stream.Start()
}

// Write computes the next block and writes it to the device. Silence is
// written while no unit is loaded. A mono unit is duplicated across the
// device channels.
func (p *Player) Write() error {
	d := p.host.Current()
	chans, outs := p.numChannels, 0
	if d != nil {
		info := d.Info()
		outs = info.NumOutputs
		if n := max(info.NumInputs, info.NumOutputs); n > chans {
			chans = n
		}
	}
	p.ensureBlocks(chans)
	for _, b := range p.blocks {
		for i := range b {
			b[i] = 0
		}
	}
	if d != nil {
		// A reload racing this block closes d and ProcessBlock reports
		// false; the zeroed buffers then play as silence.
		d.ProcessBlock(p.blocks, nil, true, &faust.ClockData{
			Tempo:     p.tempo,
			BlockSize: p.bufferSize,
			SamplePos: p.pos,
		})
	}
	for i := 0; i < p.bufferSize; i++ {
		for j := 0; j < p.numChannels; j++ {
			src := j
			if outs > 0 && src >= outs {
				src = outs - 1
			}
			p.buf[i*p.numChannels+j] = p.blocks[src][i]
		}
	}
	p.pos += int64(p.bufferSize)
	return p.stream.Write()
}

// Flush terminates portaudio structures.
func (p *Player) Flush() error {
	if err := p.stream.Stop(); err != nil {
		return err
	}
	if err := p.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}

func (p *Player) ensureBlocks(chans int) {
	if chans < p.numChannels {
		chans = p.numChannels
	}
	for len(p.blocks) < chans {
		p.blocks = append(p.blocks, make([]float32, p.bufferSize))
	}
}
