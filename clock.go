package faust

import "math"

// SyncMsg is one transport event forwarded to a compiled unit.
type SyncMsg uint8

const (
	// SyncStart marks the silence-to-playing transition.
	SyncStart SyncMsg = iota
	// SyncStop marks the playing-to-silence transition.
	SyncStop
	// SyncClock is one tick of the 24 pulses-per-quarter-note clock.
	SyncClock
)

// ClockData describes the host transport for the audio block about to be
// computed.
type ClockData struct {
	// Tempo in beats per minute.
	Tempo float64
	// BlockSize is the number of samples in the block.
	BlockSize int
	// SamplePos is the absolute sample position of the block's first
	// sample within the track.
	SamplePos int64
}

// pulsePeriod returns the length of one 24 PPQN clock pulse in samples.
func pulsePeriod(sampleRate int, tempo float64) int64 {
	return int64(math.Round(float64(sampleRate) * 60 / tempo / 24))
}

// eachPulse calls fn for every clock pulse falling inside the block, with
// the pulse's block-relative sample offset. The pulse grid is anchored to
// the absolute sample position, never to block boundaries, keeping
// downstream sequencer-sync consumers phase-locked across blocks.
func eachPulse(sampleRate int, c ClockData, fn func(offset int64)) {
	if c.Tempo <= 0 {
		return
	}
	period := pulsePeriod(sampleRate, c.Tempo)
	if period <= 0 {
		return
	}
	var next int64
	if rem := c.SamplePos % period; rem != 0 {
		next = period - rem
	}
	for ; next < int64(c.BlockSize); next += period {
		fn(next)
	}
}
