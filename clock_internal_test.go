package faust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPulsePeriod(t *testing.T) {
	tests := []struct {
		sampleRate int
		tempo      float64
		expected   int64
	}{
		{48000, 120, 1000},
		{44100, 120, 919},  // 918.75 rounds up
		{44100, 130, 848},  // 848.07...
		{48000, 174, 690},  // 689.65 rounds up
		{96000, 60, 4000},
	}
	for _, c := range tests {
		assert.Equal(t, c.expected, pulsePeriod(c.sampleRate, c.tempo))
	}
}

func TestEachPulse(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		clock      ClockData
		expected   []int64
	}{
		{
			name:       "grid-aligned block start",
			sampleRate: 48000,
			clock:      ClockData{Tempo: 120, BlockSize: 512, SamplePos: 0},
			expected:   []int64{0},
		},
		{
			name:       "mid-period block start",
			sampleRate: 48000,
			clock:      ClockData{Tempo: 120, BlockSize: 512, SamplePos: 999},
			expected:   []int64{1},
		},
		{
			name:       "several pulses per block",
			sampleRate: 48000,
			clock:      ClockData{Tempo: 120, BlockSize: 2048, SamplePos: 0},
			expected:   []int64{0, 1000, 2000},
		},
		{
			name:       "grid anchored to track, not block",
			sampleRate: 48000,
			clock:      ClockData{Tempo: 120, BlockSize: 512, SamplePos: 512},
			expected:   []int64{488},
		},
		{
			name:       "no pulse in block",
			sampleRate: 48000,
			clock:      ClockData{Tempo: 120, BlockSize: 256, SamplePos: 100},
			expected:   nil,
		},
		{
			name:       "zero tempo emits nothing",
			sampleRate: 48000,
			clock:      ClockData{Tempo: 0, BlockSize: 512, SamplePos: 0},
			expected:   nil,
		},
		{
			name:       "negative tempo emits nothing",
			sampleRate: 48000,
			clock:      ClockData{Tempo: -120, BlockSize: 512, SamplePos: 0},
			expected:   nil,
		},
	}
	for _, c := range tests {
		t.Run(c.name, func(t *testing.T) {
			var offsets []int64
			eachPulse(c.sampleRate, c.clock, func(offset int64) {
				offsets = append(offsets, offset)
			})
			assert.Equal(t, c.expected, offsets)
		})
	}
}
