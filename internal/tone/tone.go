// Package tone provides a wavetable oscillator node.
package tone

import (
	"math"

	"github.com/viterin/vek/vek32"

	"pipelined.dev/audiograph/bus"
	"pipelined.dev/audiograph/graph"
	"pipelined.dev/audiograph/wave"
)

// TableSize is the number of samples in a single period of the wave table.
const TableSize = 2048

// Oscillator renders a periodic wave with constant frequency and gain into
// every channel of its outputs.
type Oscillator struct {
	table     []float32
	frequency float64
	gain      float32
	phase     float64 // position in the table.
}

// New returns an oscillator of the periodic wave.
func New(w *wave.Periodic, frequency float64, gain float32) *Oscillator {
	return &Oscillator{
		table:     w.Table(TableSize),
		frequency: frequency,
		gain:      gain,
	}
}

// Config returns the configuration of a mono oscillator node.
func Config() graph.NodeConfig {
	return graph.NodeConfig{
		Outputs:        1,
		OutputChannels: []int{1},
	}
}

// Process implements graph.Processor.
func (o *Oscillator) Process(b graph.Block, _, outputs []*bus.Bus) {
	increment := o.frequency * TableSize / float64(b.SampleRate)
	phase := o.phase
	for _, out := range outputs {
		channels := out.Channels()
		if len(channels) == 0 {
			continue
		}
		phase = o.phase
		first := channels[0]
		for i := range first {
			first[i] = o.sample(phase)
			phase = math.Mod(phase+increment, TableSize)
		}
		vek32.MulNumber_Inplace(first, o.gain)
		for _, ch := range channels[1:] {
			copy(ch, first)
		}
	}
	o.phase = phase
}

// sample reads the table with linear interpolation.
func (o *Oscillator) sample(phase float64) float32 {
	i := int(phase)
	frac := float32(phase - float64(i))
	next := i + 1
	if next == TableSize {
		next = 0
	}
	return o.table[i] + frac*(o.table[next]-o.table[i])
}
