// Package mock provides mocks for graph nodes and allows to execute
// integration tests.
package mock

import (
	"pipelined.dev/audiograph/bus"
	"pipelined.dev/audiograph/graph"
	"pipelined.dev/audiograph/signal"
)

// Source mocks a node without inputs that writes a constant value into
// every channel of every output.
type Source struct {
	counter
	Value float32
}

// Process implements graph.Processor.
func (m *Source) Process(b graph.Block, _, outputs []*bus.Bus) {
	for _, out := range outputs {
		for _, ch := range out.Channels() {
			for i := range ch {
				ch[i] = m.Value
			}
		}
	}
	m.advance(b.Size)
}

// ValueParam returns a function that changes the value of the source.
func (m *Source) ValueParam(v float32) func() {
	return func() {
		m.Value = v
	}
}

// Ramp mocks a node without inputs that writes a signal depending on the
// absolute frame position: sample i of channel c is i*Step + c.
type Ramp struct {
	counter
	Step float32
}

// Process implements graph.Processor.
func (m *Ramp) Process(b graph.Block, _, outputs []*bus.Bus) {
	start := int(b.Frame-1) * b.Size
	for _, out := range outputs {
		for c, ch := range out.Channels() {
			for i := range ch {
				ch[i] = float32(start+i)*m.Step + float32(c)
			}
		}
	}
	m.advance(b.Size)
}

// Passthrough mocks a node that copies input i into output i, mixing
// channels with speakers interpretation. Outputs without inputs are
// silent.
type Passthrough struct {
	counter
}

// Process implements graph.Processor.
func (m *Passthrough) Process(b graph.Block, inputs, outputs []*bus.Bus) {
	for i, out := range outputs {
		if i < len(inputs) {
			out.CopyFrom(inputs[i], bus.Speakers)
		} else {
			out.Zeros()
		}
	}
	m.advance(b.Size)
}

// Sink mocks a node that records the signal of its first input.
// Buffer is not thread-safe, so should not be checked while rendering.
type Sink struct {
	counter
	buffer signal.Float32
}

// Process implements graph.Processor.
func (m *Sink) Process(b graph.Block, inputs, _ []*bus.Bus) {
	if len(inputs) > 0 {
		in := inputs[0].Channels()
		if m.buffer == nil || m.buffer.NumChannels() != in.NumChannels() {
			m.buffer = make(signal.Float32, in.NumChannels())
		}
		for c := range in {
			m.buffer[c] = append(m.buffer[c], in[c]...)
		}
	}
	m.advance(b.Size)
}

// Buffer returns recorded signal.
func (m *Sink) Buffer() signal.Float32 {
	return m.buffer
}

// counter counts processed blocks and samples.
type counter struct {
	blocks  int
	samples int
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.blocks++
	c.samples = c.samples + size
}

// Count returns blocks and samples metrics.
func (c *counter) Count() (int, int) {
	return c.blocks, c.samples
}

// Reset resets counter's metrics.
func (c *counter) Reset() {
	c.blocks, c.samples = 0, 0
}
