// Package bus provides fixed-size multichannel sample buffers which can
// change their number of channels with up- and down-mixing.
//
// All channels of a bus share the same length, which is the block size of
// the graph that owns it. The bus never changes its size after creation,
// only the number of channels can be renegotiated.
package bus

import (
	"fmt"

	"github.com/viterin/vek/vek32"

	"pipelined.dev/audiograph/signal"
)

// Interpretation defines how channels are mapped when the number of
// channels of two buses differ.
type Interpretation int

const (
	// Speakers uses standard channel layouts to up- and down-mix.
	Speakers Interpretation = iota
	// Discrete copies channels by index, zero-fills or drops the rest.
	Discrete
)

func (i Interpretation) String() string {
	switch i {
	case Speakers:
		return "speakers"
	case Discrete:
		return "discrete"
	}
	return fmt.Sprintf("Interpretation(%d)", int(i))
}

// Bus is a non-interleaved multichannel buffer of fixed size.
type Bus struct {
	channels   signal.Float32
	size       int
	sampleRate int
	scratch    []float32 // used for scaled sums.
}

// New returns a silent bus.
func New(numberOfChannels, size, sampleRate int) *Bus {
	return &Bus{
		channels:   signal.EmptyFloat32(numberOfChannels, size),
		size:       size,
		sampleRate: sampleRate,
		scratch:    make([]float32, size),
	}
}

// NumberOfChannels returns current number of channels.
func (b *Bus) NumberOfChannels() int {
	return b.channels.NumChannels()
}

// Size returns number of samples per channel.
func (b *Bus) Size() int {
	return b.size
}

// SampleRate of the bus.
func (b *Bus) SampleRate() int {
	return b.sampleRate
}

// Channel returns the samples of channel i. The slice is owned by the bus.
func (b *Bus) Channel(i int) []float32 {
	return b.channels[i]
}

// Channels returns all samples. The data is owned by the bus.
func (b *Bus) Channels() signal.Float32 {
	return b.channels
}

// SetNumberOfChannels changes the number of channels. Existing signal is
// mixed into the new layout according to interpretation. Calls with
// unchanged number of channels do nothing.
func (b *Bus) SetNumberOfChannels(numberOfChannels int, interpretation Interpretation) {
	if numberOfChannels == b.NumberOfChannels() {
		return
	}
	channels := signal.EmptyFloat32(numberOfChannels, b.size)
	mix(channels, b.channels, interpretation, b.scratch)
	b.channels = channels
}

// Zeros sets every sample of every channel to zero.
func (b *Bus) Zeros() {
	for i := range b.channels {
		vek32.Zeros_Into(b.channels[i], b.size)
	}
}

// CopyFrom replaces the signal of this bus with the signal of src mixed
// into this bus layout.
func (b *Bus) CopyFrom(src *Bus, interpretation Interpretation) {
	b.Zeros()
	b.SumFrom(src, interpretation)
}

// SumFrom adds the signal of src, mixed into this bus layout, to the
// signal of this bus.
func (b *Bus) SumFrom(src *Bus, interpretation Interpretation) {
	if src.size != b.size {
		panic(fmt.Sprintf("bus size mismatch: %d != %d", src.size, b.size))
	}
	mix(b.channels, src.channels, interpretation, b.scratch)
}
