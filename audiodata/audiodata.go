// Package audiodata defines the plain structure used to exchange rendered
// audio between the engine and buffer implementations.
package audiodata

import (
	"errors"
	"fmt"

	"pipelined.dev/audiograph/signal"
)

// ErrInvalidData is returned when channel data doesn't match the declared
// shape of the artifact.
var ErrInvalidData = errors.New("invalid audio data")

// AudioData is a non-interleaved multichannel signal with its format.
type AudioData struct {
	NumberOfChannels int
	Length           int
	SampleRate       int
	ChannelData      [][]float32
}

// Buffer is any audio buffer that can be converted into AudioData.
type Buffer interface {
	NumberOfChannels() int
	SampleRate() int
	ChannelData(channel int) []float32
}

// New wraps channel data. Length is taken from the first channel.
func New(channelData [][]float32, sampleRate int) *AudioData {
	return &AudioData{
		NumberOfChannels: len(channelData),
		Length:           signal.Float32(channelData).Size(),
		SampleRate:       sampleRate,
		ChannelData:      channelData,
	}
}

// From copies the content of the buffer.
func From(b Buffer) *AudioData {
	channelData := make([][]float32, b.NumberOfChannels())
	for i := range channelData {
		src := b.ChannelData(i)
		channelData[i] = make([]float32, len(src))
		copy(channelData[i], src)
	}
	return New(channelData, b.SampleRate())
}

// Validate checks that the number of channels and every channel length
// match the declared values.
func (d *AudioData) Validate() error {
	if d.SampleRate <= 0 {
		return fmt.Errorf("sample rate %d: %w", d.SampleRate, ErrInvalidData)
	}
	if d.NumberOfChannels != len(d.ChannelData) {
		return fmt.Errorf("%d channels declared, %d provided: %w", d.NumberOfChannels, len(d.ChannelData), ErrInvalidData)
	}
	for i, ch := range d.ChannelData {
		if len(ch) != d.Length {
			return fmt.Errorf("channel %d has %d samples, expected %d: %w", i, len(ch), d.Length, ErrInvalidData)
		}
	}
	return nil
}

// Duration returns the duration of the signal in seconds.
func (d *AudioData) Duration() float64 {
	if d.SampleRate == 0 {
		return 0
	}
	return float64(d.Length) / float64(d.SampleRate)
}

// Clone returns a deep copy.
func (d *AudioData) Clone() *AudioData {
	result := *d
	result.ChannelData = make([][]float32, len(d.ChannelData))
	for i := range d.ChannelData {
		result.ChannelData[i] = append([]float32(nil), d.ChannelData[i]...)
	}
	return &result
}

func (d *AudioData) String() string {
	return fmt.Sprintf("%d channels, %d frames at %d Hz", d.NumberOfChannels, d.Length, d.SampleRate)
}
