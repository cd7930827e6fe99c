// Package signal provides an API to manipulate digital signals. It allows to:
// 	- allocate non-interleaved float32 sample matrices
//	- convert non-interleaved data to interleaved ints and back
//	- compute durations of sample counts
package signal

import (
	"math"
	"time"
)

// Float32 is a non-interleaved float32 signal. First dimension is for
// channels, second is for samples.
type Float32 [][]float32

const (
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// divider is used when int to float conversion is done.
func (bitDepth BitDepth) divider() int {
	switch bitDepth {
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// EmptyFloat32 returns an empty buffer of specified dimensions.
func EmptyFloat32(numChannels int, bufferSize int) Float32 {
	result := make([][]float32, numChannels)
	for i := range result {
		result[i] = make([]float32, bufferSize)
	}
	return result
}

// NumChannels returns number of channels in this sample slice.
func (floats Float32) NumChannels() int {
	return len(floats)
}

// Size returns number of samples in single channel of this sample slice.
func (floats Float32) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// AsInterInt converts float32 signal to interleaved int. Samples are
// clipped to [-1, 1] before conversion.
func (floats Float32) AsInterInt(bitDepth BitDepth) []int {
	var numChannels int
	if numChannels = len(floats); numChannels == 0 {
		return nil
	}

	// determine the multiplier for bit depth conversion
	multiplier := float64(bitDepth.multiplier())

	size := floats.Size()
	ints := make([]int, size*numChannels)
	for j := range floats {
		for i, v := range floats[j] {
			if i == size {
				break
			}
			ints[i*numChannels+j] = int(clip(float64(v)) * multiplier)
		}
	}
	return ints
}

// AsFloat32 converts interleaved int signal to float32.
func (ints InterInt) AsFloat32() Float32 {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	floats := make([][]float32, ints.NumChannels)
	bufSize := int(math.Ceil(float64(len(ints.Data)) / float64(ints.NumChannels)))

	// determine the divider for bit depth conversion
	divider := float64(ints.BitDepth.divider())

	for i := range floats {
		floats[i] = make([]float32, bufSize)
		pos := 0
		for j := i; j < len(ints.Data); j = j + ints.NumChannels {
			floats[i][pos] = float32(float64(ints.Data[j]) / divider)
			pos++
		}
	}
	return floats
}

func clip(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
