package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/audiograph/signal"
)

func TestInterIntsAsFloat32(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    [][]float32
	}{
		{
			ints:        []int{1, 2, 1, 2, 1, 2, 1, 2},
			numChannels: 2,
			expected: [][]float32{
				{1, 1, 1, 1},
				{2, 2, 2, 2},
			},
		},
		{
			ints:        []int{1, 2, 1, 2, 1},
			numChannels: 2,
			expected: [][]float32{
				{1, 1, 1},
				{2, 2, 0},
			},
		},
		{
			ints:        []int{math.MaxInt16, -math.MaxInt16},
			numChannels: 2,
			bitDepth:    signal.BitDepth16,
			expected: [][]float32{
				{1},
				{-1},
			},
		},
		{
			ints:     nil,
			expected: nil,
		},
		{
			ints:     []int{1, 2, 3},
			expected: nil,
		},
	}

	for _, test := range tests {
		ints := signal.InterInt{
			Data:        test.ints,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
		}
		result := ints.AsFloat32()
		assert.Equal(t, len(test.expected), len(result))
		for i := range test.expected {
			for j, val := range test.expected[i] {
				assert.Equal(t, val, result[i][j])
			}
		}
	}
}

func TestFloat32AsInterInt(t *testing.T) {
	tests := []struct {
		floats   [][]float32
		bitDepth signal.BitDepth
		expected []int
	}{
		{
			floats: [][]float32{
				{1, 1, 1},
				{0, 0, 0},
			},
			expected: []int{1, 0, 1, 0, 1, 0},
		},
		{
			floats: [][]float32{
				{1, 1, 1},
				{1},
			},
			expected: []int{1, 1, 1, 0, 1, 0},
		},
		{
			floats: [][]float32{
				{0.5},
				{2},
			},
			bitDepth: signal.BitDepth16,
			expected: []int{int(0.5 * (math.MaxInt16 - 1)), math.MaxInt16 - 1},
		},
		{
			floats:   nil,
			expected: nil,
		},
		{
			floats: [][]float32{
				{},
				{},
			},
			expected: []int{},
		},
	}

	for _, test := range tests {
		ints := signal.Float32(test.floats).AsInterInt(test.bitDepth)
		assert.Equal(t, len(test.expected), len(ints))
		for i := range test.expected {
			assert.Equal(t, test.expected[i], ints[i])
		}
	}
}

func TestEmptyFloat32(t *testing.T) {
	b := signal.EmptyFloat32(3, 16)
	assert.Equal(t, 3, b.NumChannels())
	assert.Equal(t, 16, b.Size())
	assert.Equal(t, 0, signal.Float32(nil).Size())
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(48000, 24000))
}
