package tone_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/audiograph/graph"
	"pipelined.dev/audiograph/internal/tone"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/wave"
)

func TestSine(t *testing.T) {
	const (
		sampleRate = 800
		blockSize  = 16
	)
	w := wave.New(nil, nil)
	w.GenerateBasicWaveform(wave.Sine)
	// 8 samples per period.
	osc := tone.New(w, sampleRate/8, 0.5)

	g := graph.New(sampleRate, 2, graph.WithBlockSize(blockSize), graph.WithLogger(log.Silent()))
	id := g.AddNode(osc, tone.Config())
	g.Connect(id, 0, g.Destination(), 0)

	result := signal.EmptyFloat32(2, 3*blockSize)
	for i := 0; i < 3; i++ {
		g.Render(result, i*blockSize)
	}
	for c := range result {
		for i, v := range result[c] {
			expected := 0.5 * math.Sin(2*math.Pi*float64(i)/8)
			assert.InDelta(t, expected, v, 1e-5, "channel %d sample %d", c, i)
		}
	}
}

func TestSquareIsBounded(t *testing.T) {
	w := wave.New(nil, nil)
	w.GenerateBasicWaveform(wave.Square)
	osc := tone.New(w, 441, 1)
	g := graph.New(44100, 1, graph.WithLogger(log.Silent()))
	id := g.AddNode(osc, tone.Config())
	g.Connect(id, 0, g.Destination(), 0)

	result := signal.EmptyFloat32(1, graph.DefaultBlockSize*4)
	for i := 0; i < 4; i++ {
		g.Render(result, i*graph.DefaultBlockSize)
	}
	var peak float64
	for _, v := range result[0] {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	assert.LessOrEqual(t, peak, 1.0+1e-6)
	assert.Greater(t, peak, 0.8)
}
