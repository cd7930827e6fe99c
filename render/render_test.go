package render_test

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/audiograph/audiodata"
	"pipelined.dev/audiograph/graph"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/metric"
	"pipelined.dev/audiograph/mock"
	"pipelined.dev/audiograph/render"
)

const (
	blockSize = 8
	// every block lasts exactly 0.125 seconds.
	sampleRate = 64
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newSession creates a session that renders a stereo ramp.
func newSession(length int, options ...render.Option) (*render.Scheduler, *graph.Graph, *mock.Ramp, graph.NodeID) {
	g := graph.New(sampleRate, 2,
		graph.WithBlockSize(blockSize),
		graph.WithLogger(log.Silent()),
	)
	ramp := &mock.Ramp{Step: 0.01}
	src := g.AddNode(ramp, graph.NodeConfig{Outputs: 1, OutputChannels: []int{2}})
	g.Connect(src, 0, g.Destination(), 0)
	options = append([]render.Option{render.WithLogger(log.Silent())}, options...)
	return render.New(g, 2, length, options...), g, ramp, src
}

// reference renders the ramp without any suspensions.
func reference(t *testing.T, length int) *audiodata.AudioData {
	t.Helper()
	m := &render.Manual{}
	s, _, _, _ := newSession(length, render.WithDeferrer(m))
	result := s.StartRendering()
	m.Drain()
	data := result.Data()
	require.NotNil(t, data)
	return data
}

func TestStartRenderingIdempotent(t *testing.T) {
	m := &render.Manual{}
	s, _, ramp, _ := newSession(40, render.WithDeferrer(m))
	assert.Equal(t, render.Initial, s.State())

	first := s.StartRendering()
	second := s.StartRendering()
	assert.Same(t, first, second)
	assert.Equal(t, render.Running, s.State())
	assert.Equal(t, 1, m.Len())

	m.Drain()
	assert.Same(t, first, s.StartRendering())
	assert.Equal(t, render.Closed, s.State())
	assert.Equal(t, 0, m.Len())
	blocks, samples := ramp.Count()
	assert.Equal(t, 5, blocks)
	assert.Equal(t, 40, samples)
}

func TestPadding(t *testing.T) {
	m := &render.Manual{}
	s, _, ramp, _ := newSession(9, render.WithDeferrer(m))
	var completed []*audiodata.AudioData
	s.OnComplete(func(d *audiodata.AudioData) {
		completed = append(completed, d)
	})
	result := s.StartRendering()
	assert.Nil(t, result.Data())
	m.Drain()

	data := result.Data()
	require.NotNil(t, data)
	assert.Equal(t, 2, data.NumberOfChannels)
	assert.Equal(t, 9, data.Length)
	assert.Equal(t, sampleRate, data.SampleRate)
	assert.NoError(t, data.Validate())
	for c, ch := range data.ChannelData {
		assert.Equal(t, 9, len(ch))
		assert.Equal(t, 9, cap(ch))
		for i, v := range ch {
			assert.InDelta(t, float64(i)*0.01+float64(c), v, 1e-5)
		}
	}
	// the padded frames are rendered too.
	blocks, _ := ramp.Count()
	assert.Equal(t, 2, blocks)
	require.Len(t, completed, 1)
	assert.Same(t, data, completed[0])
}

func TestSuspendBeforeFirstBlock(t *testing.T) {
	m := &render.Manual{}
	s, _, ramp, _ := newSession(100, render.WithDeferrer(m))
	suspended := s.Suspend(0)
	result := s.StartRendering()
	m.Drain()

	assert.NoError(t, render.Wait(suspended))
	assert.Equal(t, render.Suspended, s.State())
	blocks, _ := ramp.Count()
	assert.Equal(t, 0, blocks)
	assert.Nil(t, result.Data())

	assert.NoError(t, render.Wait(s.Resume()))
	m.Drain()
	assert.Equal(t, render.Closed, s.State())
	assert.Equal(t, reference(t, 100), result.Data())
}

func TestSuspendResumeIdentical(t *testing.T) {
	m := &render.Manual{}
	s, _, _, _ := newSession(100, render.WithDeferrer(m), render.WithIterations(3))
	result := s.StartRendering()
	for _, at := range []float64{0.25, 0.3, 1.0, 1.125} {
		suspended := s.Suspend(at)
		m.Drain()
		assert.NoError(t, render.Wait(suspended))
		assert.Equal(t, render.Suspended, s.State())
		assert.GreaterOrEqual(t, s.CurrentTime(), at)
		render.Wait(s.Resume())
	}
	m.Drain()
	assert.Equal(t, reference(t, 100), result.Data())
}

func TestSuspendIsSampleAccurate(t *testing.T) {
	m := &render.Manual{}
	s, g, _, src := newSession(32, render.WithDeferrer(m))
	suspended := s.Suspend(0.25)
	result := s.StartRendering()
	m.Drain()
	require.NoError(t, render.Wait(suspended))
	assert.Equal(t, 0.25, s.CurrentTime())

	g.Disconnect(src, 0, graph.All())
	render.Wait(s.Resume())
	m.Drain()

	data := result.Data()
	require.NotNil(t, data)
	for c, ch := range data.ChannelData {
		for i, v := range ch {
			if i < 16 {
				assert.InDelta(t, float64(i)*0.01+float64(c), v, 1e-5)
			} else {
				assert.Equal(t, float32(0), v)
			}
		}
	}
}

func TestSuspendSingleRequest(t *testing.T) {
	m := &render.Manual{}
	s, _, ramp, _ := newSession(64, render.WithDeferrer(m))
	first := s.Suspend(0.5)
	second := s.Suspend(-1)
	assert.True(t, first == second)

	s.StartRendering()
	m.Drain()
	assert.NoError(t, render.Wait(first))
	// the latest time wins and negative time is clamped to zero.
	blocks, _ := ramp.Count()
	assert.Equal(t, 0, blocks)

	third := s.Suspend(0.5)
	assert.False(t, first == third)
	render.Wait(s.Resume())
	m.Drain()
	assert.NoError(t, render.Wait(third))
	blocks, _ = ramp.Count()
	assert.Equal(t, 4, blocks)
	render.Wait(s.Resume())
	m.Drain()
	assert.Equal(t, render.Closed, s.State())
}

func TestSuspendAfterCompletion(t *testing.T) {
	m := &render.Manual{}
	s, _, _, _ := newSession(16, render.WithDeferrer(m))
	beyond := s.Suspend(10)
	s.StartRendering()
	m.Drain()
	assert.True(t, errors.Is(render.Wait(beyond), render.ErrCompleted))
	assert.True(t, errors.Is(render.Wait(s.Suspend(0)), render.ErrCompleted))
}

func TestResumeNoop(t *testing.T) {
	m := &render.Manual{}
	s, _, _, _ := newSession(16, render.WithDeferrer(m))
	assert.NoError(t, render.Wait(s.Resume()))
	assert.Equal(t, render.Initial, s.State())
	assert.Equal(t, 0, m.Len())

	s.StartRendering()
	assert.NoError(t, render.Wait(s.Resume()))
	assert.Equal(t, 1, m.Len())
	m.Drain()
	assert.NoError(t, render.Wait(s.Resume()))
	assert.Equal(t, render.Closed, s.State())
	assert.Equal(t, 0, m.Len())
}

func TestClose(t *testing.T) {
	s, _, _, _ := newSession(16)
	assert.True(t, errors.Is(render.Wait(s.Close()), render.ErrNotClosable))
	assert.Equal(t, render.Initial, s.State())
}

func TestIterations(t *testing.T) {
	m := &render.Manual{}
	s, _, _, _ := newSession(64, render.WithDeferrer(m), render.WithIterations(2))
	s.StartRendering()
	assert.Equal(t, 4, m.Drain())
}

func TestZeroLength(t *testing.T) {
	m := &render.Manual{}
	s, _, ramp, _ := newSession(-5, render.WithDeferrer(m))
	assert.Equal(t, 0, s.Length())
	result := s.StartRendering()
	m.Drain()
	data := result.Data()
	require.NotNil(t, data)
	assert.Equal(t, 0, data.Length)
	assert.Equal(t, 2, data.NumberOfChannels)
	blocks, _ := ramp.Count()
	assert.Equal(t, 0, blocks)
}

func TestTickWithoutDeferrer(t *testing.T) {
	s, _, _, _ := newSession(100, render.WithDeferrer(nil), render.WithIterations(1))
	assert.Equal(t, render.Initial, s.Tick())
	result := s.StartRendering()
	ticks := 1
	for s.Tick() == render.Running {
		ticks++
	}
	assert.Equal(t, 13, ticks)
	assert.Equal(t, reference(t, 100), result.Data())
}

func TestDeferrers(t *testing.T) {
	tests := []struct {
		description string
		deferrer    func() (render.Deferrer, func())
	}{
		{
			description: "goroutines",
			deferrer: func() (render.Deferrer, func()) {
				return render.Go{}, func() {}
			},
		},
		{
			description: "queue",
			deferrer: func() (render.Deferrer, func()) {
				q := render.NewQueue()
				return q, q.Close
			},
		},
	}
	expected := reference(t, 1000)
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			d, closeFn := test.deferrer()
			defer closeFn()
			s, _, _, _ := newSession(1000, render.WithDeferrer(d), render.WithIterations(4))
			completed := make(chan *audiodata.AudioData, 1)
			s.OnComplete(func(data *audiodata.AudioData) {
				completed <- data
			})
			suspended := s.Suspend(1)
			result := s.StartRendering()
			require.NoError(t, render.Wait(suspended))
			require.NoError(t, render.Wait(s.Resume()))

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			data, err := result.Wait(ctx)
			require.NoError(t, err)
			assert.Equal(t, expected, data)
			assert.Same(t, data, <-completed)
		})
	}
}

func TestResultWaitCancelled(t *testing.T) {
	m := &render.Manual{}
	s, _, _, _ := newSession(16, render.WithDeferrer(m))
	s.Suspend(0)
	result := s.StartRendering()
	m.Drain()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := result.Wait(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

type meteredRenderer struct{}

// counter parses an integer metric value, missing values are zero.
func counter(t *testing.T, values map[string]string, name string) int64 {
	t.Helper()
	if _, ok := values[name]; !ok {
		return 0
	}
	v, err := strconv.ParseInt(values[name], 10, 64)
	require.NoError(t, err)
	return v
}

func TestMeter(t *testing.T) {
	before := metric.Get(meteredRenderer{})
	m := &render.Manual{}
	s, _, _, _ := newSession(20, render.WithDeferrer(m), render.WithMeter(metric.New(meteredRenderer{}, sampleRate)))
	suspended := s.Suspend(0.125)
	s.StartRendering()
	m.Drain()
	require.NoError(t, render.Wait(suspended))
	render.Wait(s.Resume())
	m.Drain()

	after := metric.Get(meteredRenderer{})
	delta := func(name string) int64 {
		return counter(t, after, name) - counter(t, before, name)
	}
	assert.Equal(t, int64(3), delta(metric.BlockCounter))
	assert.Equal(t, int64(24), delta(metric.FrameCounter))
	assert.Equal(t, int64(1), delta(metric.RenderCounter))
	assert.Equal(t, int64(1), delta(metric.CompleteCounter))
	assert.Equal(t, int64(1), delta(metric.SuspendCounter))
}

func TestChangeAtSuspendedBoundary(t *testing.T) {
	g := graph.New(sampleRate, 1,
		graph.WithBlockSize(blockSize),
		graph.WithLogger(log.Silent()),
	)
	source := &mock.Source{Value: 0.25}
	id := g.AddNode(source, graph.NodeConfig{Outputs: 1})
	g.Connect(id, 0, g.Destination(), 0)

	m := &render.Manual{}
	s := render.New(g, 1, 32, render.WithDeferrer(m), render.WithLogger(log.Silent()))
	suspended := s.Suspend(0.25)
	result := s.StartRendering()
	m.Drain()
	require.NoError(t, render.Wait(suspended))
	blocks, samples := source.Count()
	assert.Equal(t, 2, blocks)
	assert.Equal(t, 16, samples)

	source.Reset()
	source.ValueParam(-0.5)()
	render.Wait(s.Resume())
	m.Drain()

	blocks, samples = source.Count()
	assert.Equal(t, 2, blocks)
	assert.Equal(t, 16, samples)
	data := result.Data()
	require.NotNil(t, data)
	for i, v := range data.ChannelData[0] {
		if i < 16 {
			assert.Equal(t, float32(0.25), v, "frame %d", i)
		} else {
			assert.Equal(t, float32(-0.5), v, "frame %d", i)
		}
	}
}

// rampBlock reports whether samples of a block are the ramp with offset
// added.
func rampBlock(block []float32, start int, offset float64) bool {
	for i, v := range block {
		if math.Abs(float64(v)-(float64(start+i)*0.01+offset)) > 1e-3 {
			return false
		}
	}
	return true
}

func silentBlock(block []float32) bool {
	for _, v := range block {
		if v != 0 {
			return false
		}
	}
	return true
}

func TestConcurrentMutations(t *testing.T) {
	const length = blockSize * 5000
	s, g, _, src := newSession(length, render.WithDeferrer(render.Go{}), render.WithIterations(4))
	out := g.Output(src, 0)
	destination := g.Node(g.Destination())
	result := s.StartRendering()

	done := make(chan int)
	go func() {
		var mutations int
		defer func() {
			done <- mutations
		}()
		for {
			select {
			case <-result.Done():
				return
			default:
			}
			out.Disable()
			g.Connect(src, 0, g.Destination(), 0)
			out.SetNumberOfChannels(1)
			destination.SetChannelCountMode(graph.Max)
			out.Enable()
			g.Disconnect(src, 0, graph.All())
			out.SetNumberOfChannels(2)
			destination.SetChannelCountMode(graph.Explicit)
			g.Connect(src, 0, g.Destination(), 0)
			mutations++
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	data, err := result.Wait(ctx)
	require.NoError(t, err)
	<-done
	assert.Equal(t, length, data.Length)

	// every block is rendered with a single state of the graph.
	for c, ch := range data.ChannelData {
		for start := 0; start < length; start += blockSize {
			block := ch[start : start+blockSize]
			consistent := silentBlock(block) ||
				rampBlock(block, start, float64(c)) ||
				rampBlock(block, start, 0)
			if !assert.True(t, consistent, "channel %d block at %d: %v", c, start, block) {
				return
			}
		}
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "initial", render.Initial.String())
	assert.Equal(t, "running", render.Running.String())
	assert.Equal(t, "suspended", render.Suspended.String())
	assert.Equal(t, "closed", render.Closed.String())
	assert.Equal(t, "State(7)", render.State(7).String())
}
