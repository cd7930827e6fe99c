package audiograph

import (
	"fmt"

	"pipelined.dev/audiograph/audiodata"
	"pipelined.dev/audiograph/graph"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/metric"
	"pipelined.dev/audiograph/render"
	"pipelined.dev/audiograph/wave"
)

// OfflineContext is an audio graph rendered offline into memory.
type OfflineContext struct {
	graph     *graph.Graph
	scheduler *render.Scheduler
}

type options struct {
	graph   []graph.Option
	render  []render.Option
	metrics bool
}

// Option provides a way to set functional parameters to offline context.
type Option func(*options)

// WithBlockSize sets the number of frames in a block.
func WithBlockSize(blockSize int) Option {
	return func(o *options) {
		o.graph = append(o.graph, graph.WithBlockSize(blockSize))
	}
}

// WithLogger sets logger to graph and rendering session.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.graph = append(o.graph, graph.WithLogger(logger))
		o.render = append(o.render, render.WithLogger(logger))
	}
}

// WithDeferrer sets the mechanism used to schedule rendering ticks.
func WithDeferrer(d render.Deferrer) Option {
	return func(o *options) {
		o.render = append(o.render, render.WithDeferrer(d))
	}
}

// WithIterations sets the maximum number of blocks rendered by a single
// tick.
func WithIterations(iterations int) Option {
	return func(o *options) {
		o.render = append(o.render, render.WithIterations(iterations))
	}
}

// WithMetrics enables rendering metrics. Values are available with
// metric.Get(&OfflineContext{}).
func WithMetrics() Option {
	return func(o *options) {
		o.metrics = true
	}
}

// NewOfflineContext creates a graph with numberOfChannels destination
// channels and a session that renders length frames of it. Negative length
// is treated as zero.
func NewOfflineContext(numberOfChannels, length, sampleRate int, opts ...Option) *OfflineContext {
	var o options
	for _, option := range opts {
		option(&o)
	}
	c := OfflineContext{
		graph: graph.New(sampleRate, numberOfChannels, o.graph...),
	}
	if o.metrics {
		o.render = append(o.render, render.WithMeter(metric.New(&c, sampleRate)))
	}
	c.scheduler = render.New(c.graph, numberOfChannels, length, o.render...)
	return &c
}

func (c *OfflineContext) String() string {
	return fmt.Sprintf("offline context: %d channels, %d frames at %d Hz", c.NumberOfChannels(), c.Length(), c.SampleRate())
}

// Graph returns the rendered graph.
func (c *OfflineContext) Graph() *graph.Graph {
	return c.graph
}

// Destination returns the handle of the node rendered into memory.
func (c *OfflineContext) Destination() graph.NodeID {
	return c.graph.Destination()
}

// NumberOfChannels returns the number of rendered channels.
func (c *OfflineContext) NumberOfChannels() int {
	return c.scheduler.NumberOfChannels()
}

// Length returns the number of rendered frames.
func (c *OfflineContext) Length() int {
	return c.scheduler.Length()
}

// SampleRate returns the sample rate of the graph.
func (c *OfflineContext) SampleRate() int {
	return c.graph.SampleRate()
}

// CurrentTime returns the time of the next block in seconds.
func (c *OfflineContext) CurrentTime() float64 {
	return c.graph.CurrentTime()
}

// State returns the state of the rendering session.
func (c *OfflineContext) State() render.State {
	return c.scheduler.State()
}

// OnComplete sets the listener notified when rendering is complete.
func (c *OfflineContext) OnComplete(fn func(*audiodata.AudioData)) {
	c.scheduler.OnComplete(fn)
}

// StartRendering starts rendering. Consequent calls return the same
// result.
func (c *OfflineContext) StartRendering() *render.Result {
	return c.scheduler.StartRendering()
}

// Suspend requests suspension at the block boundary at or after t
// seconds.
func (c *OfflineContext) Suspend(t float64) render.Feedback {
	return c.scheduler.Suspend(t)
}

// Resume continues suspended rendering.
func (c *OfflineContext) Resume() render.Feedback {
	return c.scheduler.Resume()
}

// Close always fails with render.ErrNotClosable.
func (c *OfflineContext) Close() render.Feedback {
	return c.scheduler.Close()
}

// CreatePeriodicWave returns a custom periodic wave.
func (c *OfflineContext) CreatePeriodicWave(real, imag []float32, options ...wave.Option) *wave.Periodic {
	return wave.New(real, imag, options...)
}
