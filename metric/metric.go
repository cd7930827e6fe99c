// Package metric publishes counters of offline renders with expvar.
//
// Counters are grouped by the type of the measured renderer, so all
// renders of the same type share them. Render lifecycle is reported by the
// scheduler:
//
//	r := meter.Start()
//	r.Block(128) // every rendered block
//	r.Suspend()  // rendering suspended
//	r.Resume()   // rendering resumed
//	r.Complete() // all frames are rendered
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/audiograph/signal"
)

const rendersLabel = "audiograph.renders"

const (
	// RenderCounter counts started renders.
	RenderCounter = "Renders"
	// CompleteCounter counts completed renders.
	CompleteCounter = "Completed"
	// BlockCounter counts rendered blocks.
	BlockCounter = "Blocks"
	// FrameCounter counts rendered sample frames.
	FrameCounter = "Frames"
	// SuspendCounter counts suspensions.
	SuspendCounter = "Suspensions"
	// RenderedCounter is the duration of rendered signal.
	RenderedCounter = "Rendered"
	// ElapsedCounter is the wall-clock time spent rendering, suspended time
	// excluded.
	ElapsedCounter = "Elapsed"
	// SpeedCounter is the ratio of rendered signal duration to elapsed
	// time of the last completed render.
	SpeedCounter = "Speed"
)

var (
	renderers = struct {
		sync.Mutex
		m map[string]*counters
	}{
		m: make(map[string]*counters),
	}

	names = []string{
		RenderCounter,
		CompleteCounter,
		BlockCounter,
		FrameCounter,
		SuspendCounter,
		RenderedCounter,
		ElapsedCounter,
		SpeedCounter,
	}
)

// Get metrics values for provided renderer type.
func Get(renderer interface{}) map[string]string {
	return getCounters(getType(renderer))
}

// GetAll returns counters for all measured renderer types.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	renderers.Lock()
	defer renderers.Unlock()
	for renderer := range renderers.m {
		m[renderer] = getCounters(renderer)
	}
	return m
}

func getCounters(rendererType string) map[string]string {
	m := make(map[string]string)
	for _, name := range names {
		if v := expvar.Get(key(rendererType, name)); v != nil {
			m[name] = v.String()
		}
	}
	return m
}

// Meter measures renders of a single renderer type.
type Meter struct {
	counters   *counters
	sampleRate int
}

// New returns a meter of the renderer type. Renders are timed against the
// provided sample rate.
func New(renderer interface{}, sampleRate int) *Meter {
	t := getType(renderer)
	renderers.Lock()
	defer renderers.Unlock()
	c, ok := renderers.m[t]
	if !ok {
		c = newCounters(t)
		renderers.m[t] = c
	}
	return &Meter{
		counters:   c,
		sampleRate: sampleRate,
	}
}

// Start begins measurement of a new render. The render is running until
// it's suspended or complete.
func (m *Meter) Start() *Render {
	m.counters.renders.Add(1)
	return &Render{
		meter:   m,
		running: true,
		since:   time.Now(),
	}
}

// Render measures a single render. It's not safe for concurrent use, its
// methods are expected to be called by the rendering loop.
type Render struct {
	meter         *Meter
	blockSize     int
	blockDuration time.Duration
	rendered      time.Duration
	elapsed       time.Duration
	running       bool
	since         time.Time
}

// Block captures a rendered block of provided size.
func (r *Render) Block(frames int) {
	c := r.meter.counters
	c.blocks.Add(1)
	c.frames.Add(int64(frames))
	// recalculate block duration only when block size has changed
	if frames != r.blockSize {
		r.blockSize = frames
		r.blockDuration = signal.DurationOf(r.meter.sampleRate, int64(frames))
	}
	r.rendered += r.blockDuration
	c.rendered.add(r.blockDuration)
}

// Suspend stops the wall-clock of the render.
func (r *Render) Suspend() {
	r.meter.counters.suspensions.Add(1)
	r.stop()
}

// Resume restarts the wall-clock of the render.
func (r *Render) Resume() {
	if r.running {
		return
	}
	r.running = true
	r.since = time.Now()
}

// Complete stops the wall-clock and publishes the render speed. It
// returns the ratio of rendered duration to elapsed time.
func (r *Render) Complete() float64 {
	r.stop()
	c := r.meter.counters
	c.completed.Add(1)
	var speed float64
	if r.elapsed > 0 {
		speed = r.rendered.Seconds() / r.elapsed.Seconds()
	}
	c.speed.Set(speed)
	return speed
}

// Elapsed returns the wall-clock time spent rendering so far.
func (r *Render) Elapsed() time.Duration {
	if r.running {
		return r.elapsed + time.Since(r.since)
	}
	return r.elapsed
}

func (r *Render) stop() {
	if !r.running {
		return
	}
	d := time.Since(r.since)
	r.elapsed += d
	r.meter.counters.elapsed.add(d)
	r.running = false
}

type counters struct {
	renders     *expvar.Int
	completed   *expvar.Int
	blocks      *expvar.Int
	frames      *expvar.Int
	suspensions *expvar.Int
	rendered    *duration
	elapsed     *duration
	speed       *expvar.Float
}

func newCounters(rendererType string) *counters {
	c := counters{
		renders:     expvar.NewInt(key(rendererType, RenderCounter)),
		completed:   expvar.NewInt(key(rendererType, CompleteCounter)),
		blocks:      expvar.NewInt(key(rendererType, BlockCounter)),
		frames:      expvar.NewInt(key(rendererType, FrameCounter)),
		suspensions: expvar.NewInt(key(rendererType, SuspendCounter)),
		rendered:    &duration{},
		elapsed:     &duration{},
		speed:       expvar.NewFloat(key(rendererType, SpeedCounter)),
	}
	expvar.Publish(key(rendererType, RenderedCounter), c.rendered)
	expvar.Publish(key(rendererType, ElapsedCounter), c.elapsed)
	return &c
}

func key(rendererType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", rendersLabel, rendererType, counter)
}

func getType(renderer interface{}) string {
	rv := reflect.ValueOf(renderer)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}
