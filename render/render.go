/*
Package render drives an audio graph offline, block by block, until the
requested number of sample frames is rendered.

The rendering loop is cooperative. Every tick renders a bounded batch of
blocks and then yields, so the next batch is scheduled with a Deferrer. A
host can also drive the loop itself by calling Tick.

Sessions can be suspended at a block boundary and resumed later:

	s := render.New(g, 2, 44100)
	suspended := s.Suspend(0.5)
	result := s.StartRendering()
	render.Wait(suspended)
	// mutate the graph
	render.Wait(s.Resume())
	data, err := result.Wait(ctx)
*/
package render

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/xid"

	"pipelined.dev/audiograph/audiodata"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/metric"
	"pipelined.dev/audiograph/signal"
)

// DefaultIterations is the maximum number of blocks rendered by a
// single tick.
const DefaultIterations = 128

var (
	// ErrNotClosable is returned when offline session is closed
	// externally.
	ErrNotClosable = errors.New("cannot close offline rendering session")
	// ErrCompleted is returned when suspension is requested after the
	// session completed or the session completed before reaching the
	// suspend time.
	ErrCompleted = errors.New("rendering already completed")
)

// Renderer renders blocks of audio.
type Renderer interface {
	// Render writes one block into every channel of channelData at the
	// offset.
	Render(channelData [][]float32, offset int)
	// CurrentTime returns the time of the next block in seconds.
	CurrentTime() float64
	BlockSize() int
	SampleRate() int
}

// Scheduler is an offline rendering session. It passes through its states
// exactly once and is discarded after the result is delivered.
type Scheduler struct {
	mu               sync.Mutex
	uid              string
	renderer         Renderer
	deferrer         Deferrer
	log              log.Logger
	numberOfChannels int
	length           int
	iterations       int
	state            State
	buffer           signal.Float32
	padded           int // length rounded up to whole blocks.
	cursor           int
	suspendTime      float64
	suspended        Feedback
	scheduled        bool
	result           *Result
	onComplete       func(*audiodata.AudioData)
	meter            *metric.Meter
	measure          *metric.Render
}

// Option provides a way to set functional parameters to scheduler.
type Option func(s *Scheduler)

// WithLogger sets logger to scheduler. If this option is not provided,
// default logger is used.
func WithLogger(logger log.Logger) Option {
	return func(s *Scheduler) {
		s.log = logger
	}
}

// WithDeferrer sets the mechanism used to schedule ticks. Default is Go.
// If nil is provided, ticks are never scheduled and host must call Tick.
func WithDeferrer(d Deferrer) Option {
	return func(s *Scheduler) {
		s.deferrer = d
	}
}

// WithIterations sets the maximum number of blocks rendered by a single
// tick.
func WithIterations(iterations int) Option {
	return func(s *Scheduler) {
		if iterations > 0 {
			s.iterations = iterations
		}
	}
}

// WithMeter enables metrics of the session: rendered blocks, suspensions
// and rendering speed.
func WithMeter(meter *metric.Meter) Option {
	return func(s *Scheduler) {
		s.meter = meter
	}
}

// New creates a session that renders length sample frames of r into
// numberOfChannels channels. Negative length is treated as zero.
func New(r Renderer, numberOfChannels, length int, options ...Option) *Scheduler {
	if length < 0 {
		length = 0
	}
	s := &Scheduler{
		uid:              xid.New().String(),
		renderer:         r,
		deferrer:         Go{},
		log:              log.GetLogger(),
		numberOfChannels: numberOfChannels,
		length:           length,
		iterations:       DefaultIterations,
		suspendTime:      math.Inf(1),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Scheduler) String() string {
	return fmt.Sprintf("render %s", s.uid)
}

// OnComplete sets the listener notified once, when rendering is complete.
// It replaces previously set listener.
func (s *Scheduler) OnComplete(fn func(*audiodata.AudioData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// State returns current state of the session.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Length returns the number of sample frames to render.
func (s *Scheduler) Length() int {
	return s.length
}

// NumberOfChannels returns the number of rendered channels.
func (s *Scheduler) NumberOfChannels() int {
	return s.numberOfChannels
}

// SampleRate returns the sample rate of the renderer.
func (s *Scheduler) SampleRate() int {
	return s.renderer.SampleRate()
}

// CurrentTime returns the time of the next block to render in seconds.
func (s *Scheduler) CurrentTime() float64 {
	return s.renderer.CurrentTime()
}

// StartRendering allocates the working buffer and starts the rendering
// loop. Consequent calls return the same result and do nothing else.
func (s *Scheduler) StartRendering() *Result {
	s.mu.Lock()
	if s.result != nil {
		defer s.mu.Unlock()
		return s.result
	}
	blockSize := s.renderer.BlockSize()
	s.padded = (s.length + blockSize - 1) / blockSize * blockSize
	s.buffer = signal.EmptyFloat32(s.numberOfChannels, s.padded)
	s.cursor = 0
	s.result = newResult()
	s.state = Running
	if s.meter != nil {
		s.measure = s.meter.Start()
	}
	result := s.result
	s.mu.Unlock()

	s.log.Debug(fmt.Sprintf("%v started: %d channels, %d frames", s, s.numberOfChannels, s.length))
	s.schedule()
	return result
}

// Suspend requests suspension at the first block boundary at or after t
// seconds. Negative t is treated as zero. Only one request is tracked: if
// one is already pending, its time is updated and the same feedback is
// returned.
//
// The feedback is closed without error once the session is suspended. It
// carries ErrCompleted if the session completes before reaching t or was
// already complete when Suspend was called.
func (s *Scheduler) Suspend(t float64) Feedback {
	if t < 0 {
		t = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		f := newFeedback()
		f.fail(ErrCompleted)
		return f
	}
	s.suspendTime = t
	if s.suspended == nil {
		s.suspended = newFeedback()
	}
	s.log.Debug(fmt.Sprintf("%v suspend requested at %vs", s, t))
	return s.suspended
}

// Resume continues suspended rendering from the persisted position. If
// session is not suspended, it does nothing. Returned feedback is always
// closed without error.
func (s *Scheduler) Resume() Feedback {
	f := newFeedback()
	defer f.done()
	s.mu.Lock()
	if s.state != Suspended || s.result == nil {
		s.mu.Unlock()
		return f
	}
	s.state = Running
	if s.measure != nil {
		s.measure.Resume()
	}
	s.mu.Unlock()

	s.log.Debug(fmt.Sprintf("%v resumed", s))
	s.schedule()
	return f
}

// Close always fails, offline sessions complete only when all frames are
// rendered.
func (s *Scheduler) Close() Feedback {
	f := newFeedback()
	f.fail(ErrNotClosable)
	return f
}

// schedule defers the next tick unless one is already scheduled.
func (s *Scheduler) schedule() {
	s.mu.Lock()
	if s.deferrer == nil || s.scheduled || s.state != Running {
		s.mu.Unlock()
		return
	}
	s.scheduled = true
	s.mu.Unlock()
	s.deferrer.Defer(s.step)
}

func (s *Scheduler) step() {
	s.mu.Lock()
	s.scheduled = false
	s.mu.Unlock()
	if s.Tick() == Running {
		s.schedule()
	}
}

// Tick renders the next batch of blocks and returns the state the session
// is left in. It renders nothing unless the session is running.
func (s *Scheduler) Tick() State {
	s.mu.Lock()
	if s.state != Running {
		defer s.mu.Unlock()
		return s.state
	}
	blockSize := s.renderer.BlockSize()
	batch := (s.padded - s.cursor) / blockSize
	if batch > s.iterations {
		batch = s.iterations
	}
	for i := 0; i < batch; i++ {
		if s.suspendTime <= s.renderer.CurrentTime() {
			s.suspend()
			return Suspended
		}
		s.renderer.Render(s.buffer, s.cursor)
		s.cursor += blockSize
		if s.measure != nil {
			s.measure.Block(blockSize)
		}
	}
	if s.cursor >= s.padded {
		s.complete()
		return Closed
	}
	s.mu.Unlock()
	return Running
}

// suspend must be called with the lock held, it releases it.
func (s *Scheduler) suspend() {
	f := s.suspended
	s.suspended = nil
	s.suspendTime = math.Inf(1)
	s.state = Suspended
	if s.measure != nil {
		s.measure.Suspend()
	}
	cursor := s.cursor
	s.mu.Unlock()

	s.log.Debug(fmt.Sprintf("%v suspended at frame %d", s, cursor))
	if f != nil {
		f.done()
	}
}

// complete must be called with the lock held, it releases it.
func (s *Scheduler) complete() {
	for i := range s.buffer {
		s.buffer[i] = s.buffer[i][:s.length:s.length]
	}
	data := &audiodata.AudioData{
		NumberOfChannels: s.numberOfChannels,
		Length:           s.length,
		SampleRate:       s.renderer.SampleRate(),
		ChannelData:      s.buffer,
	}
	s.buffer = nil
	s.state = Closed
	if s.measure != nil {
		s.measure.Complete()
	}
	pending := s.suspended
	s.suspended = nil
	onComplete := s.onComplete
	result := s.result
	s.mu.Unlock()

	s.log.Info(fmt.Sprintf("%v complete: %v", s, data))
	if pending != nil {
		pending.fail(ErrCompleted)
	}
	if onComplete != nil {
		onComplete(data)
	}
	result.resolve(data)
}
