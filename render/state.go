package render

import (
	"context"
	"fmt"
	"sync"

	"pipelined.dev/audiograph/audiodata"
)

// State identifies the lifecycle stage of a rendering session.
type State int

const (
	// Initial means that rendering wasn't started yet.
	Initial State = iota
	// Running means that blocks are being rendered.
	Running
	// Suspended means that rendering is paused and can be resumed.
	Suspended
	// Closed means that rendering is complete. This state is terminal.
	Closed
)

func (s State) String() string {
	switch s {
	case Initial:
		return "initial"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Feedback is a wrapper for error channels. It's used to give feedback
// about state change or error occurred during that change. The channel is
// closed when the change happened and carries at most one error.
type Feedback chan error

func newFeedback() Feedback {
	return make(Feedback, 1)
}

// done closes the feedback without error.
func (f Feedback) done() {
	close(f)
}

// fail sends an error and closes the feedback.
func (f Feedback) fail(err error) {
	f <- err
	close(f)
}

// Wait for the feedback and return the first error, if any.
func Wait(f Feedback) error {
	for err := range f {
		if err != nil {
			return err
		}
	}
	return nil
}

// Result is the outcome of a rendering session. It's resolved exactly once,
// when the session is closed.
type Result struct {
	once sync.Once
	done chan struct{}
	data *audiodata.AudioData
}

func newResult() *Result {
	return &Result{
		done: make(chan struct{}),
	}
}

func (r *Result) resolve(data *audiodata.AudioData) {
	r.once.Do(func() {
		r.data = data
		close(r.done)
	})
}

// Done returns a channel that's closed when the result is resolved.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Data returns rendered audio. It's nil until the result is resolved.
func (r *Result) Data() *audiodata.AudioData {
	select {
	case <-r.done:
		return r.data
	default:
		return nil
	}
}

// Wait blocks until the result is resolved or context is done. A session
// that is suspended and never resumed never resolves its result.
func (r *Result) Wait(ctx context.Context) (*audiodata.AudioData, error) {
	select {
	case <-r.done:
		return r.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
