package graph

import (
	"errors"
	"fmt"

	"github.com/rs/xid"

	"pipelined.dev/audiograph/bus"
)

// ErrNoSuchPort is used to cause a panic when a node or a port handle
// doesn't exist in the graph.
var ErrNoSuchPort = errors.New("no such port")

// NodeID is a handle of the node in the graph arena.
type NodeID int

// port identifies input or output port of a node.
type port struct {
	node  NodeID
	index int
}

// Processor computes a single block of the node. Inputs contain the summed
// signal of every input port, outputs must be fully written.
type Processor interface {
	Process(b Block, inputs, outputs []*bus.Bus)
}

// ProcessorFunc allows to use ordinary functions as processors.
type ProcessorFunc func(b Block, inputs, outputs []*bus.Bus)

// Process calls f(b, inputs, outputs).
func (f ProcessorFunc) Process(b Block, inputs, outputs []*bus.Bus) {
	f(b, inputs, outputs)
}

// CountMode defines how the effective number of channels of an input is
// computed from the connected outputs.
type CountMode int

const (
	// Max uses the largest number of channels among enabled connections.
	Max CountMode = iota
	// ClampedMax is like Max, but limited by the node channel count.
	ClampedMax
	// Explicit always uses the node channel count.
	Explicit
)

func (m CountMode) String() string {
	switch m {
	case Max:
		return "max"
	case ClampedMax:
		return "clamped-max"
	case Explicit:
		return "explicit"
	}
	return fmt.Sprintf("CountMode(%d)", int(m))
}

// NodeConfig defines ports and channel policy of a new node.
type NodeConfig struct {
	Inputs  int
	Outputs int
	// OutputChannels sets initial number of channels per output. Outputs
	// without a value have a single channel.
	OutputChannels []int
	// OutputsDisabled creates the node with all outputs disabled.
	OutputsDisabled       bool
	ChannelCount          int // default is 2.
	ChannelCountMode      CountMode
	ChannelInterpretation bus.Interpretation
	// FollowInputChannels makes output 0 follow the effective number
	// of channels of input 0.
	FollowInputChannels bool
}

// Node is a processor and its ports.
type Node struct {
	id             NodeID
	uid            string
	graph          *Graph
	processor      Processor
	inputs         []*Input
	outputs        []*Output
	inputBuses     []*bus.Bus
	outputBuses    []*bus.Bus
	channelCount   int
	mode           CountMode
	interpretation bus.Interpretation
	follow         bool
	frame          uint64 // last processed block.
}

func newNode(g *Graph, id NodeID, p Processor, cfg NodeConfig) *Node {
	n := &Node{
		id:             id,
		uid:            xid.New().String(),
		graph:          g,
		processor:      p,
		channelCount:   cfg.ChannelCount,
		mode:           cfg.ChannelCountMode,
		interpretation: cfg.ChannelInterpretation,
		follow:         cfg.FollowInputChannels,
	}
	if n.channelCount <= 0 {
		n.channelCount = 2
	}
	for i := 0; i < cfg.Inputs; i++ {
		in := newInput(g, port{node: id, index: i}, n.inputChannels(nil))
		n.inputs = append(n.inputs, in)
		n.inputBuses = append(n.inputBuses, in.bus)
	}
	for i := 0; i < cfg.Outputs; i++ {
		numberOfChannels := 1
		if i < len(cfg.OutputChannels) && cfg.OutputChannels[i] > 0 {
			numberOfChannels = cfg.OutputChannels[i]
		}
		out := newOutput(g, port{node: id, index: i}, numberOfChannels, !cfg.OutputsDisabled)
		n.outputs = append(n.outputs, out)
		n.outputBuses = append(n.outputBuses, out.bus)
	}
	return n
}

// ID returns the handle of the node.
func (n *Node) ID() NodeID {
	return n.id
}

// UID returns the unique identifier of the node, used in logs.
func (n *Node) UID() string {
	return n.uid
}

func (n *Node) String() string {
	return fmt.Sprintf("node %d (%s)", n.id, n.uid)
}

// NumberOfInputs returns the number of input ports.
func (n *Node) NumberOfInputs() int {
	return len(n.inputs)
}

// NumberOfOutputs returns the number of output ports.
func (n *Node) NumberOfOutputs() int {
	return len(n.outputs)
}

// ChannelCount returns the channel count used by ClampedMax and Explicit
// modes.
func (n *Node) ChannelCount() int {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	return n.channelCount
}

// SetChannelCount sets the channel count and updates all inputs.
func (n *Node) SetChannelCount(channelCount int) {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	if channelCount <= 0 || channelCount == n.channelCount {
		return
	}
	n.channelCount = channelCount
	n.updateInputs()
}

// ChannelCountMode returns the count mode of the node inputs.
func (n *Node) ChannelCountMode() CountMode {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	return n.mode
}

// SetChannelCountMode sets the count mode and updates all inputs.
func (n *Node) SetChannelCountMode(mode CountMode) {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	if mode == n.mode {
		return
	}
	n.mode = mode
	n.updateInputs()
}

// ChannelInterpretation returns the interpretation used to mix signals
// of this node.
func (n *Node) ChannelInterpretation() bus.Interpretation {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	return n.interpretation
}

// SetChannelInterpretation sets the interpretation used to mix signals.
func (n *Node) SetChannelInterpretation(interpretation bus.Interpretation) {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	n.interpretation = interpretation
}

func (n *Node) updateInputs() {
	for _, in := range n.inputs {
		in.updateNumberOfChannels()
	}
}

// inputChannels computes the effective number of channels of an input
// given the channel counts of its enabled connections.
func (n *Node) inputChannels(counts []int) int {
	if n.mode == Explicit {
		return n.channelCount
	}
	result := 1
	for _, c := range counts {
		if c > result {
			result = c
		}
	}
	if n.mode == ClampedMax && result > n.channelCount {
		result = n.channelCount
	}
	return result
}

// inputChannelsChanged is called when an input changed its effective
// number of channels.
func (n *Node) inputChannelsChanged(index, numberOfChannels int) {
	if n.follow && index == 0 && len(n.outputs) > 0 {
		n.outputs[0].setNumberOfChannels(numberOfChannels)
	}
}

// processIfNecessary computes the block unless it was already computed.
// The frame is marked before inputs are pulled, so cycles read the
// previous block instead of recursing.
func (n *Node) processIfNecessary(b Block) {
	if n.frame == b.Frame {
		return
	}
	n.frame = b.Frame
	for _, in := range n.inputs {
		in.pull(b)
	}
	if n.processor == nil {
		for _, out := range n.outputBuses {
			out.Zeros()
		}
		return
	}
	n.processor.Process(b, n.inputBuses, n.outputBuses)
}
