/*
Package graph implements a pull-based audio connection graph.

Nodes

A node is a Processor plus a set of input and output ports. Nodes are
stored in the graph arena and addressed with NodeID handles. Ports refer to
each other with handles too, so the mutual output-input references never
form ownership cycles.

Connections

An edge goes from an output port to an input port. Connecting the same pair
twice is a no-op. Output ports fan out to any number of inputs, input ports
sum the signal of every enabled output connected to them:

	osc := g.AddNode(source, graph.NodeConfig{Outputs: 1})
	g.Output(osc, 0).Connect(g.Destination(), 0)

Rendering

Graph.Render pulls the destination node for one block. Every node reached
by the pull is processed at most once per block, no matter how many inputs
consume its outputs.

Mutations of the graph are serialized with block rendering: a connect or
disconnect issued while a block is pulled takes effect at the next block
boundary. Processors must not call graph methods from Process.
*/
package graph

import (
	"fmt"
	"sync"

	"pipelined.dev/audiograph/bus"
	"pipelined.dev/audiograph/log"
)

// DefaultBlockSize is the number of frames processed in a single block.
const DefaultBlockSize = 128

// Block describes the block that is currently rendered.
type Block struct {
	// Frame is the sequence number of the block, starts at 1.
	Frame       uint64
	Size        int
	SampleRate  int
	CurrentTime float64 // time of the first frame in seconds.
}

// Graph is an arena of nodes connected through their ports.
type Graph struct {
	mu          sync.Mutex
	sampleRate  int
	blockSize   int
	channels    int
	nodes       []*Node
	destination NodeID
	frame       uint64 // number of rendered blocks.
	log         log.Logger
}

// Option provides a way to set functional parameters to graph.
type Option func(g *Graph)

// WithBlockSize sets the number of frames in a block.
func WithBlockSize(blockSize int) Option {
	return func(g *Graph) {
		g.blockSize = blockSize
	}
}

// WithLogger sets logger to graph. If this option is not provided, default
// logger is used.
func WithLogger(logger log.Logger) Option {
	return func(g *Graph) {
		g.log = logger
	}
}

// New creates a graph with a destination node that has numberOfChannels
// channels.
func New(sampleRate, numberOfChannels int, options ...Option) *Graph {
	g := &Graph{
		sampleRate: sampleRate,
		blockSize:  DefaultBlockSize,
		channels:   numberOfChannels,
		log:        log.GetLogger(),
	}
	for _, option := range options {
		option(g)
	}
	g.destination = g.AddNode(nil, NodeConfig{
		Inputs:                1,
		ChannelCount:          numberOfChannels,
		ChannelCountMode:      Explicit,
		ChannelInterpretation: bus.Speakers,
	})
	return g
}

// SampleRate of the graph.
func (g *Graph) SampleRate() int {
	return g.sampleRate
}

// BlockSize returns number of frames in a block.
func (g *Graph) BlockSize() int {
	return g.blockSize
}

// NumberOfChannels returns the number of channels of the destination.
func (g *Graph) NumberOfChannels() int {
	return g.channels
}

// Destination returns the handle of the terminal node.
func (g *Graph) Destination() NodeID {
	return g.destination
}

// CurrentTime returns the time of the next block to render in seconds.
func (g *Graph) CurrentTime() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentTime()
}

func (g *Graph) currentTime() float64 {
	return float64(g.frame*uint64(g.blockSize)) / float64(g.sampleRate)
}

// AddNode adds a new node to the graph and returns its handle.
func (g *Graph) AddNode(p Processor, cfg NodeConfig) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := NodeID(len(g.nodes))
	n := newNode(g, id, p, cfg)
	g.nodes = append(g.nodes, n)
	g.log.Debug(fmt.Sprintf("%v added", n))
	return id
}

// Node returns the node for provided handle. Panics if handle is unknown.
func (g *Graph) Node(id NodeID) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.node(id)
}

// Output returns output port of a node. Panics if port doesn't exist.
func (g *Graph) Output(id NodeID, index int) *Output {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.output(port{node: id, index: index})
}

// Input returns input port of a node. Panics if port doesn't exist.
func (g *Graph) Input(id NodeID, index int) *Input {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.input(port{node: id, index: index})
}

// Connect connects output of src node with input of dst node.
func (g *Graph) Connect(src NodeID, output int, dst NodeID, input int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.output(port{node: src, index: output}).connect(dst, input)
}

// Disconnect removes edges from output of src node which match the filter.
func (g *Graph) Disconnect(src NodeID, output int, f Filter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.output(port{node: src, index: output}).disconnect(f)
}

// Render pulls one block from the destination and writes it into
// channelData starting at offset. Every channel of channelData must have
// at least offset + BlockSize samples.
func (g *Graph) Render(channelData [][]float32, offset int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := Block{
		Frame:       g.frame + 1,
		Size:        g.blockSize,
		SampleRate:  g.sampleRate,
		CurrentTime: g.currentTime(),
	}
	d := g.nodes[g.destination]
	d.processIfNecessary(b)
	in := d.inputs[0].bus
	for ch := range channelData {
		if ch < in.NumberOfChannels() {
			copy(channelData[ch][offset:offset+g.blockSize], in.Channel(ch))
		}
	}
	g.frame = b.Frame
}

func (g *Graph) node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		panic(fmt.Errorf("node %d: %w", id, ErrNoSuchPort))
	}
	return g.nodes[id]
}

func (g *Graph) output(p port) *Output {
	n := g.node(p.node)
	if p.index < 0 || p.index >= len(n.outputs) {
		panic(fmt.Errorf("%v output %d: %w", n, p.index, ErrNoSuchPort))
	}
	return n.outputs[p.index]
}

func (g *Graph) input(p port) *Input {
	n := g.node(p.node)
	if p.index < 0 || p.index >= len(n.inputs) {
		panic(fmt.Errorf("%v input %d: %w", n, p.index, ErrNoSuchPort))
	}
	return n.inputs[p.index]
}
