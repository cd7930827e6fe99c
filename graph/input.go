package graph

import (
	"fmt"

	"pipelined.dev/audiograph/bus"
)

// connection is an edge from output port, seen from the input side.
type connection struct {
	output  port
	enabled bool
}

// Input is an input port of a node. It sums the signal of every enabled
// connected output into its own bus.
type Input struct {
	graph       *Graph
	port        port
	bus         *bus.Bus
	connections []connection // ordered, so summation order is stable.
}

func newInput(g *Graph, p port, numberOfChannels int) *Input {
	return &Input{
		graph: g,
		port:  p,
		bus:   bus.New(numberOfChannels, g.blockSize, g.sampleRate),
	}
}

func (in *Input) String() string {
	return fmt.Sprintf("%v input %d", in.graph.nodes[in.port.node], in.port.index)
}

// Node returns the handle of the owning node.
func (in *Input) Node() NodeID {
	return in.port.node
}

// Index of this input in the owning node.
func (in *Input) Index() int {
	return in.port.index
}

// NumberOfChannels returns the effective number of channels.
func (in *Input) NumberOfChannels() int {
	in.graph.mu.Lock()
	defer in.graph.mu.Unlock()
	return in.bus.NumberOfChannels()
}

// NumberOfConnections returns the number of connected outputs, both
// enabled and disabled.
func (in *Input) NumberOfConnections() int {
	in.graph.mu.Lock()
	defer in.graph.mu.Unlock()
	return len(in.connections)
}

func (in *Input) connectFrom(p port, enabled bool) {
	for _, c := range in.connections {
		if c.output == p {
			return
		}
	}
	in.connections = append(in.connections, connection{output: p, enabled: enabled})
	in.updateNumberOfChannels()
}

func (in *Input) disconnectFrom(p port) {
	for i, c := range in.connections {
		if c.output == p {
			in.connections = append(in.connections[:i], in.connections[i+1:]...)
			in.updateNumberOfChannels()
			return
		}
	}
}

func (in *Input) enableFrom(p port) {
	in.setEnabled(p, true)
}

func (in *Input) disableFrom(p port) {
	in.setEnabled(p, false)
}

func (in *Input) setEnabled(p port, enabled bool) {
	for i := range in.connections {
		if in.connections[i].output == p {
			in.connections[i].enabled = enabled
			in.updateNumberOfChannels()
			return
		}
	}
}

// updateNumberOfChannels recomputes the effective number of channels from
// enabled connections and the node channel policy.
func (in *Input) updateNumberOfChannels() {
	n := in.graph.nodes[in.port.node]
	counts := make([]int, 0, len(in.connections))
	for _, c := range in.connections {
		if c.enabled {
			counts = append(counts, in.graph.output(c.output).bus.NumberOfChannels())
		}
	}
	numberOfChannels := n.inputChannels(counts)
	if numberOfChannels == in.bus.NumberOfChannels() {
		return
	}
	in.bus.SetNumberOfChannels(numberOfChannels, n.interpretation)
	in.graph.log.Debug(fmt.Sprintf("%v has %d channels", in, numberOfChannels))
	n.inputChannelsChanged(in.port.index, numberOfChannels)
}

// pull sums enabled connections into the input bus. Disabled connections
// contribute silence.
func (in *Input) pull(b Block) *bus.Bus {
	in.bus.Zeros()
	interpretation := in.graph.nodes[in.port.node].interpretation
	for _, c := range in.connections {
		if !c.enabled {
			continue
		}
		in.bus.SumFrom(in.graph.output(c.output).Pull(b), interpretation)
	}
	return in.bus
}
