package graph

import (
	"fmt"

	"pipelined.dev/audiograph/bus"
)

// Output is an output port of a node. It owns a bus with the node signal
// and fans out to connected inputs.
type Output struct {
	graph   *Graph
	port    port
	bus     *bus.Bus
	enabled bool
	inputs  []port
}

func newOutput(g *Graph, p port, numberOfChannels int, enabled bool) *Output {
	return &Output{
		graph:   g,
		port:    p,
		bus:     bus.New(numberOfChannels, g.blockSize, g.sampleRate),
		enabled: enabled,
	}
}

func (o *Output) String() string {
	return fmt.Sprintf("%v output %d", o.graph.nodes[o.port.node], o.port.index)
}

// Node returns the handle of the owning node.
func (o *Output) Node() NodeID {
	return o.port.node
}

// Index of this output in the owning node.
func (o *Output) Index() int {
	return o.port.index
}

// Bus returns the bus of this output.
func (o *Output) Bus() *bus.Bus {
	return o.bus
}

// NumberOfChannels returns the number of channels of the output bus.
func (o *Output) NumberOfChannels() int {
	o.graph.mu.Lock()
	defer o.graph.mu.Unlock()
	return o.bus.NumberOfChannels()
}

// SetNumberOfChannels changes the number of channels of the output bus
// and makes every connected input recompute its number of channels.
func (o *Output) SetNumberOfChannels(numberOfChannels int) {
	o.graph.mu.Lock()
	defer o.graph.mu.Unlock()
	o.setNumberOfChannels(numberOfChannels)
}

func (o *Output) setNumberOfChannels(numberOfChannels int) {
	if numberOfChannels == o.bus.NumberOfChannels() {
		return
	}
	o.bus.SetNumberOfChannels(numberOfChannels, o.graph.nodes[o.port.node].interpretation)
	o.graph.log.Debug(fmt.Sprintf("%v has %d channels", o, numberOfChannels))
	for _, p := range o.inputs {
		o.graph.input(p).updateNumberOfChannels()
	}
}

// NumberOfConnections returns the number of connected inputs.
func (o *Output) NumberOfConnections() int {
	o.graph.mu.Lock()
	defer o.graph.mu.Unlock()
	return len(o.inputs)
}

// IsEnabled returns true if output contributes to connected inputs.
func (o *Output) IsEnabled() bool {
	o.graph.mu.Lock()
	defer o.graph.mu.Unlock()
	return o.enabled
}

// Enable makes the output contribute to connected inputs again.
// Connections are not affected.
func (o *Output) Enable() {
	o.graph.mu.Lock()
	defer o.graph.mu.Unlock()
	if o.enabled {
		return
	}
	o.enabled = true
	o.graph.log.Debug(fmt.Sprintf("%v enabled", o))
	for _, p := range o.inputs {
		o.graph.input(p).enableFrom(o.port)
	}
}

// Disable excludes the output from aggregation of connected inputs.
// Connections are not affected.
func (o *Output) Disable() {
	o.graph.mu.Lock()
	defer o.graph.mu.Unlock()
	if !o.enabled {
		return
	}
	o.enabled = false
	o.graph.log.Debug(fmt.Sprintf("%v disabled", o))
	for _, p := range o.inputs {
		o.graph.input(p).disableFrom(o.port)
	}
}

// Connect connects this output to input of destination node. Connecting
// the same pair again does nothing. Panics if the input doesn't exist.
func (o *Output) Connect(destination NodeID, input int) {
	o.graph.mu.Lock()
	defer o.graph.mu.Unlock()
	o.connect(destination, input)
}

func (o *Output) connect(destination NodeID, input int) {
	target := port{node: destination, index: input}
	in := o.graph.input(target)
	for _, p := range o.inputs {
		if p == target {
			return
		}
	}
	o.inputs = append(o.inputs, target)
	in.connectFrom(o.port, o.enabled)
	o.graph.log.Debug(fmt.Sprintf("%v connected to %v", o, in))
}

// Disconnect removes all edges matching the filter.
func (o *Output) Disconnect(f Filter) {
	o.graph.mu.Lock()
	defer o.graph.mu.Unlock()
	o.disconnect(f)
}

func (o *Output) disconnect(f Filter) {
	for i := len(o.inputs) - 1; i >= 0; i-- {
		target := o.inputs[i]
		if !f.matches(target) {
			continue
		}
		in := o.graph.input(target)
		in.disconnectFrom(o.port)
		o.inputs = append(o.inputs[:i], o.inputs[i+1:]...)
		o.graph.log.Debug(fmt.Sprintf("%v disconnected from %v", o, in))
	}
}

// IsConnectedTo returns true if any edge matches the filter.
func (o *Output) IsConnectedTo(f Filter) bool {
	o.graph.mu.Lock()
	defer o.graph.mu.Unlock()
	for _, p := range o.inputs {
		if f.matches(p) {
			return true
		}
	}
	return false
}

// Pull makes the owning node compute the block, unless it was already
// computed, and returns the output bus. It's meant to be called while the
// graph renders a block.
func (o *Output) Pull(b Block) *bus.Bus {
	o.graph.nodes[o.port.node].processIfNecessary(b)
	return o.bus
}
