/*
Package audiograph renders audio graphs offline.

Concept

An audio graph is built of nodes connected through their ports. Every node
has a processor and sets of input and output ports. Outputs fan out to any
number of inputs, inputs sum the signal of every enabled output connected to
them and mix channels according to the node channel policy. The graph ends
in a destination node which is pulled block by block:

	destination <- input <- output <- node <- input <- output <- node ...

Each node reached by the pull computes its block at most once, no matter how
many inputs consume it. Refer to graph package documentation for details.

Offline context

OfflineContext wires a graph with a rendering session:

	c := audiograph.NewOfflineContext(2, 44100, 44100)
	osc := c.Graph().AddNode(processor, graph.NodeConfig{Outputs: 1})
	c.Graph().Connect(osc, 0, c.Destination(), 0)
	data, err := c.StartRendering().Wait(ctx)

Rendering advances in batches of blocks, every batch is scheduled with a
deferrer. Session can be suspended at a block boundary to mutate the graph
with sample accuracy:

	suspended := c.Suspend(0.5)
	result := c.StartRendering()
	render.Wait(suspended)
	c.Graph().Output(osc, 0).Disable()
	render.Wait(c.Resume())

Offline session is not closable, it's complete when all frames are
rendered. Result is delivered to the listener set with OnComplete and
returned by Result.Wait.

Periodic waves

Package wave provides harmonic coefficients of basic waveforms. Wave tables
rendered from them are used by oscillator processors.
*/
package audiograph
