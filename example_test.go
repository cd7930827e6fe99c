package audiograph_test

import (
	"context"
	"fmt"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/bus"
	"pipelined.dev/audiograph/graph"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/render"
)

// Render one second of constant signal and silence it after half a second.
func Example() {
	c := audiograph.NewOfflineContext(2, 8000, 8000,
		audiograph.WithLogger(log.Silent()),
		audiograph.WithBlockSize(100),
	)
	dc := c.Graph().AddNode(graph.ProcessorFunc(func(b graph.Block, _, outputs []*bus.Bus) {
		for _, ch := range outputs[0].Channels() {
			for i := range ch {
				ch[i] = 0.5
			}
		}
	}), graph.NodeConfig{Outputs: 1})
	c.Graph().Connect(dc, 0, c.Destination(), 0)

	suspended := c.Suspend(0.5)
	result := c.StartRendering()
	if err := render.Wait(suspended); err != nil {
		fmt.Println(err)
		return
	}
	c.Graph().Output(dc, 0).Disable()
	render.Wait(c.Resume())

	data, err := result.Wait(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(data)
	fmt.Println(data.ChannelData[1][3999], data.ChannelData[1][4000])
	// Output:
	// 2 channels, 8000 frames at 8000 Hz
	// 0.5 0
}
