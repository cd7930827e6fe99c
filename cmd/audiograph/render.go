package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/audiodata"
	"pipelined.dev/audiograph/graph"
	"pipelined.dev/audiograph/internal/tone"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/render"
	"pipelined.dev/audiograph/signal"
	"pipelined.dev/audiograph/wav"
)

type renderCommand struct {
	config string
	out    string
	bits   int
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render voices described in config into wav file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", "", "render config in yaml format (required)")
	fs.StringVar(&cmd.out, "out", "", "output wav file (required)")
	fs.IntVar(&cmd.bits, "bits", 16, "bit depth of output file: 16 or 32")
}

func (cmd *renderCommand) Validate() error {
	var message string
	if cmd.config == "" {
		message = message + "Missing -config required flag\n"
	}
	if cmd.out == "" {
		message = message + "Missing -out required flag\n"
	}
	if message != "" {
		return errors.New(message)
	}
	return nil
}

func (cmd *renderCommand) Run(stdout io.Writer) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	c, err := loadConfigFile(cmd.config)
	if err != nil {
		return err
	}
	data, err := renderVoices(c, log.GetLogger())
	if err != nil {
		return err
	}
	if err := wav.WriteFile(cmd.out, data, signal.BitDepth(cmd.bits)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Rendered %v into %s\n", data, cmd.out)
	return nil
}

// renderVoices renders the config on a serial task queue. Rendering is
// suspended at every suspend time to start the voices.
func renderVoices(c *renderConfig, logger log.Logger) (*audiodata.AudioData, error) {
	q := render.NewQueue()
	defer q.Close()

	ac := audiograph.NewOfflineContext(c.Channels, c.Length, c.SampleRate,
		audiograph.WithBlockSize(c.BlockSize),
		audiograph.WithDeferrer(q),
		audiograph.WithLogger(logger),
	)
	g := ac.Graph()
	type pending struct {
		start float64
		id    graph.NodeID
	}
	var silent []pending
	for _, v := range c.Voices {
		cfg := tone.Config()
		cfg.OutputsDisabled = v.Start > 0
		id := g.AddNode(tone.New(v.periodicWave(), v.Frequency, v.Gain), cfg)
		g.Connect(id, 0, ac.Destination(), 0)
		if cfg.OutputsDisabled {
			silent = append(silent, pending{start: v.Start, id: id})
		}
	}

	times := c.suspendTimes()
	var suspended render.Feedback
	if len(times) > 0 {
		suspended = ac.Suspend(times[0])
	}
	result := ac.StartRendering()
	for i := range times {
		if err := render.Wait(suspended); err != nil {
			if errors.Is(err, render.ErrCompleted) {
				break
			}
			return nil, err
		}
		now := ac.CurrentTime()
		remaining := silent[:0]
		for _, p := range silent {
			if p.start <= now {
				g.Output(p.id, 0).Enable()
			} else {
				remaining = append(remaining, p)
			}
		}
		silent = remaining
		if i+1 < len(times) {
			suspended = ac.Suspend(times[i+1])
		}
		if err := render.Wait(ac.Resume()); err != nil {
			return nil, err
		}
	}
	return result.Wait(context.Background())
}
