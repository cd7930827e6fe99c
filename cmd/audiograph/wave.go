package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"pipelined.dev/audiograph/wave"
)

type waveCommand struct {
	waveform string
	out      string
}

// coefficients is the YAML representation of a periodic wave.
type coefficients struct {
	Name string    `yaml:"name"`
	Real []float32 `yaml:"real,flow"`
	Imag []float32 `yaml:"imag,flow"`
}

func (cmd *waveCommand) Name() string {
	return "wave"
}

func (cmd *waveCommand) Help() string {
	return "Print harmonic coefficients of a basic waveform"
}

func (cmd *waveCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.waveform, "type", string(wave.Sine), "waveform: sine, sawtooth, triangle or square")
	fs.StringVar(&cmd.out, "out", "", "output file, stdout if empty")
}

func (cmd *waveCommand) Validate() error {
	for _, t := range wave.BasicWaveforms {
		if wave.Type(cmd.waveform) == t {
			return nil
		}
	}
	return fmt.Errorf("unknown waveform %q", cmd.waveform)
}

func (cmd *waveCommand) Run(stdout io.Writer) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	w := wave.New(nil, nil)
	w.GenerateBasicWaveform(wave.Type(cmd.waveform))
	b, err := yaml.Marshal(coefficients{
		Name: string(w.Name()),
		Real: w.Real(),
		Imag: w.Imag(),
	})
	if err != nil {
		return fmt.Errorf("could not marshal coefficients: %w", err)
	}
	if cmd.out == "" {
		_, err = stdout.Write(b)
		return err
	}
	return os.WriteFile(cmd.out, b, 0644)
}
