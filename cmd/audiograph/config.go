package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"pipelined.dev/audiograph/graph"
	"pipelined.dev/audiograph/wave"
)

// renderConfig describes the rendered graph.
type renderConfig struct {
	Channels   int       `yaml:"channels"`
	Length     int       `yaml:"length"`
	SampleRate int       `yaml:"sampleRate"`
	BlockSize  int       `yaml:"blockSize"`
	Suspend    []float64 `yaml:"suspend"`
	Voices     []voice   `yaml:"voices"`
}

// voice is an oscillator connected to the destination. Voices with start
// time are silent until that time. Gain defaults to 1.
type voice struct {
	Waveform  string    `yaml:"waveform"`
	Frequency float64   `yaml:"frequency"`
	Gain      float32   `yaml:"gain"`
	Start     float64   `yaml:"start"`
	Real      []float32 `yaml:"real"`
	Imag      []float32 `yaml:"imag"`
}

// UnmarshalYAML decodes the voice. Omitted gain is 1.
func (v *voice) UnmarshalYAML(value *yaml.Node) error {
	type plain voice
	p := plain{Gain: 1}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*v = voice(p)
	return nil
}

var errEmptyConfig = errors.New("config has no voices")

func loadConfig(r io.Reader) (*renderConfig, error) {
	c := renderConfig{
		Channels:   2,
		SampleRate: 44100,
		BlockSize:  graph.DefaultBlockSize,
	}
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadConfigFile(path string) (*renderConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadConfig(f)
}

func (c *renderConfig) validate() error {
	switch {
	case c.Channels <= 0:
		return fmt.Errorf("invalid number of channels: %d", c.Channels)
	case c.SampleRate <= 0:
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	case c.BlockSize <= 0:
		return fmt.Errorf("invalid block size: %d", c.BlockSize)
	case len(c.Voices) == 0:
		return errEmptyConfig
	}
	for i, v := range c.Voices {
		if v.Frequency <= 0 {
			return fmt.Errorf("voice %d: invalid frequency: %v", i, v.Frequency)
		}
	}
	return nil
}

// suspendTimes returns sorted unique times when rendering is suspended:
// configured ones and start times of voices.
func (c *renderConfig) suspendTimes() []float64 {
	unique := make(map[float64]struct{})
	for _, t := range c.Suspend {
		unique[t] = struct{}{}
	}
	for _, v := range c.Voices {
		if v.Start > 0 {
			unique[v.Start] = struct{}{}
		}
	}
	times := make([]float64, 0, len(unique))
	for t := range unique {
		times = append(times, t)
	}
	sort.Float64s(times)
	return times
}

// periodicWave returns the wave of the voice. Unknown waveform names
// result in a custom wave with voice coefficients.
func (v voice) periodicWave() *wave.Periodic {
	w := wave.New(v.Real, v.Imag)
	w.GenerateBasicWaveform(wave.Type(v.Waveform))
	return w
}
