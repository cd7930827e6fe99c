// Package wave generates harmonic coefficient tables of periodic waveforms.
package wave

import (
	"fmt"
	"math"
)

// Length is the number of coefficients of generated basic waveforms.
const Length = 2048

// Type of the waveform.
type Type string

// Basic waveform types.
const (
	Sine     Type = "sine"
	Sawtooth Type = "sawtooth"
	Triangle Type = "triangle"
	Square   Type = "square"
	Custom   Type = "custom"
)

// BasicWaveforms lists the types GenerateBasicWaveform can produce.
var BasicWaveforms = []Type{Sine, Sawtooth, Triangle, Square}

// Periodic is a periodic waveform described by the real (cosine) and
// imaginary (sine) coefficients of its harmonics. Index 0 is the DC term
// and is expected to be zero.
type Periodic struct {
	real        []float32
	imag        []float32
	customReal  []float32
	customImag  []float32
	constraints bool
	name        Type
}

// Option provides a way to set functional parameters to periodic wave.
type Option func(p *Periodic)

// WithConstraints marks the wave as created with explicit constraints.
// Such waves are not normalized.
func WithConstraints() Option {
	return func(p *Periodic) {
		p.constraints = false
	}
}

// New returns a custom wave with provided coefficients. Sequences of
// different length are padded with zeros to the longest one.
func New(real, imag []float32, options ...Option) *Periodic {
	n := len(real)
	if len(imag) > n {
		n = len(imag)
	}
	p := &Periodic{
		real:        make([]float32, n),
		imag:        make([]float32, n),
		constraints: true,
		name:        Custom,
	}
	copy(p.real, real)
	copy(p.imag, imag)
	p.customReal, p.customImag = p.real, p.imag
	for _, option := range options {
		option(p)
	}
	return p
}

// Real returns cosine coefficients.
func (p *Periodic) Real() []float32 {
	return p.real
}

// Imag returns sine coefficients.
func (p *Periodic) Imag() []float32 {
	return p.imag
}

// Constraints reports whether default constraints apply, which is the
// case unless WithConstraints option was supplied.
func (p *Periodic) Constraints() bool {
	return p.constraints
}

// Name returns the type of the waveform.
func (p *Periodic) Name() Type {
	return p.name
}

func (p *Periodic) String() string {
	return fmt.Sprintf("%s wave (%d harmonics)", p.name, len(p.imag))
}

// GenerateBasicWaveform replaces coefficients with the ones of the basic
// waveform. Unknown types restore the coefficients the wave was created
// with and name it custom.
func (p *Periodic) GenerateBasicWaveform(t Type) {
	switch t {
	case Sine:
		p.real = []float32{0, 0}
		p.imag = []float32{0, 1}
	case Sawtooth:
		p.real = make([]float32, Length)
		p.imag = harmonics(func(n float64) float64 {
			return sign(int(n)+1) * 2 / (n * math.Pi)
		})
	case Triangle:
		p.real = make([]float32, Length)
		p.imag = harmonics(func(n float64) float64 {
			return 8 * halfSin(int(n)) / math.Pow(n*math.Pi, 2)
		})
	case Square:
		p.real = make([]float32, Length)
		p.imag = harmonics(func(n float64) float64 {
			return 2 / (n * math.Pi) * (1 - sign(int(n)))
		})
	default:
		p.real, p.imag, p.name = p.customReal, p.customImag, Custom
		return
	}
	p.name = t
}

// harmonics returns Length coefficients with fn applied to every index
// except DC.
func harmonics(fn func(n float64) float64) []float32 {
	result := make([]float32, Length)
	for n := 1; n < Length; n++ {
		result[n] = float32(fn(float64(n)))
	}
	return result
}

// sign returns (-1)^n.
func sign(n int) float64 {
	if n%2 == 0 {
		return 1
	}
	return -1
}

// halfSin returns sin(n*pi/2) without rounding errors: zero for even n,
// alternating 1 and -1 for odd n.
func halfSin(n int) float64 {
	if n%2 == 0 {
		return 0
	}
	return sign((n - 1) / 2)
}

// Table renders a single period of the waveform with size samples. The
// result is normalized to peak amplitude of 1 when Constraints is true.
func (p *Periodic) Table(size int) []float32 {
	table := make([]float32, size)
	if size == 0 {
		return table
	}
	harmonicsLimit := size / 2
	peak := 0.0
	for i := range table {
		phase := 2 * math.Pi * float64(i) / float64(size)
		var v float64
		for n := 1; n < len(p.imag) && n <= harmonicsLimit; n++ {
			v += float64(p.real[n])*math.Cos(float64(n)*phase) + float64(p.imag[n])*math.Sin(float64(n)*phase)
		}
		table[i] = float32(v)
		if math.Abs(v) > peak {
			peak = math.Abs(v)
		}
	}
	if p.constraints && peak > 0 {
		for i := range table {
			table[i] = float32(float64(table[i]) / peak)
		}
	}
	return table
}
