// Package wav encodes rendered audio data into wav files and decodes it
// back.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/audiograph/audiodata"
	"pipelined.dev/audiograph/signal"
)

// pcm is the wav audio format tag of integer samples.
const pcm = 1

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")
	// ErrInvalidFile is returned when decoded stream is not a wav file.
	ErrInvalidFile = errors.New("wav is not valid")
)

func validateBitDepth(bitDepth signal.BitDepth) error {
	if bitDepth != signal.BitDepth16 && bitDepth != signal.BitDepth32 {
		return fmt.Errorf("%d bit: %w", bitDepth, ErrUnsupportedBitDepth)
	}
	return nil
}

// Encode writes audio data as wav with provided bit depth. Samples outside
// of [-1, 1] range are clipped.
func Encode(w io.WriteSeeker, data *audiodata.AudioData, bitDepth signal.BitDepth) error {
	if err := validateBitDepth(bitDepth); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}
	e := wav.NewEncoder(w, data.SampleRate, int(bitDepth), data.NumberOfChannels, pcm)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: data.NumberOfChannels,
			SampleRate:  data.SampleRate,
		},
		Data:           signal.Float32(data.ChannelData).AsInterInt(bitDepth),
		SourceBitDepth: int(bitDepth),
	}
	if err := e.Write(ib); err != nil {
		return fmt.Errorf("error writing samples: %w", err)
	}
	return e.Close()
}

// Decode reads the whole wav stream into audio data.
func Decode(r io.ReadSeeker) (*audiodata.AudioData, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalidFile
	}
	bitDepth := signal.BitDepth(d.BitDepth)
	if err := validateBitDepth(bitDepth); err != nil {
		return nil, err
	}
	ib, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("error reading samples: %w", err)
	}
	numChannels := int(d.NumChans)
	channelData := signal.InterInt{
		Data:        ib.Data,
		NumChannels: numChannels,
		BitDepth:    bitDepth,
	}.AsFloat32()
	if channelData == nil {
		channelData = signal.EmptyFloat32(numChannels, 0)
	}
	return audiodata.New(channelData, int(d.SampleRate)), nil
}

// WriteFile creates a file at path and encodes audio data into it.
func WriteFile(path string, data *audiodata.AudioData, bitDepth signal.BitDepth) error {
	if err := validateBitDepth(bitDepth); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, data, bitDepth); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the wav file at path.
func ReadFile(path string) (*audiodata.AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
