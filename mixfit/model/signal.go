package model

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-mix/algorithms/common"
)

// AudioSignal is decoded PCM audio. Samples are interleaved when Channels > 1.
// Analysis code treats Samples as read-only.
type AudioSignal struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
}

// NamedSignal is one stem of the ordered analysis input.
type NamedSignal struct {
	Name   string
	Signal AudioSignal
}

// ChannelCount returns Channels, treating 0 as mono.
func (s AudioSignal) ChannelCount() int {
	if s.Channels <= 0 {
		return 1
	}
	return s.Channels
}

// Frames returns the number of samples per channel.
func (s AudioSignal) Frames() int {
	return len(s.Samples) / s.ChannelCount()
}

// Duration returns the playing time of the signal.
func (s AudioSignal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(s.Frames()) * time.Second / time.Duration(s.SampleRate)
}

// Validate reports why a signal cannot be analysed.
func (s AudioSignal) Validate() error {
	if len(s.Samples) == 0 {
		return fmt.Errorf("%w: empty signal", ErrDecodeOrAnalysis)
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("%w: invalid sample rate %d", ErrDecodeOrAnalysis, s.SampleRate)
	}
	if len(s.Samples)%s.ChannelCount() != 0 {
		return fmt.Errorf("%w: %d samples do not divide into %d channels",
			ErrDecodeOrAnalysis, len(s.Samples), s.ChannelCount())
	}
	if !common.AllFinite(s.Samples) {
		return fmt.Errorf("%w: non-finite samples", ErrDecodeOrAnalysis)
	}
	return nil
}

// Mono returns the channel average as a new slice. Mono input is copied.
func (s AudioSignal) Mono() []float64 {
	channels := s.ChannelCount()
	frames := s.Frames()
	mono := make([]float64, frames)

	if channels == 1 {
		copy(mono, s.Samples)
		return mono
	}

	for i := range frames {
		sum := 0.0
		for ch := range channels {
			sum += s.Samples[i*channels+ch]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
