package transcode

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-mix/mixfit/model"
)

// ErrNotPCM is returned for WAV files that are not integer PCM (for example
// IEEE float), which the native reader cannot scale.
var ErrNotPCM = errors.New("wav is not integer PCM")

const wavFormatPCM = 1

// decodeWAV reads an integer PCM WAV file into interleaved samples in [-1, 1].
func decodeWAV(path string) (*AudioData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, ErrNotPCM
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read PCM buffer: %w", err)
	}

	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, errors.New("WAV header has no usable format")
	}

	bitDepth := int(buf.SourceBitDepth)
	if bitDepth <= 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	pcm := make([]float64, frames*channels)

	// 8-bit WAV is unsigned; go-audio hands it back as 0..255
	if bitDepth == 8 {
		for i := range pcm {
			pcm[i] = (float64(buf.Data[i]) - 128) / 128
		}
	} else {
		scale := math.Ldexp(1, bitDepth-1)
		for i := range pcm {
			pcm[i] = float64(buf.Data[i]) / scale
		}
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
		Duration:   time.Duration(frames) * time.Second / time.Duration(buf.Format.SampleRate),
		Source:     path,
		Codec:      "pcm",
		BitDepth:   bitDepth,
	}, nil
}

// WriteWAV writes a signal as a 16-bit PCM WAV file, clipping to [-1, 1].
func WriteWAV(path string, sig model.AudioSignal) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output file creation error: %w", err)
	}
	defer out.Close()

	channels := sig.ChannelCount()
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sig.SampleRate},
		Data:           make([]int, len(sig.Samples)),
		SourceBitDepth: 16,
	}
	for i, v := range sig.Samples {
		v = math.Max(-1, math.Min(1, v))
		buf.Data[i] = int(math.Round(v * 32767))
	}

	encoder := wav.NewEncoder(out, sig.SampleRate, 16, channels, wavFormatPCM)
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("data writing error: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}

	return out.Close()
}
