package transcode

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
)

func writeTestWAV(t *testing.T, sig model.AudioSignal) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stem.wav")
	require.NoError(t, WriteWAV(path, sig))
	return path
}

func TestWAVRoundTrip(t *testing.T) {
	frames := 4800
	samples := make([]float64, 0, 2*frames)
	for i := range frames {
		v := 0.5 * math.Sin(2*math.Pi*440*float64(i)/48000)
		samples = append(samples, v, -v)
	}
	path := writeTestWAV(t, model.AudioSignal{Samples: samples, SampleRate: 48000, Channels: 2})

	d := NewDecoder(config.DecoderConfig{}, 44100)
	data, err := d.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 48000, data.SampleRate, "native WAV keeps its own rate")
	assert.Equal(t, 2, data.Channels)
	assert.Equal(t, 16, data.BitDepth)
	assert.Equal(t, 100*time.Millisecond, data.Duration)
	require.Len(t, data.PCM, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], data.PCM[i], 1.0/32767)
	}

	sig := data.Signal()
	assert.Equal(t, 2, sig.Channels)
	assert.NoError(t, sig.Validate())
}

func TestWAVClipsOnWrite(t *testing.T) {
	path := writeTestWAV(t, model.AudioSignal{Samples: []float64{2, -2, 0}, SampleRate: 8000})

	data, err := NewDecoder(config.DecoderConfig{}, 0).DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, data.PCM[0], 1e-4)
	assert.InDelta(t, -1.0, data.PCM[1], 1e-4)
	assert.Equal(t, 0.0, data.PCM[2])
}

func TestDecodeMaxDuration(t *testing.T) {
	path := writeTestWAV(t, model.AudioSignal{Samples: make([]float64, 8000), SampleRate: 8000})

	d := NewDecoder(config.DecoderConfig{MaxDuration: 250 * time.Millisecond}, 0)
	data, err := d.DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, data.PCM, 2000)
	assert.Equal(t, 250*time.Millisecond, data.Duration)
}

func TestDecodeInvalidWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a riff file"), 0o600))

	_, err := NewDecoder(config.DecoderConfig{}, 0).DecodeFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDecodeOrAnalysis)
}

func TestDecodeMissingFFprobe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stem.mp3")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfb}, 0o600))

	d := NewDecoder(config.DecoderConfig{
		FFmpegPath:  filepath.Join(t.TempDir(), "no-ffmpeg"),
		FFprobePath: filepath.Join(t.TempDir(), "no-ffprobe"),
		Timeout:     time.Second,
	}, 44100)

	_, err := d.DecodeFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDecodeOrAnalysis)
	assert.Contains(t, err.Error(), "ffprobe failed")

	assert.Error(t, d.CheckFFmpeg(context.Background()))
}

func TestParseFFprobeOutput(t *testing.T) {
	meta, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"48000","channels":2,"duration":"3.5","bit_rate":"320000"}]}`))
	require.NoError(t, err)
	assert.Equal(t, &AudioMetadata{SampleRate: 48000, Channels: 2, Codec: "mp3", Duration: 3.5, Bitrate: 320000}, meta)

	meta, err = parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","codec_name":"flac","sample_rate":"?","channels":1}]}`))
	require.NoError(t, err)
	assert.Equal(t, config.CanonicalSampleRate, meta.SampleRate)

	for _, bad := range []string{
		`{"streams":[]}`,
		`{"streams":[{"codec_type":"video","channels":2}]}`,
		`{"streams":[{"codec_type":"audio","channels":0}]}`,
		`not json`,
	} {
		_, err := parseFFprobeOutput([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	d := NewDecoder(config.DecoderConfig{MaxDuration: 90 * time.Second}, 44100)

	args := d.buildFFmpegArgs(&AudioMetadata{SampleRate: 48000, Channels: 2})
	assert.Equal(t, []string{
		"-vn", "-f", "f64le", "-ac", "2", "-ar", "44100",
		"-af", "aresample=resampler=soxr:precision=28",
		"-t", "90.00",
	}, args)

	args = NewDecoder(config.DecoderConfig{}, 44100).buildFFmpegArgs(&AudioMetadata{SampleRate: 44100, Channels: 1})
	assert.NotContains(t, args, "-af")
}

func TestBytesToFloat64(t *testing.T) {
	raw := make([]byte, 8*2+3)
	binary.LittleEndian.PutUint64(raw[0:], math.Float64bits(0.25))
	binary.LittleEndian.PutUint64(raw[8:], math.Float64bits(-1))

	assert.Equal(t, []float64{0.25, -1}, bytesToFloat64(raw))
	assert.Nil(t, bytesToFloat64([]byte{1, 2, 3}))
}
