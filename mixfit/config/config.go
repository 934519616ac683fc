package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-yaml"
)

// CanonicalSampleRate is the rate every stem is resampled to before analysis.
const CanonicalSampleRate = 44100

// Thresholds are the tunable constants of the suggestion rules.
type Thresholds struct {
	HighPassFloor   float64 `json:"high_pass_floor" yaml:"high_pass_floor"`     // sub band energy above which HPF is suggested
	MudRatio        float64 `json:"mud_ratio" yaml:"mud_ratio"`                 // low band vs loudest upper band
	VocalCentroidHz float64 `json:"vocal_centroid_hz" yaml:"vocal_centroid_hz"` // vocals below this lack presence
	UnmaskGapDB     float64 `json:"unmask_gap_db" yaml:"unmask_gap_db"`         // mix-over-stem gap that counts as masking
}

// DefaultThresholds returns the stock rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighPassFloor:   1e-6,
		MudRatio:        1.4,
		VocalCentroidHz: 1500,
		UnmaskGapDB:     6.0,
	}
}

// AnalysisConfig configures the spectral analysis core.
type AnalysisConfig struct {
	SampleRate     int            `json:"sample_rate" yaml:"sample_rate"`
	WindowSize     int            `json:"window_size" yaml:"window_size"`
	HopSize        int            `json:"hop_size" yaml:"hop_size"`
	RolloffPercent float64        `json:"rolloff_percent" yaml:"rolloff_percent"`
	Workers        int            `json:"workers" yaml:"workers"`
	FailFast       bool           `json:"fail_fast" yaml:"fail_fast"`
	Bands          []Band         `json:"bands" yaml:"bands"`
	Thresholds     Thresholds     `json:"thresholds" yaml:"thresholds"`
	Roles          RoleClassifier `json:"roles" yaml:"roles"`
}

// DefaultAnalysisConfig returns the analysis settings used when nothing is configured.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		SampleRate:     CanonicalSampleRate,
		WindowSize:     2048,
		HopSize:        512,
		RolloffPercent: 0.85,
		Workers:        runtime.NumCPU(),
		FailFast:       true,
		Bands:          DefaultBands(),
		Thresholds:     DefaultThresholds(),
		Roles:          DefaultRoleClassifier(),
	}
}

// DecoderConfig holds stem decoder configuration
type DecoderConfig struct {
	FFmpegPath  string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`   // Path to ffmpeg binary
	FFprobePath string        `json:"ffprobe_path" yaml:"ffprobe_path"` // Path to ffprobe binary
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`           // Timeout for ffmpeg operations
	ForceFFmpeg bool          `json:"force_ffmpeg" yaml:"force_ffmpeg"` // Route WAV through ffmpeg too
	MaxDuration time.Duration `json:"max_duration" yaml:"max_duration"` // 0 means no limit
}

// SeparationConfig selects and configures the source separation tool.
type SeparationConfig struct {
	Engine  string        `json:"engine" yaml:"engine"` // "spleeter" or "demucs"
	Bin     string        `json:"bin" yaml:"bin"`       // defaults to the engine name
	Model   string        `json:"model" yaml:"model"`   // engine default when empty
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StoreConfig locates the analysis cache and report history.
type StoreConfig struct {
	CacheDir    string `json:"cache_dir" yaml:"cache_dir"`       // empty disables the cache
	HistoryPath string `json:"history_path" yaml:"history_path"` // empty disables history
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr           string `json:"addr" yaml:"addr"`
	UploadDir      string `json:"upload_dir" yaml:"upload_dir"`
	MaxUploadBytes int64  `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Colors bool   `json:"colors" yaml:"colors"`
}

// Config is the complete application configuration.
type Config struct {
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Decoder    DecoderConfig    `json:"decoder" yaml:"decoder"`
	Separation SeparationConfig `json:"separation" yaml:"separation"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// DefaultConfig returns sensible defaults for every section
func DefaultConfig() *Config {
	return &Config{
		Analysis: DefaultAnalysisConfig(),
		Decoder: DecoderConfig{
			FFmpegPath:  "ffmpeg",  // Assume in PATH
			FFprobePath: "ffprobe", // Assume in PATH
			Timeout:     60 * time.Second,
		},
		Separation: SeparationConfig{
			Engine:  "spleeter",
			Timeout: 10 * time.Minute,
		},
		Store: StoreConfig{},
		Server: ServerConfig{
			Addr:           ":5000",
			UploadDir:      "uploads",
			MaxUploadBytes: 200 * 1024 * 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Colors: true,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the analysis cannot work with.
func (c *Config) Validate() error {
	return c.Analysis.Validate()
}

// Validate checks the analysis section.
func (a AnalysisConfig) Validate() error {
	var errs []error

	if a.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive: %d", a.SampleRate))
	}
	if a.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("window_size must be positive: %d", a.WindowSize))
	}
	if a.HopSize <= 0 {
		errs = append(errs, fmt.Errorf("hop_size must be positive: %d", a.HopSize))
	}
	if a.RolloffPercent <= 0 || a.RolloffPercent > 1 {
		errs = append(errs, fmt.Errorf("rolloff_percent must be in (0, 1]: %v", a.RolloffPercent))
	}
	if a.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative: %d", a.Workers))
	}

	// the mud rule compares band 1 against bands 2 and up
	if len(a.Bands) < 3 {
		errs = append(errs, fmt.Errorf("at least 3 bands are required, got %d", len(a.Bands)))
	}
	for i, b := range a.Bands {
		if b.Low <= 0 || b.High <= b.Low {
			errs = append(errs, fmt.Errorf("band %d (%v-%v Hz) must satisfy 0 < low < high", i, b.Low, b.High))
		}
		if i > 0 && b.Low < a.Bands[i-1].Low {
			errs = append(errs, fmt.Errorf("band %d is out of order", i))
		}
	}

	t := a.Thresholds
	if t.HighPassFloor <= 0 || t.MudRatio <= 0 || t.VocalCentroidHz <= 0 || t.UnmaskGapDB <= 0 {
		errs = append(errs, fmt.Errorf("thresholds must be positive: %+v", t))
	}

	return errors.Join(errs...)
}

// EffectiveWorkers returns the configured worker count, at least 1.
func (a AnalysisConfig) EffectiveWorkers() int {
	if a.Workers <= 0 {
		return max(1, runtime.NumCPU())
	}
	return a.Workers
}
