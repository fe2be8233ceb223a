package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ivlev/img2video/internal/audio"
	"github.com/ivlev/img2video/internal/media"
	"github.com/ivlev/img2video/internal/timeline"
)

type Config struct {
	InputPath      string
	OutputVideo    string
	AudioPath      string
	MusicPath      string
	ManifestPath   string
	Width          int
	Height         int
	FPS            int
	Workers        int
	PageDuration   float64
	PageDurations  []float64
	FadeEnabled    bool
	FadeDuration   float64
	LoopToFill     bool
	AudioSync      bool
	MusicVolume    float64
	MusicLoop      bool
	DPI            int
	Preset         string
	VideoEncoder   string
	Quality        int
	Preview        bool
	EndCardContent string
	ShowStats      bool
	BuildVersion   string
}

// Default mirrors the CLI defaults.
func Default() *Config {
	return &Config{
		Width:        1280,
		Height:       720,
		FPS:          24,
		Workers:      4,
		PageDuration: 3.0,
		FadeEnabled:  true,
		FadeDuration: 0.7,
		AudioSync:    true,
		MusicVolume:  audio.DefaultAttenuation,
		DPI:          150,
		VideoEncoder: "libx264",
		Quality:      23,
	}
}

// Canvas returns the output frame description.
func (c *Config) Canvas() media.CanvasSpec {
	return media.CanvasSpec{Width: c.Width, Height: c.Height, FPS: c.FPS}
}

// Timeline returns the scheduling settings for the timeline core.
func (c *Config) Timeline() timeline.Config {
	return timeline.Config{
		DefaultSegmentDuration: c.PageDuration,
		CrossfadeEnabled:       c.FadeEnabled,
		CrossfadeDuration:      c.FadeDuration,
		ExplicitDurations:      c.PageDurations,
		LoopToFill:             c.LoopToFill,
	}
}

// MixOptions returns how background music is laid under the voice track.
func (c *Config) MixOptions() audio.MixOptions {
	return audio.MixOptions{Attenuation: c.MusicVolume, Loop: c.MusicLoop}
}

// Validate checks everything that can be checked before assets are loaded.
func (c *Config) Validate() error {
	if err := c.Canvas().Validate(); err != nil {
		return err
	}
	if !(c.PageDuration > 0) || math.IsInf(c.PageDuration, 0) {
		return fmt.Errorf("%w: page duration %.3fs must be positive and finite", media.ErrInvalidConfig, c.PageDuration)
	}
	for i, d := range c.PageDurations {
		if !(d > 0) || math.IsInf(d, 0) {
			return fmt.Errorf("%w: duration of image %d is %.3fs", media.ErrInvalidConfig, i, d)
		}
	}
	if !(c.FadeDuration >= 0) || math.IsInf(c.FadeDuration, 0) {
		return fmt.Errorf("%w: fade duration %.3fs must be non-negative and finite", media.ErrInvalidConfig, c.FadeDuration)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers %d must be positive", media.ErrInvalidConfig, c.Workers)
	}
	if c.MusicPath != "" && !(c.MusicVolume > 0 && c.MusicVolume <= 1) {
		return fmt.Errorf("%w: music volume %.3f outside (0, 1]", media.ErrInvalidConfig, c.MusicVolume)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("%w: dpi %d must be positive", media.ErrInvalidConfig, c.DPI)
	}
	return nil
}

// ApplyPreset switches the canvas to a named aspect preset.
func (c *Config) ApplyPreset(name string) error {
	switch name {
	case "":
		return nil
	case "16:9":
		c.Width, c.Height = 1280, 720
	case "9:16":
		c.Width, c.Height = 720, 1280
	case "4:5":
		c.Width, c.Height = 1080, 1350
	default:
		return fmt.Errorf("%w: unknown preset %q", media.ErrInvalidConfig, name)
	}
	c.Preset = name
	return nil
}

// Environment variables that override defaults before flags are parsed.
const (
	EnvEncoder = "IMG2VIDEO_ENCODER"
	EnvWorkers = "IMG2VIDEO_WORKERS"
	EnvQuality = "IMG2VIDEO_QUALITY"
)

// LoadEnv reads an optional .env file and applies the IMG2VIDEO_*
// variables to c. A missing file is not an error.
func LoadEnv(c *Config, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvEncoder); v != "" {
		c.VideoEncoder = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", media.ErrInvalidConfig, EnvWorkers, v)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvQuality); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", media.ErrInvalidConfig, EnvQuality, v)
		}
		c.Quality = n
	}
	return nil
}
