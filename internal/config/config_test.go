package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivlev/img2video/internal/media"
	"github.com/ivlev/img2video/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	tl := c.Timeline()
	assert.Equal(t, 3.0, tl.DefaultSegmentDuration)
	assert.True(t, tl.CrossfadeEnabled)
	assert.Equal(t, 0.7, tl.CrossfadeDuration)
	assert.Nil(t, tl.ExplicitDurations)
	assert.Equal(t, media.CanvasSpec{Width: 1280, Height: 720, FPS: 24}, c.Canvas())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"odd width", func(c *Config) { c.Width = 1281 }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"zero page duration", func(c *Config) { c.PageDuration = 0 }},
		{"negative fade", func(c *Config) { c.FadeDuration = -1 }},
		{"NaN page duration", func(c *Config) { c.PageDuration = math.NaN() }},
		{"infinite page duration", func(c *Config) { c.PageDuration = math.Inf(1) }},
		{"NaN fade", func(c *Config) { c.FadeDuration = math.NaN() }},
		{"NaN explicit duration", func(c *Config) { c.PageDurations = []float64{1, math.NaN()} }},
		{"zero explicit duration", func(c *Config) { c.PageDurations = []float64{0} }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"loud music", func(c *Config) { c.MusicPath = "m.mp3"; c.MusicVolume = 2 }},
		{"zero dpi", func(c *Config) { c.DPI = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), media.ErrInvalidConfig)
		})
	}
}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		preset string
		w, h   int
	}{
		{"16:9", 1280, 720},
		{"9:16", 720, 1280},
		{"4:5", 1080, 1350},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			c := Default()
			require.NoError(t, c.ApplyPreset(tt.preset))
			assert.Equal(t, tt.w, c.Width)
			assert.Equal(t, tt.h, c.Height)
			assert.NoError(t, c.Validate())
		})
	}

	c := Default()
	assert.NoError(t, c.ApplyPreset(""))
	assert.ErrorIs(t, c.ApplyPreset("21:9"), media.ErrInvalidConfig)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("IMG2VIDEO_ENCODER=h264_nvenc\nIMG2VIDEO_WORKERS=3\n"), 0644))
	t.Setenv(EnvEncoder, "")
	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvQuality, "31")
	os.Unsetenv(EnvEncoder)
	os.Unsetenv(EnvWorkers)

	c := Default()
	require.NoError(t, LoadEnv(c, envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "h264_nvenc", c.VideoEncoder)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, 31, c.Quality)

	t.Setenv(EnvWorkers, "many")
	assert.ErrorIs(t, LoadEnv(Default(), filepath.Join(dir, "missing.env")), media.ErrInvalidConfig)
}

func TestManifestWriteReadApply(t *testing.T) {
	dir := t.TempDir()
	fade := 0.4
	loop := true
	m := NewManifest([]string{"a.png", "/abs/b.jpg"}, 2.5)
	m.Slides[1].Duration = 0
	m.Crossfade = &fade
	m.Loop = &loop
	m.Canvas = &media.CanvasSpec{Width: 720, Height: 1280}
	m.Audio = "voice.wav"

	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, WriteManifest(m, path))

	read, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, ManifestVersion, read.Version)
	require.Len(t, read.Slides, 2)

	c := Default()
	paths, err := read.Apply(c, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.png"), "/abs/b.jpg"}, paths)
	assert.Equal(t, []float64{2.5, 3.0}, c.PageDurations)
	assert.Equal(t, 0.4, c.FadeDuration)
	assert.True(t, c.FadeEnabled)
	assert.True(t, c.LoopToFill)
	assert.Equal(t, 720, c.Width)
	assert.Equal(t, 1280, c.Height)
	assert.Equal(t, 24, c.FPS)
	assert.Equal(t, filepath.Join(dir, "voice.wav"), c.AudioPath)
}

func TestManifestWithoutDurationsKeepsDefault(t *testing.T) {
	c := Default()
	paths, err := NewManifest([]string{"a.png", "b.png"}, 0).Apply(c, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, paths)
	assert.Nil(t, c.PageDurations)
}

func TestManifestErrors(t *testing.T) {
	_, err := (&Manifest{}).Apply(Default(), "")
	assert.ErrorIs(t, err, media.ErrInvalidPlan)

	_, err = (&Manifest{Slides: []Slide{{Input: "a.png", Duration: -1}}}).Apply(Default(), "")
	assert.ErrorIs(t, err, media.ErrInvalidPlan)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slides: [unclosed"), 0644))
	_, err = ReadManifest(path)
	assert.ErrorIs(t, err, media.ErrInvalidConfig)
}

func TestGenerateManifestPath(t *testing.T) {
	path := GenerateManifestPath("manifests")
	assert.Contains(t, path, filepath.Join("manifests", "manifest_"))
	assert.Equal(t, ".yaml", filepath.Ext(path))
}

func TestFindLatestManifest(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		filepath.Join(dir, "manifest_2026-02-12_10-00-00.yaml"),
		filepath.Join(dir, "manifest_2026-02-13_01-00-00.yaml"),
		filepath.Join(dir, "manifest_2026-02-11_15-30-00.yaml"),
	}
	for i, f := range files {
		require.NoError(t, os.WriteFile(f, []byte("version: \"1.0\""), 0644))
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(f, modTime, modTime))
	}

	latest, err := FindLatestManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, files[len(files)-1], latest)

	_, err = FindLatestManifest(t.TempDir())
	assert.Error(t, err)
}

func TestManifestDurationsSurviveAudioSync(t *testing.T) {
	c := Default()
	m := &Manifest{Slides: []Slide{{Input: "a.png", Duration: 1}, {Input: "b.png", Duration: 5}}}
	_, err := m.Apply(c, "")
	require.NoError(t, err)

	p, err := timeline.BuildPlan(2, c.Timeline(), timeline.TargetOf(12))
	require.NoError(t, err)
	require.Len(t, p.Segments, 2)
	assert.InDelta(t, 2.0, p.Segments[0].Length, 1e-9)
	assert.InDelta(t, 10.0, p.Segments[1].Length, 1e-9)
	assert.Equal(t, 12.0, p.Total)
}
