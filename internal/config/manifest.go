package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/img2video/internal/media"
)

const ManifestVersion = "1.0"

// Manifest is an editable project file: the ordered slides with optional
// per-slide durations and canvas/crossfade overrides.
type Manifest struct {
	Version   string            `yaml:"version"`
	Canvas    *media.CanvasSpec `yaml:"canvas,omitempty"`
	Crossfade *float64          `yaml:"crossfade,omitempty"`
	Loop      *bool             `yaml:"loop,omitempty"`
	Audio     string            `yaml:"audio,omitempty"`
	Music     string            `yaml:"music,omitempty"`
	Slides    []Slide           `yaml:"slides"`
}

// Slide is one image of the manifest.
type Slide struct {
	Input    string  `yaml:"input"`
	Duration float64 `yaml:"duration,omitempty"` // seconds, 0 = default
}

// NewManifest lists paths with the default duration filled in, ready to be
// edited by hand.
func NewManifest(paths []string, duration float64) *Manifest {
	m := &Manifest{Version: ManifestVersion}
	for _, p := range paths {
		m.Slides = append(m.Slides, Slide{Input: p, Duration: duration})
	}
	return m
}

// Apply merges the manifest into c and returns the slide paths. Relative
// paths are resolved against baseDir.
func (m *Manifest) Apply(c *Config, baseDir string) ([]string, error) {
	if len(m.Slides) == 0 {
		return nil, fmt.Errorf("%w: manifest has no slides", media.ErrInvalidPlan)
	}

	paths := make([]string, len(m.Slides))
	durations := make([]float64, len(m.Slides))
	explicit := false
	for i, s := range m.Slides {
		if s.Input == "" {
			return nil, fmt.Errorf("%w: slide %d has no input", media.ErrInvalidPlan, i+1)
		}
		if s.Duration < 0 {
			return nil, fmt.Errorf("%w: slide %d has duration %.3fs", media.ErrInvalidPlan, i+1, s.Duration)
		}
		paths[i] = resolve(baseDir, s.Input)
		durations[i] = s.Duration
		if s.Duration > 0 {
			explicit = true
		} else {
			durations[i] = c.PageDuration
		}
	}
	if explicit {
		c.PageDurations = durations
	}

	if m.Canvas != nil {
		c.Width, c.Height = m.Canvas.Width, m.Canvas.Height
		if m.Canvas.FPS > 0 {
			c.FPS = m.Canvas.FPS
		}
	}
	if m.Crossfade != nil {
		c.FadeDuration = *m.Crossfade
		c.FadeEnabled = *m.Crossfade > 0
	}
	if m.Loop != nil {
		c.LoopToFill = *m.Loop
	}
	if m.Audio != "" && c.AudioPath == "" {
		c.AudioPath = resolve(baseDir, m.Audio)
	}
	if m.Music != "" && c.MusicPath == "" {
		c.MusicPath = resolve(baseDir, m.Music)
	}
	return paths, nil
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

// WriteManifest writes a manifest to a YAML file
func WriteManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadManifest reads a manifest from a YAML file
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %v", media.ErrInvalidConfig, path, err)
	}
	if m.Version == "" {
		m.Version = ManifestVersion
	}

	return &m, nil
}

// GenerateManifestPath creates a timestamped manifest filename in dir.
func GenerateManifestPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("manifest_%s.yaml", timestamp))
}

// FindLatestManifest finds the most recently modified manifest in dir.
func FindLatestManifest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read manifests directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var manifests []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		manifests = append(manifests, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(manifests) == 0 {
		return "", fmt.Errorf("no manifest files found in %s", dir)
	}

	// Newest first
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].mod.After(manifests[j].mod)
	})

	return manifests[0].path, nil
}
