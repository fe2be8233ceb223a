package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ivlev/img2video/internal/config"
	"github.com/ivlev/img2video/internal/media"
)

func TestParseDurations(t *testing.T) {
	d, err := parseDurations("1.5, 2,0.25")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2, 0.25}, d)

	_, err = parseDurations("1,abc")
	assert.ErrorIs(t, err, media.ErrInvalidConfig)

	// ParseFloat accepts "nan"; validation must not.
	cfg := config.Default()
	cfg.PageDurations, err = parseDurations("nan,1")
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), media.ErrInvalidConfig)
}

func TestDefaultOutput(t *testing.T) {
	cfg := config.Default()
	cfg.InputPath = "/data/My Slides.pdf"
	cfg.AudioPath = "/data/voice.mp3"

	out := defaultOutput(cfg)
	assert.Equal(t, outputDir, filepath.Dir(out))
	assert.True(t, strings.HasPrefix(filepath.Base(out), "My_Slides_"))
	assert.Equal(t, ".mp4", filepath.Ext(out))

	cfg.InputPath = t.TempDir()
	cfg.Preview = true
	out = defaultOutput(cfg)
	assert.True(t, strings.HasPrefix(filepath.Base(out), "voice_"))
	assert.Equal(t, ".avi", filepath.Ext(out))
}

func TestEnsureDirsWarnsOnFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	core, logs := observer.New(zap.WarnLevel)
	good := filepath.Join(root, "a", "b")
	ensureDirs(zap.New(core), good, filepath.Join(blocker, "sub"))

	info, err := os.Stat(good)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries := logs.FilterMessage("cannot create directory").All()
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(blocker, "sub"), entries[0].ContextMap()["dir"])
}
