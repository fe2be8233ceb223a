package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ivlev/img2video/internal/media"
)

// Load decodes an audio file. WAV is read directly; any other container is
// first converted to 16-bit PCM WAV by ffmpeg.
func Load(ctx context.Context, path string) (media.AudioAsset, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return LoadWAV(path)
	}

	tmp, err := os.CreateTemp("", "img2video_audio_*.wav")
	if err != nil {
		return media.AudioAsset{}, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-v", "error",
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		tmpPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return media.AudioAsset{}, fmt.Errorf("ffmpeg decode %s: %v, output: %s", path, err, string(out))
	}

	asset, err := LoadWAV(tmpPath)
	if err != nil {
		return media.AudioAsset{}, err
	}
	asset.Name = filepath.Base(path)
	return asset, nil
}
