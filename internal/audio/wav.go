package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ivlev/img2video/internal/media"
)

// DecodeWAV reads a PCM WAV stream into an asset.
func DecodeWAV(r io.ReadSeeker, name string) (media.AudioAsset, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return media.AudioAsset{}, fmt.Errorf("%w: %s is not a valid WAV file", media.ErrInvalidAsset, name)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return media.AudioAsset{}, fmt.Errorf("decode %s: %w", name, err)
	}

	// 8-bit PCM is unsigned around 128; wider depths are signed.
	offset, scale := 0, float32(goaudio.IntMaxSignedValue(int(decoder.BitDepth)))
	if decoder.BitDepth == 8 {
		offset, scale = 128, 128
	}
	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s-offset) / scale
	}

	asset := media.AudioAsset{
		Name:       name,
		Samples:    samples,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
	}
	if err := asset.Validate(); err != nil {
		return media.AudioAsset{}, err
	}
	return asset, nil
}

// LoadWAV decodes a WAV file from disk.
func LoadWAV(path string) (media.AudioAsset, error) {
	f, err := os.Open(path)
	if err != nil {
		return media.AudioAsset{}, err
	}
	defer f.Close()
	return DecodeWAV(f, filepath.Base(path))
}

// WriteWAV encodes asset as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, asset media.AudioAsset) error {
	const bitDepth = 16
	enc := wav.NewEncoder(w, asset.SampleRate, bitDepth, asset.Channels, 1)

	maxVal := float64(goaudio.IntMaxSignedValue(bitDepth))
	data := make([]int, len(asset.Samples))
	for i, s := range asset.Samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * maxVal))
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: asset.Channels, SampleRate: asset.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("encode %s: %w", asset.Name, err)
	}
	return enc.Close()
}

// SaveWAV writes asset to path.
func SaveWAV(path string, asset media.AudioAsset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, asset); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
