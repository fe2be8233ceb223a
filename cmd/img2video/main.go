package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/img2video/internal/audio"
	"github.com/ivlev/img2video/internal/config"
	"github.com/ivlev/img2video/internal/engine"
	"github.com/ivlev/img2video/internal/media"
	"github.com/ivlev/img2video/internal/source"
	"github.com/ivlev/img2video/internal/system"
	"github.com/ivlev/img2video/internal/video"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

const (
	imagesDir    = "input/images"
	pdfDir       = "input/pdf"
	audioDir     = "input/audio"
	manifestsDir = "input/manifests"
	outputDir    = "output"
)

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("img2video failed", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	system.InitResourceLimits(log)

	ensureDirs(log, imagesDir, pdfDir, audioDir, manifestsDir, outputDir)

	cfg := config.Default()
	cfg.BuildVersion = version
	if err := config.LoadEnv(cfg); err != nil {
		return err
	}

	inputPtr := flag.String("input", "", "Folder of images, a single image or a PDF (default: newest PDF in input/pdf, else input/images)")
	outputPtr := flag.String("output", "", "Output video (default: output/<name>_<timestamp>.mp4)")
	audioPtr := flag.String("audio", "", "Voice track (default: newest file in input/audio; \"none\" for silence)")
	musicPtr := flag.String("music", "", "Background music mixed under the voice track")
	musicVolumePtr := flag.Float64("music-volume", cfg.MusicVolume, "Background music gain, 0 < v <= 1")
	musicLoopPtr := flag.Bool("music-loop", false, "Repeat background music shorter than the voice track")
	pageDurationPtr := flag.Float64("page-duration", cfg.PageDuration, "Seconds each image is shown")
	durationsPtr := flag.String("durations", "", "Comma separated per-image durations in seconds")
	manifestPtr := flag.String("manifest", "", "YAML manifest with slides and durations (\"latest\" for the newest in input/manifests)")
	generateManifestPtr := flag.String("generate-manifest", "", "Write a starter manifest for -input to this path (\"auto\" for input/manifests) and exit")
	loopPtr := flag.Bool("loop", false, "Cycle the images until the audio ends")
	audioSyncPtr := flag.Bool("audio-sync", cfg.AudioSync, "Match the video length to the voice track")
	widthPtr := flag.Int("width", cfg.Width, "Width")
	heightPtr := flag.Int("height", cfg.Height, "Height")
	presetPtr := flag.String("preset", "", "Format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	fpsPtr := flag.Int("fps", cfg.FPS, "FPS")
	fadePtr := flag.Float64("fade", cfg.FadeDuration, "Crossfade duration in seconds")
	noFadePtr := flag.Bool("no-fade", false, "Hard cuts between images")
	workersPtr := flag.Int("workers", 0, "Frame workers (0 - sized from CPU and memory)")
	qualityPtr := flag.Int("quality", 0, "Video quality (0 - auto, x264: CRF 1-51, NVENC: CQ, VideoToolbox: bitrate = Q*100kbit/s)")
	dpiPtr := flag.Int("dpi", cfg.DPI, "DPI for PDF pages")
	previewPtr := flag.Bool("preview", false, "Write a Motion-JPEG AVI preview without ffmpeg (no audio)")
	qrPtr := flag.String("qr", "", "Append a QR code end card for this text or URL")
	statsPtr := flag.Bool("stats", false, "Print a performance report and append it to benchmark.log")

	flag.Parse()

	cfg.Width, cfg.Height, cfg.FPS = *widthPtr, *heightPtr, *fpsPtr
	if err := cfg.ApplyPreset(*presetPtr); err != nil {
		return err
	}
	cfg.PageDuration = *pageDurationPtr
	cfg.FadeDuration = *fadePtr
	cfg.FadeEnabled = !*noFadePtr && *fadePtr > 0
	cfg.LoopToFill = *loopPtr
	cfg.AudioSync = *audioSyncPtr
	cfg.MusicPath = *musicPtr
	cfg.MusicVolume = *musicVolumePtr
	cfg.MusicLoop = *musicLoopPtr
	cfg.DPI = *dpiPtr
	cfg.Preview = *previewPtr
	cfg.EndCardContent = *qrPtr
	cfg.ShowStats = *statsPtr

	if *durationsPtr != "" {
		durations, err := parseDurations(*durationsPtr)
		if err != nil {
			return err
		}
		cfg.PageDurations = durations
	}

	switch {
	case *workersPtr > 0:
		cfg.Workers = *workersPtr
	case os.Getenv(config.EnvWorkers) == "":
		cfg.Workers = system.DefaultWorkers(3 * cfg.Width * cfg.Height)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Source selection: manifest, explicit input, newest PDF, image folder.
	var src source.Source
	switch {
	case *manifestPtr != "":
		manifestPath := *manifestPtr
		if manifestPath == "latest" {
			latest, err := config.FindLatestManifest(manifestsDir)
			if err != nil {
				return err
			}
			manifestPath = latest
		}
		m, err := config.ReadManifest(manifestPath)
		if err != nil {
			return err
		}
		paths, err := m.Apply(cfg, filepath.Dir(manifestPath))
		if err != nil {
			return err
		}
		cfg.ManifestPath = manifestPath
		cfg.InputPath = manifestPath
		src = source.NewImageListSource(paths)
		log.Info("using manifest", zap.String("path", manifestPath), zap.Int("slides", len(paths)))
	default:
		cfg.InputPath = *inputPtr
		if cfg.InputPath == "" {
			if latest, err := system.FindLatest(pdfDir, []string{".pdf"}); err == nil {
				cfg.InputPath = latest
			} else {
				cfg.InputPath = imagesDir
			}
			log.Info("input selected", zap.String("path", cfg.InputPath))
		}
		var err error
		if isPDF(cfg.InputPath) {
			src, err = source.NewFitzPDFSource(cfg.InputPath)
		} else {
			src, err = source.NewImageSource(cfg.InputPath)
		}
		if err != nil {
			return fmt.Errorf("open source %s: %w", cfg.InputPath, err)
		}
	}
	defer src.Close()

	if src.PageCount() == 0 {
		return fmt.Errorf("%w: %s has no pages or images", media.ErrInvalidPlan, cfg.InputPath)
	}

	audioPath := *audioPtr
	switch audioPath {
	case "none":
		audioPath = ""
	case "":
		if cfg.AudioPath != "" {
			audioPath = cfg.AudioPath
		} else if latest, err := system.FindLatestAudio(audioDir); err == nil {
			audioPath = latest
			log.Info("audio selected", zap.String("path", audioPath))
		}
	}
	cfg.AudioPath = audioPath

	if *generateManifestPtr != "" {
		return generateManifest(ctx, log, cfg, src, *generateManifestPtr)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	images, err := source.LoadAssets(ctx, src, cfg.DPI, cfg.Workers)
	if err != nil {
		return err
	}
	if cfg.EndCardContent != "" {
		card, err := source.QRCard(cfg.EndCardContent, min(cfg.Width, cfg.Height))
		if err != nil {
			return err
		}
		images = append(images, card)
		if len(cfg.PageDurations) > 0 {
			cfg.PageDurations = append(cfg.PageDurations, cfg.PageDuration)
		}
	}

	tracks, err := loadTracks(ctx, log, cfg)
	if err != nil {
		return err
	}

	var enc video.Encoder
	if cfg.Preview {
		enc = &video.MJPEGEncoder{Log: log}
		cfg.Quality = 0
	} else {
		if os.Getenv(config.EnvEncoder) == "" {
			cfg.VideoEncoder = system.GetBestH264Encoder(ctx)
			if cfg.VideoEncoder != "libx264" {
				log.Info("hardware encoder detected", zap.String("encoder", cfg.VideoEncoder))
			}
		}
		switch {
		case *qualityPtr > 0:
			cfg.Quality = *qualityPtr
		case os.Getenv(config.EnvQuality) == "":
			cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
		}
		enc = &video.FFmpegEncoder{Log: log}
	}

	cfg.OutputVideo = *outputPtr
	if cfg.OutputVideo == "" {
		cfg.OutputVideo = defaultOutput(cfg)
	}

	r := engine.NewRenderer(cfg, enc, log)
	step := 0
	r.Progress = func(done, total int) {
		if p := done * 10 / total; p > step || done == total {
			step = p
			log.Info("rendering", zap.Int("frame", done), zap.Int("of", total))
		}
	}

	rep, err := r.Render(ctx, images, tracks)
	if err != nil {
		return err
	}

	log.Info("done", zap.String("output", rep.Output), zap.Int("frames", rep.Frames), zap.Float64("duration", rep.Duration))
	return nil
}

// ensureDirs creates the working directories. Failures are logged; the
// run only fails later if a missing directory is actually needed.
func ensureDirs(log *zap.Logger, dirs ...string) {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			log.Warn("cannot create directory", zap.String("dir", d), zap.Error(err))
		}
	}
}

func isPDF(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

func parseDurations(list string) ([]float64, error) {
	parts := strings.Split(list, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: duration %q", media.ErrInvalidConfig, p)
		}
		out = append(out, d)
	}
	return out, nil
}

// loadTracks decodes the voice track and the optional background music.
// It returns nil when there is no voice track.
func loadTracks(ctx context.Context, log *zap.Logger, cfg *config.Config) (*audio.Tracks, error) {
	if cfg.AudioPath == "" {
		if cfg.MusicPath != "" {
			log.Warn("background music ignored without a voice track", zap.String("music", cfg.MusicPath))
		}
		return nil, nil
	}

	voice, err := audio.Load(ctx, cfg.AudioPath)
	if err != nil {
		return nil, err
	}
	var music *media.AudioAsset
	if cfg.MusicPath != "" {
		m, err := audio.Load(ctx, cfg.MusicPath)
		if err != nil {
			return nil, err
		}
		music = &m
	}

	tracks, err := audio.Prepare(voice, music, cfg.MixOptions())
	if err != nil {
		return nil, err
	}
	log.Info("audio ready",
		zap.String("voice", voice.Name),
		zap.Float64("duration", tracks.Duration()),
		zap.Bool("music", tracks.Background != nil),
	)
	return &tracks, nil
}

// generateManifest lists the images of src with equal durations (split
// over the voice track when there is one) and writes them as YAML.
func generateManifest(ctx context.Context, log *zap.Logger, cfg *config.Config, src source.Source, path string) error {
	imgs, ok := src.(*source.ImageSource)
	if !ok {
		return fmt.Errorf("%w: manifests list image files; %s is not an image source", media.ErrInvalidConfig, cfg.InputPath)
	}
	paths := imgs.Paths()

	duration := cfg.PageDuration
	if cfg.AudioPath != "" {
		if d, err := system.GetAudioDuration(ctx, cfg.AudioPath); err == nil && d > 0 {
			duration = d / float64(len(paths))
		} else if err != nil {
			log.Warn("audio duration unavailable", zap.Error(err))
		}
	}

	m := config.NewManifest(paths, duration)
	m.Audio = cfg.AudioPath
	m.Music = cfg.MusicPath

	if path == "auto" {
		path = config.GenerateManifestPath(manifestsDir)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := config.WriteManifest(m, path); err != nil {
		return err
	}
	log.Info("manifest written", zap.String("path", path), zap.Int("slides", len(paths)))
	return nil
}

// defaultOutput names the video after the PDF or the voice track.
func defaultOutput(cfg *config.Config) string {
	nameSource := cfg.InputPath
	if !isPDF(nameSource) {
		if cfg.AudioPath != "" {
			nameSource = cfg.AudioPath
		} else if latest, err := system.FindLatestImage(cfg.InputPath); err == nil {
			nameSource = latest
		}
	}

	baseName := filepath.Base(nameSource)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")

	ext := ".mp4"
	if cfg.Preview {
		ext = ".avi"
	}
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s%s", cleanName, timestamp, ext))
}
