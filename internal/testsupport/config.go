package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tali/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RootFilepath = filepath.Join(base, "media")
	cfgVal.Paths.StoreDir = filepath.Join(base, "store")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithModalities restricts the requested modality set.
func WithModalities(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transform.Modalities = append([]string(nil), names...)
	}
}

// WithSmallShapes shrinks tensor shapes so tests stay fast.
func WithSmallShapes(imageSize, videoFrames, audioFrames int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transform.ImageSize = imageSize
		b.cfg.Transform.NumVideoFrames = videoFrames
		b.cfg.Transform.NumAudioFrames = audioFrames
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := b.binDir()
		for _, name := range names {
			WriteScript(b.t, filepath.Join(binDir, name), "exit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithFFmpegScript installs shell scripts as the configured ffmpeg and
// ffprobe binaries. An empty body leaves that binary untouched.
func WithFFmpegScript(ffmpegBody, ffprobeBody string) ConfigOption {
	return func(b *configBuilder) {
		binDir := b.binDir()
		if ffmpegBody != "" {
			path := filepath.Join(binDir, "ffmpeg")
			WriteScript(b.t, path, ffmpegBody)
			b.cfg.Media.FFmpegBinary = path
		}
		if ffprobeBody != "" {
			path := filepath.Join(binDir, "ffprobe")
			WriteScript(b.t, path, ffprobeBody)
			b.cfg.Media.FFprobeBinary = path
		}
	}
}

func (b *configBuilder) binDir() string {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	return binDir
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StoreDir)
}
