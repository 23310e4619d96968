package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains media, store and log locations.
type Paths struct {
	RootFilepath string `toml:"root_filepath"`
	StoreDir     string `toml:"store_dir"`
	LogDir       string `toml:"log_dir"`
	BucketPrefix string `toml:"bucket_prefix"`
}

// Transform contains the per-record sampling and tensor shape settings.
type Transform struct {
	Modalities              []string `toml:"modalities"`
	RNGSeed                 int64    `toml:"rng_seed"`
	TopKTali                int      `toml:"top_k_tali"`
	ImageSize               int      `toml:"image_size"`
	NumVideoFrames          int      `toml:"num_video_frames"`
	NumAudioFrames          int      `toml:"num_audio_frames"`
	ClipDurationSeconds     float64  `toml:"clip_duration_seconds"`
	DeterministicSampling   bool     `toml:"deterministic_sampling"`
	PriorityCaptionLanguage string   `toml:"priority_caption_language"`
	CaptionBaseLanguage     bool     `toml:"caption_base_language_match"`
	SourceSampleRate        int      `toml:"source_sample_rate"`
	TargetSampleRate        int      `toml:"target_sample_rate"`
}

// Dataset contains the index-level sampling behaviour.
type Dataset struct {
	SetName          string `toml:"set_name"`
	InfiniteSampling bool   `toml:"infinite_sampling"`
	DummyBatchMode   bool   `toml:"dummy_batch_mode"`
	MaxAttempts      int    `toml:"max_attempts"`
}

// Postprocess contains model-specific preprocessing settings.
type Postprocess struct {
	UseModelPreprocessing bool   `toml:"use_model_preprocessing"`
	ImageTextModelName    string `toml:"image_text_model_name"`
	AudioModelName        string `toml:"audio_model_name"`
	TokenizerPath         string `toml:"tokenizer_path"`
	MaxTextTokens         int    `toml:"max_text_tokens"`
}

// Media contains external decoder binaries.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Loader contains batch loading settings.
type Loader struct {
	Workers   int `toml:"workers"`
	BatchSize int `toml:"batch_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the TALI dataset engine.
//
// Configuration sections by subsystem:
//   - Paths: media root, record store, logs, bucket prefix rewriting
//   - Transform: modalities, seeds and fixed tensor shapes
//   - Dataset: infinite sampling, dummy batch mode, retry bound
//   - Postprocess: model preprocessing (CLIP/Whisper style) settings
//   - Media: ffmpeg/ffprobe binaries
//   - Loader: worker count and batch size
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Transform   Transform   `toml:"transform"`
	Dataset     Dataset     `toml:"dataset"`
	Postprocess Postprocess `toml:"postprocess"`
	Media       Media       `toml:"media"`
	Loader      Loader      `toml:"loader"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tali/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tali.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the store and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StoreDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the sqlite file backing the given split.
func (c *Config) StorePath(setName string) string {
	setName = strings.TrimSpace(setName)
	if setName == "" {
		setName = c.Dataset.SetName
	}
	return filepath.Join(c.Paths.StoreDir, setName+"-set.db")
}

// FFmpegBinary returns the ffmpeg executable used for clip decoding.
func (c *Config) FFmpegBinary() string {
	if b := strings.TrimSpace(c.Media.FFmpegBinary); b != "" {
		return b
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for container inspection.
func (c *Config) FFprobeBinary() string {
	if b := strings.TrimSpace(c.Media.FFprobeBinary); b != "" {
		return b
	}
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
