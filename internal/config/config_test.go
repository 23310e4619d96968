package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tali/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndUsesEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TALI_ROOT_FILEPATH", "")
	t.Setenv("TALI_STORE_DIR", filepath.Join(tempHome, "records"))
	t.Setenv("TALI_TOKENIZER_PATH", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRoot := filepath.Join(tempHome, ".local", "share", "tali", "media")
	if cfg.Paths.RootFilepath != wantRoot {
		t.Fatalf("unexpected root filepath: got %q want %q", cfg.Paths.RootFilepath, wantRoot)
	}
	if cfg.Paths.StoreDir != filepath.Join(tempHome, "records") {
		t.Fatalf("expected store dir from env, got %q", cfg.Paths.StoreDir)
	}
	if cfg.Paths.BucketPrefix != "/data/datasets/tali-wit-2-1-buckets/" {
		t.Fatalf("unexpected bucket prefix: %q", cfg.Paths.BucketPrefix)
	}
	if cfg.Transform.RNGSeed != 42 || cfg.Transform.TopKTali != 10 {
		t.Fatalf("unexpected sampling defaults: seed=%d topk=%d", cfg.Transform.RNGSeed, cfg.Transform.TopKTali)
	}
	if cfg.Transform.ImageSize != 224 || cfg.Transform.NumVideoFrames != 5 || cfg.Transform.NumAudioFrames != 16000 {
		t.Fatalf("unexpected shape defaults: %+v", cfg.Transform)
	}
	if !cfg.Transform.DeterministicSampling {
		t.Fatal("expected deterministic sampling by default")
	}
	if cfg.Transform.PriorityCaptionLanguage != "en" {
		t.Fatalf("unexpected caption language: %q", cfg.Transform.PriorityCaptionLanguage)
	}
	if len(cfg.Transform.Modalities) != 9 {
		t.Fatalf("expected all modalities by default, got %v", cfg.Transform.Modalities)
	}
	if cfg.Dataset.MaxAttempts != 10 {
		t.Fatalf("unexpected max attempts: %d", cfg.Dataset.MaxAttempts)
	}
	if cfg.Dataset.InfiniteSampling || cfg.Dataset.DummyBatchMode {
		t.Fatal("expected finite, non-dummy dataset by default")
	}
	if cfg.Postprocess.UseModelPreprocessing {
		t.Fatal("expected basic postprocessing by default")
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	wantStore := filepath.Join(tempHome, "records", "train-set.db")
	if got := cfg.StorePath(""); got != wantStore {
		t.Fatalf("unexpected store path: got %q want %q", got, wantStore)
	}
	if got := cfg.StorePath("val"); got != filepath.Join(tempHome, "records", "val-set.db") {
		t.Fatalf("unexpected split store path: %q", got)
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TALI_ROOT_FILEPATH", "")
	t.Setenv("TALI_STORE_DIR", "")
	t.Setenv("TALI_TOKENIZER_PATH", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := struct {
		Paths struct {
			RootFilepath string `toml:"root_filepath"`
			StoreDir     string `toml:"store_dir"`
		} `toml:"paths"`
		Transform struct {
			Modalities              []string `toml:"modalities"`
			ImageSize               int      `toml:"image_size"`
			DeterministicSampling   bool     `toml:"deterministic_sampling"`
			PriorityCaptionLanguage string   `toml:"priority_caption_language"`
			CaptionBaseLanguage     bool     `toml:"caption_base_language_match"`
		} `toml:"transform"`
		Dataset struct {
			SetName          string `toml:"set_name"`
			InfiniteSampling bool   `toml:"infinite_sampling"`
		} `toml:"dataset"`
		Postprocess struct {
			TokenizerPath string `toml:"tokenizer_path"`
		} `toml:"postprocess"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}{}
	payload.Paths.RootFilepath = "~/buckets"
	payload.Paths.StoreDir = "~/store"
	payload.Transform.Modalities = []string{"SubModalityTypes.wit_image", " youtube_video ", "wit_image"}
	payload.Transform.ImageSize = 128
	payload.Transform.DeterministicSampling = false
	payload.Transform.PriorityCaptionLanguage = " DEU "
	payload.Transform.CaptionBaseLanguage = true
	payload.Dataset.SetName = "val"
	payload.Dataset.InfiniteSampling = true
	payload.Postprocess.TokenizerPath = "~/tok/tokenizer.json"
	payload.Logging.Format = "JSON"

	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config file %q to be used, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.RootFilepath != filepath.Join(tempHome, "buckets") {
		t.Fatalf("unexpected root filepath: %q", cfg.Paths.RootFilepath)
	}
	if len(cfg.Transform.Modalities) != 2 || cfg.Transform.Modalities[1] != "youtube_video" {
		t.Fatalf("expected trimmed, deduplicated modalities, got %v", cfg.Transform.Modalities)
	}
	if cfg.Transform.ImageSize != 128 {
		t.Fatalf("unexpected image size: %d", cfg.Transform.ImageSize)
	}
	if cfg.Transform.DeterministicSampling {
		t.Fatal("expected deterministic sampling disabled")
	}
	if cfg.Transform.PriorityCaptionLanguage != "de" || !cfg.Transform.CaptionBaseLanguage {
		t.Fatalf("unexpected caption language: %q (base match %v)", cfg.Transform.PriorityCaptionLanguage, cfg.Transform.CaptionBaseLanguage)
	}
	if !cfg.Dataset.InfiniteSampling || cfg.Dataset.SetName != "val" {
		t.Fatalf("unexpected dataset config: %+v", cfg.Dataset)
	}
	if cfg.Postprocess.TokenizerPath != filepath.Join(tempHome, "tok", "tokenizer.json") {
		t.Fatalf("unexpected tokenizer path: %q", cfg.Postprocess.TokenizerPath)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StoreDir = filepath.Join(base, "store")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StoreDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "root_filepath") {
		t.Fatal("sample config missing root_filepath")
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if parsed.Transform.ImageSize != config.Default().Transform.ImageSize {
		t.Fatalf("sample image_size drifted from defaults: %d", parsed.Transform.ImageSize)
	}
	if len(parsed.Transform.Modalities) != len(config.Default().Transform.Modalities) {
		t.Fatalf("sample modalities drifted from defaults: %v", parsed.Transform.Modalities)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown modality",
			mutate: func(c *config.Config) { c.Transform.Modalities = []string{"wit_sound"} },
			want:   "transform.modalities",
		},
		{
			name:   "zero image size",
			mutate: func(c *config.Config) { c.Transform.ImageSize = 0 },
			want:   "transform.image_size",
		},
		{
			name:   "zero clip duration",
			mutate: func(c *config.Config) { c.Transform.ClipDurationSeconds = 0 },
			want:   "transform.clip_duration_seconds",
		},
		{
			name:   "zero attempts",
			mutate: func(c *config.Config) { c.Dataset.MaxAttempts = 0 },
			want:   "dataset.max_attempts",
		},
		{
			name:   "zero workers",
			mutate: func(c *config.Config) { c.Loader.Workers = 0 },
			want:   "loader.workers",
		},
		{
			name:   "bad log format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}
