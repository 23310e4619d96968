package transform

import (
	"fmt"
	"strings"

	"tali/internal/config"
	"tali/internal/failures"
	"tali/internal/modality"
	"tali/internal/record"
)

// Config holds the settings of one Transform. It is immutable after New.
type Config struct {
	Root              string
	BucketPrefix      string
	Modalities        modality.Set
	Seed              int64
	TopK              int
	ImageSize         int
	NumVideoFrames    int
	NumAudioFrames    int
	ClipDuration      float64
	Deterministic     bool
	PreferredLanguage string
	// BaseLanguageMatch lets a regional preferred language match its base.
	BaseLanguageMatch bool
	SourceSampleRate  int
	TargetSampleRate  int
}

// ConfigFrom derives a transform configuration from the application config.
func ConfigFrom(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, failures.Wrap(failures.ErrConfiguration, "transform", "config", "nil config", nil)
	}
	set, err := modality.ParseSet(cfg.Transform.Modalities)
	if err != nil {
		return Config{}, failures.Wrap(failures.ErrConfiguration, "transform", "config", "modalities", err)
	}
	out := Config{
		Root:              cfg.Paths.RootFilepath,
		BucketPrefix:      cfg.Paths.BucketPrefix,
		Modalities:        set,
		Seed:              cfg.Transform.RNGSeed,
		TopK:              cfg.Transform.TopKTali,
		ImageSize:         cfg.Transform.ImageSize,
		NumVideoFrames:    cfg.Transform.NumVideoFrames,
		NumAudioFrames:    cfg.Transform.NumAudioFrames,
		ClipDuration:      cfg.Transform.ClipDurationSeconds,
		Deterministic:     cfg.Transform.DeterministicSampling,
		PreferredLanguage: cfg.Transform.PriorityCaptionLanguage,
		BaseLanguageMatch: cfg.Transform.CaptionBaseLanguage,
		SourceSampleRate:  cfg.Transform.SourceSampleRate,
		TargetSampleRate:  cfg.Transform.TargetSampleRate,
	}
	return out, out.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	var problems []string
	if len(c.Modalities) == 0 {
		problems = append(problems, "no modalities requested")
	}
	positive := []struct {
		name  string
		value int
	}{
		{"top_k", c.TopK},
		{"image_size", c.ImageSize},
		{"num_video_frames", c.NumVideoFrames},
		{"num_audio_frames", c.NumAudioFrames},
		{"source_sample_rate", c.SourceSampleRate},
		{"target_sample_rate", c.TargetSampleRate},
	}
	for _, p := range positive {
		if p.value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", p.name))
		}
	}
	if c.ClipDuration <= 0 {
		problems = append(problems, "clip_duration must be positive")
	}
	if len(problems) > 0 {
		return failures.Wrap(failures.ErrConfiguration, "transform", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

func (c Config) resolver() record.Resolver {
	return record.Resolver{Root: c.Root, BucketPrefix: c.BucketPrefix}
}
