package config

import (
	"errors"
	"fmt"
	"strings"

	"tali/internal/modality"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTransform(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validatePostprocess(); err != nil {
		return err
	}
	if err := c.validateLoader(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.RootFilepath) == "" {
		return errors.New("paths.root_filepath must be set")
	}
	if strings.TrimSpace(c.Paths.StoreDir) == "" {
		return errors.New("paths.store_dir must be set")
	}
	return nil
}

func (c *Config) validateTransform() error {
	if len(c.Transform.Modalities) == 0 {
		return errors.New("transform.modalities must include at least one modality")
	}
	if _, err := modality.ParseSet(c.Transform.Modalities); err != nil {
		return fmt.Errorf("transform.modalities: %w", err)
	}
	if err := ensurePositiveMap(map[string]int{
		"transform.top_k_tali":         c.Transform.TopKTali,
		"transform.image_size":         c.Transform.ImageSize,
		"transform.num_video_frames":   c.Transform.NumVideoFrames,
		"transform.num_audio_frames":   c.Transform.NumAudioFrames,
		"transform.source_sample_rate": c.Transform.SourceSampleRate,
		"transform.target_sample_rate": c.Transform.TargetSampleRate,
	}); err != nil {
		return err
	}
	if c.Transform.ClipDurationSeconds <= 0 {
		return errors.New("transform.clip_duration_seconds must be positive")
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.MaxAttempts < 1 {
		return errors.New("dataset.max_attempts must be >= 1")
	}
	return nil
}

func (c *Config) validatePostprocess() error {
	if c.Postprocess.MaxTextTokens < 1 {
		return errors.New("postprocess.max_text_tokens must be >= 1")
	}
	return nil
}

func (c *Config) validateLoader() error {
	return ensurePositiveMap(map[string]int{
		"loader.workers":    c.Loader.Workers,
		"loader.batch_size": c.Loader.BatchSize,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
