package config

import (
	"fmt"
	"os"
	"strings"

	"tali/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTransform()
	c.normalizeDataset()
	if err := c.normalizePostprocess(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("TALI_ROOT_FILEPATH"); ok && strings.TrimSpace(value) != "" {
		c.Paths.RootFilepath = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("TALI_STORE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.StoreDir = strings.TrimSpace(value)
	}
	var err error
	if strings.TrimSpace(c.Paths.RootFilepath) == "" {
		c.Paths.RootFilepath = defaultRootFilepath
	}
	if c.Paths.RootFilepath, err = expandPath(c.Paths.RootFilepath); err != nil {
		return fmt.Errorf("paths.root_filepath: %w", err)
	}
	if strings.TrimSpace(c.Paths.StoreDir) == "" {
		c.Paths.StoreDir = defaultStoreDir
	}
	if c.Paths.StoreDir, err = expandPath(c.Paths.StoreDir); err != nil {
		return fmt.Errorf("paths.store_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	// The bucket prefix is matched textually against stored references, so it
	// is only trimmed, never expanded.
	c.Paths.BucketPrefix = strings.TrimSpace(c.Paths.BucketPrefix)
	return nil
}

func (c *Config) normalizeTransform() {
	if len(c.Transform.Modalities) == 0 {
		c.Transform.Modalities = defaultModalities()
	} else {
		mods := make([]string, 0, len(c.Transform.Modalities))
		seen := make(map[string]struct{}, len(c.Transform.Modalities))
		for _, name := range c.Transform.Modalities {
			normalized := strings.ToLower(strings.TrimSpace(name))
			if idx := strings.LastIndex(normalized, "."); idx >= 0 {
				normalized = normalized[idx+1:]
			}
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			mods = append(mods, normalized)
		}
		c.Transform.Modalities = mods
	}
	c.Transform.PriorityCaptionLanguage = strings.ToLower(strings.TrimSpace(c.Transform.PriorityCaptionLanguage))
	if iso2 := language.ToISO2(c.Transform.PriorityCaptionLanguage); iso2 != "" {
		c.Transform.PriorityCaptionLanguage = iso2
	}
	if c.Transform.SourceSampleRate <= 0 {
		c.Transform.SourceSampleRate = defaultSourceSampleRate
	}
	if c.Transform.TargetSampleRate <= 0 {
		c.Transform.TargetSampleRate = defaultTargetSampleRate
	}
}

func (c *Config) normalizeDataset() {
	c.Dataset.SetName = strings.TrimSpace(c.Dataset.SetName)
	if c.Dataset.SetName == "" {
		c.Dataset.SetName = defaultSetName
	}
	if c.Dataset.MaxAttempts <= 0 {
		c.Dataset.MaxAttempts = defaultMaxAttempts
	}
}

func (c *Config) normalizePostprocess() error {
	c.Postprocess.TokenizerPath = strings.TrimSpace(c.Postprocess.TokenizerPath)
	if c.Postprocess.TokenizerPath == "" {
		if value, ok := os.LookupEnv("TALI_TOKENIZER_PATH"); ok {
			c.Postprocess.TokenizerPath = strings.TrimSpace(value)
		}
	}
	if c.Postprocess.TokenizerPath != "" {
		var err error
		if c.Postprocess.TokenizerPath, err = expandPath(c.Postprocess.TokenizerPath); err != nil {
			return fmt.Errorf("postprocess.tokenizer_path: %w", err)
		}
	}
	if c.Postprocess.MaxTextTokens <= 0 {
		c.Postprocess.MaxTextTokens = defaultMaxTextTokens
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
