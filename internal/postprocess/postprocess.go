package postprocess

import (
	"fmt"

	"tali/internal/config"
	"tali/internal/failures"
	"tali/internal/modality"
	"tali/internal/transform"
)

const component = "postprocess"

// Postprocessor converts values of one modality family into their model-ready form.
type Postprocessor interface {
	Family() modality.Family
	Process(transform.Value) (transform.Value, error)
}

// Set maps each family to its postprocessor. Families without an entry pass
// through unchanged.
type Set map[modality.Family]Postprocessor

// NewSet indexes processors by family; a later processor replaces an earlier
// one of the same family.
func NewSet(processors ...Postprocessor) Set {
	s := make(Set, len(processors))
	for _, p := range processors {
		if p != nil {
			s[p.Family()] = p
		}
	}
	return s
}

// Apply runs the postprocessor of m's family on v.
func (s Set) Apply(m modality.Modality, v transform.Value) (transform.Value, error) {
	p, ok := s[m.Family()]
	if !ok {
		return v, nil
	}
	out, err := p.Process(v)
	if err != nil {
		return transform.Value{}, fmt.Errorf("%s: %w", m, err)
	}
	return out, nil
}

// Basic returns the postprocessors used without model preprocessing:
// uint8 pixels, untouched text and flat audio.
func Basic() Set {
	return NewSet(
		ScaleToUint8{For: modality.FamilyImage},
		ScaleToUint8{For: modality.FamilyVideo},
		Identity{For: modality.FamilyText},
		Flatten{For: modality.FamilyAudio},
	)
}

// Model returns CLIP pixel normalization, tokenized text and Whisper log-mel
// features.
func Model(encoder TextEncoder, maxTokens, sampleRate int) (Set, error) {
	if encoder == nil {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "model", "text encoder is required", nil)
	}
	if maxTokens <= 0 {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "model", "max_text_tokens must be positive", nil)
	}
	mel, err := NewLogMel(sampleRate)
	if err != nil {
		return nil, err
	}
	return NewSet(
		CLIPNormalize{For: modality.FamilyImage},
		CLIPNormalize{For: modality.FamilyVideo},
		NewTokenize(encoder, maxTokens),
		mel,
	), nil
}

// FromConfig picks the basic or model set according to
// postprocess.use_model_preprocessing.
func FromConfig(cfg *config.Config) (Set, error) {
	if cfg == nil {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "config", "nil config", nil)
	}
	if !cfg.Postprocess.UseModelPreprocessing {
		return Basic(), nil
	}
	encoder, err := LoadTokenizer(cfg.Postprocess.TokenizerPath)
	if err != nil {
		return nil, err
	}
	return Model(encoder, cfg.Postprocess.MaxTextTokens, cfg.Transform.TargetSampleRate)
}
