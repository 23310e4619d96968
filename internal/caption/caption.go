package caption

import (
	"fmt"
	"math/rand/v2"

	"tali/internal/failures"
	"tali/internal/language"
	"tali/internal/record"
)

const component = "caption"

// LanguageMatch decides how a preferred language is found among a record's
// languages.
type LanguageMatch int

const (
	// MatchExact accepts only the same language code. Anything else falls
	// through to a uniform draw.
	MatchExact LanguageMatch = iota
	// MatchBase also accepts a regional variant of the same base language.
	MatchBase
)

// SelectLanguage picks the caption language: preferred when the record has
// it exactly, otherwise a uniform draw among the record's languages.
func SelectLanguage(features record.WitFeatures, preferred string, rng *rand.Rand) (string, int, error) {
	return SelectLanguageWith(features, preferred, MatchExact, rng)
}

// SelectLanguageWith is SelectLanguage with an explicit match policy.
func SelectLanguageWith(features record.WitFeatures, preferred string, match LanguageMatch, rng *rand.Rand) (string, int, error) {
	n := len(features.Language)
	if n == 0 {
		return "", -1, failures.Wrap(failures.ErrMissingField, component, "select language", "record has no caption languages", nil)
	}
	idx := language.Match(preferred, features.Language)
	if idx < 0 && match == MatchBase {
		idx = language.MatchBase(preferred, features.Language)
	}
	if idx >= 0 {
		return features.Language[idx], idx, nil
	}
	idx = rng.IntN(n)
	return features.Language[idx], idx, nil
}

// Compose formats every present field for language index idx as
// "<field> <lang> text </lang> </field>", in the order fields are given.
func Compose(features record.WitFeatures, idx int, fields []string) []string {
	if idx < 0 || idx >= len(features.Language) {
		return nil
	}
	lang := features.Language[idx]
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		text, ok := features.Text(field, idx)
		if !ok {
			continue
		}
		out = append(out, fmt.Sprintf("<%s> <%s> %s </%s> </%s>", field, lang, text, lang, field))
	}
	return out
}

// Choose draws one composed caption among fields for language index idx.
func Choose(features record.WitFeatures, idx int, fields []string, rng *rand.Rand) (string, error) {
	options := Compose(features, idx, fields)
	if len(options) == 0 {
		return "", failures.Wrap(failures.ErrMissingField, component, "choose", fmt.Sprintf("no text among %v", fields), nil)
	}
	return options[rng.IntN(len(options))], nil
}

// Select picks a language and draws one caption among all eight WIT fields.
func Select(features record.WitFeatures, preferred string, rng *rand.Rand) (string, string, error) {
	lang, idx, err := SelectLanguage(features, preferred, rng)
	if err != nil {
		return "", "", err
	}
	text, err := Choose(features, idx, record.TextFields, rng)
	if err != nil {
		return "", "", err
	}
	return lang, text, nil
}

// AllLanguages returns language -> field -> raw text for every present field.
func AllLanguages(features record.WitFeatures) map[string]map[string]string {
	out := make(map[string]map[string]string, len(features.Language))
	for idx, lang := range features.Language {
		fields := make(map[string]string, len(record.TextFields))
		for _, field := range record.TextFields {
			if text, ok := features.Text(field, idx); ok {
				fields[field] = text
			}
		}
		out[lang] = fields
	}
	return out
}
