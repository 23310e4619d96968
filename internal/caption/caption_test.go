package caption_test

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"tali/internal/caption"
	"tali/internal/failures"
	"tali/internal/record"
)

func str(s string) *string { return &s }

func sampleFeatures() record.WitFeatures {
	return record.WitFeatures{
		Language:                  []string{"fr", "en", "de"},
		CaptionAltTextDescription: []*string{str("un chat"), str("a cat"), nil},
		PageTitle:                 []*string{str("Chat"), str("Cat"), str("Katze")},
		SectionTitle:              []*string{nil, nil, nil},
		ContextPageDescription:    []*string{nil, str("Cats are small."), nil},
	}
}

func TestSelectLanguagePrefersConfigured(t *testing.T) {
	features := sampleFeatures()
	for seed := uint64(0); seed < 20; seed++ {
		lang, idx, err := caption.SelectLanguage(features, "en", rand.New(rand.NewPCG(seed, seed)))
		if err != nil {
			t.Fatalf("SelectLanguage returned error: %v", err)
		}
		if lang != "en" || idx != 1 {
			t.Fatalf("seed %d: got %q/%d, want en/1", seed, lang, idx)
		}
	}
}

func TestSelectLanguageFallsBackToDraw(t *testing.T) {
	features := sampleFeatures()
	seen := map[string]bool{}
	for seed := uint64(0); seed < 50; seed++ {
		lang, _, err := caption.SelectLanguage(features, "ja", rand.New(rand.NewPCG(seed, 1)))
		if err != nil {
			t.Fatalf("SelectLanguage returned error: %v", err)
		}
		seen[lang] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected draws across languages, got %v", seen)
	}
}

func TestSelectLanguageRegionalVariantPolicy(t *testing.T) {
	features := record.WitFeatures{
		Language:                  []string{"zh-Hant", "ja", "ko"},
		CaptionAltTextDescription: []*string{str("貓"), str("猫"), str("고양이")},
	}
	exact := map[string]bool{}
	for seed := uint64(0); seed < 50; seed++ {
		lang, _, err := caption.SelectLanguageWith(features, "zh-TW", caption.MatchExact, rand.New(rand.NewPCG(seed, 2)))
		if err != nil {
			t.Fatalf("SelectLanguageWith exact: %v", err)
		}
		exact[lang] = true

		lang, idx, err := caption.SelectLanguageWith(features, "zh-TW", caption.MatchBase, rand.New(rand.NewPCG(seed, 2)))
		if err != nil {
			t.Fatalf("SelectLanguageWith base: %v", err)
		}
		if lang != "zh-Hant" || idx != 0 {
			t.Fatalf("seed %d: base match got %q/%d, want zh-Hant/0", seed, lang, idx)
		}
	}
	if len(exact) < 2 {
		t.Fatalf("exact policy should draw uniformly for a missing variant, got %v", exact)
	}
}

func TestSelectLanguageRequiresLanguages(t *testing.T) {
	_, _, err := caption.SelectLanguage(record.WitFeatures{}, "en", rand.New(rand.NewPCG(0, 0)))
	if !errors.Is(err, failures.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestComposeFormatsPresentFields(t *testing.T) {
	got := caption.Compose(sampleFeatures(), 1, record.TextFields)
	want := []string{
		"<caption_alt_text_description> <en> a cat </en> </caption_alt_text_description>",
		"<context_page_description> <en> Cats are small. </en> </context_page_description>",
		"<page_title> <en> Cat </en> </page_title>",
	}
	if len(got) != len(want) {
		t.Fatalf("Compose = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Compose[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChooseRespectsFieldGroups(t *testing.T) {
	features := sampleFeatures()
	rng := rand.New(rand.NewPCG(4, 2))
	for i := 0; i < 10; i++ {
		text, err := caption.Choose(features, 1, record.TitleFields, rng)
		if err != nil {
			t.Fatalf("Choose returned error: %v", err)
		}
		if !strings.HasPrefix(text, "<page_title>") {
			t.Fatalf("title group produced %q", text)
		}
	}
	if _, err := caption.Choose(features, 2, record.MainBodyFields, rng); !errors.Is(err, failures.ErrMissingField) {
		t.Fatalf("expected ErrMissingField for empty group, got %v", err)
	}
}

func TestSelectIsStableForSeed(t *testing.T) {
	a1, a2, err := caption.Select(sampleFeatures(), "", rand.New(rand.NewPCG(11, 3)))
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	b1, b2, _ := caption.Select(sampleFeatures(), "", rand.New(rand.NewPCG(11, 3)))
	if a1 != b1 || a2 != b2 {
		t.Fatalf("Select not deterministic: %q/%q vs %q/%q", a1, a2, b1, b2)
	}
}

func TestAllLanguages(t *testing.T) {
	all := caption.AllLanguages(sampleFeatures())
	if len(all) != 3 {
		t.Fatalf("expected 3 languages, got %d", len(all))
	}
	if all["de"][record.FieldPageTitle] != "Katze" {
		t.Fatalf("unexpected german title: %v", all["de"])
	}
	if _, ok := all["de"][record.FieldCaptionAltText]; ok {
		t.Fatal("expected null field omitted")
	}
}
