package testsupport

import (
	"encoding/json"
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"
	"testing"

	"tali/internal/config"
	"tali/internal/record"
)

// SubtitleSeconds is the span covered by SampleRecord subtitle documents.
const SubtitleSeconds = 120

func ptr(s string) *string { return &s }

// SampleRecord returns a complete record whose media references live under
// cfg's bucket prefix. Its subtitle document is written below the media root
// with one fragment "s<second>" per second.
func SampleRecord(t testing.TB, cfg *config.Config, witIdx int64) record.Raw {
	t.Helper()

	subs := make(map[string][]string, SubtitleSeconds)
	for sec := 0; sec < SubtitleSeconds; sec++ {
		subs[strconv.Itoa(sec)] = []string{"s", strconv.Itoa(sec)}
	}
	payload, err := json.Marshal(subs)
	if err != nil {
		t.Fatalf("marshal subtitles: %v", err)
	}
	subRel := filepath.ToSlash(filepath.Join("subtitles", fmt.Sprintf("%d.json", witIdx)))
	WriteText(t, filepath.Join(cfg.Paths.RootFilepath, filepath.FromSlash(subRel)), string(payload))

	prefix := cfg.Paths.BucketPrefix
	video := func(offset int) string {
		return fmt.Sprintf("%svideos/vid%d/360p_%d.mp4", prefix, witIdx, offset)
	}

	return record.Raw{
		WitIdx: witIdx,
		Image:  EncodePNG(t, 12, 8, color.NRGBA{R: 200, G: 100, B: 50, A: 255}),
		WitFeatures: record.WitFeatures{
			Language:                    []string{"de", "en"},
			CaptionAltTextDescription:   []*string{ptr("eine Katze"), ptr("a cat")},
			CaptionReferenceDescription: []*string{nil, ptr("a cat on a mat")},
			ContextPageDescription:      []*string{ptr("Katzen sind klein."), ptr("Cats are small.")},
			ContextSectionDescription:   []*string{nil, nil},
			HierarchicalSectionTitle:    []*string{ptr("Katze / Tier"), ptr("Cat / Animal")},
			PageTitle:                   []*string{ptr("Katze"), ptr("Cat")},
			SectionTitle:                []*string{nil, ptr("Behaviour")},
		},
		YouTubeContentVideo:    []string{video(0), video(30), video(60)},
		YouTubeSubtitleText:    prefix + subRel,
		YouTubeTitleText:       "cats compilation",
		YouTubeDescriptionText: "the best cats",
	}
}
