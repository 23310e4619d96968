package record_test

import (
	"errors"
	"path/filepath"
	"testing"

	"tali/internal/failures"
	"tali/internal/record"
)

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		ref     string
		videoID string
		offset  float64
	}{
		{"/data/datasets/tali-wit-2-1-buckets/video_data.parquet/550/abc123XYZ/360p_90.mp4", "abc123XYZ", 90},
		{"videos/xyz/clip_12.5.mp4", "xyz", 12.5},
		{"a/b_c/x_0.mp4", "b_c", 0},
	}
	for _, tc := range tests {
		got, err := record.ParseCandidate(tc.ref)
		if err != nil {
			t.Fatalf("ParseCandidate(%q) returned error: %v", tc.ref, err)
		}
		if got.VideoID != tc.videoID || got.Offset != tc.offset {
			t.Fatalf("ParseCandidate(%q) = %+v", tc.ref, got)
		}
	}
}

func TestParseCandidateRejectsMalformed(t *testing.T) {
	for _, ref := range []string{"", "clip_1.mp4", "vid/clip.mp4", "vid/clip_abc.mp4"} {
		if _, err := record.ParseCandidate(ref); !errors.Is(err, failures.ErrMissingField) {
			t.Fatalf("ParseCandidate(%q) error = %v, want ErrMissingField", ref, err)
		}
	}
}

func TestResolverResolve(t *testing.T) {
	r := record.Resolver{Root: "/mnt/tali", BucketPrefix: "/data/datasets/tali-wit-2-1-buckets/"}
	tests := []struct {
		ref  string
		want string
	}{
		{"/data/datasets/tali-wit-2-1-buckets/video_data/1/a/360p_0.mp4", filepath.Join("/mnt/tali", "video_data/1/a/360p_0.mp4")},
		{"captions/1.json", filepath.Join("/mnt/tali", "captions/1.json")},
		{"/elsewhere/file.mp4", "/elsewhere/file.mp4"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := r.Resolve(tc.ref); got != tc.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestDecodeAcceptsImageEncodings(t *testing.T) {
	plain := []byte(`{"wit_idx": 7, "image": "aGVsbG8=", "wit_features": {"language": ["en"], "page_title": ["Title"], "section_title": [null]}}`)
	wrapped := []byte(`{"wit_idx": 7, "image": {"bytes": "aGVsbG8=", "path": "x.jpg"}}`)

	for _, data := range [][]byte{plain, wrapped} {
		raw, err := record.Decode(data)
		if err != nil {
			t.Fatalf("Decode returned error: %v", err)
		}
		if raw.WitIdx != 7 || string(raw.Image) != "hello" {
			t.Fatalf("unexpected record: idx=%d image=%q", raw.WitIdx, raw.Image)
		}
	}

	raw, _ := record.Decode(plain)
	if text, ok := raw.WitFeatures.Text(record.FieldPageTitle, 0); !ok || text != "Title" {
		t.Fatalf("page title = %q (%v)", text, ok)
	}
	if _, ok := raw.WitFeatures.Text(record.FieldSectionTitle, 0); ok {
		t.Fatal("expected null section title to be absent")
	}
	if _, ok := raw.WitFeatures.Text(record.FieldPageTitle, 3); ok {
		t.Fatal("expected out-of-range index to be absent")
	}
}

func TestEncodeRoundTripsImage(t *testing.T) {
	data, err := record.Encode(record.Raw{WitIdx: 1, Image: record.ImageBytes("png!")})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	raw, err := record.Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if string(raw.Image) != "png!" {
		t.Fatalf("image = %q", raw.Image)
	}
}
