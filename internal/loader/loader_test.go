package loader_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"tali/internal/dataset"
	"tali/internal/failures"
	"tali/internal/loader"
	"tali/internal/modality"
	"tali/internal/postprocess"
	"tali/internal/tensor"
	"tali/internal/transform"
)

type fakeGetter struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	failIdx  int
}

func (f *fakeGetter) Get(ctx context.Context, idx int) (dataset.Sample, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if idx == f.failIdx {
		return dataset.Sample{}, failures.Wrap(failures.ErrResampleExhausted, "test", "get", "boom", nil)
	}
	img, _ := tensor.FromFloat32([]float32{float32(idx), float32(idx)}, 2)
	return dataset.Sample{
		WitIdx:  int64(idx),
		VideoID: "v",
		Values: map[string]transform.Value{
			"wit_image":   {Tensor: img},
			"wit_caption": {Text: "caption"},
		},
	}, nil
}

func TestLoadCollatesInIndexOrder(t *testing.T) {
	src := &fakeGetter{failIdx: -1}
	l, err := loader.New(src, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	batch, err := l.Load(context.Background(), []int{3, 1, 4, 1, 5})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if batch.Size != 5 || !slices.Equal(batch.WitIdx, []int64{3, 1, 4, 1, 5}) {
		t.Fatalf("unexpected batch order %v", batch.WitIdx)
	}
	img := batch.Tensors["wit_image"]
	if !slices.Equal(img.Shape(), []int{5, 2}) || img.Float32s()[4] != 4 {
		t.Fatalf("unexpected stacked tensor %v %v", img.Shape(), img.Float32s())
	}
	if len(batch.Texts["wit_caption"]) != 5 {
		t.Fatalf("captions not gathered: %v", batch.Texts)
	}
	if peak := src.peak.Load(); peak > 2 {
		t.Fatalf("worker limit exceeded: %d", peak)
	}
}

func TestLoadPropagatesFailure(t *testing.T) {
	l, err := loader.New(&fakeGetter{failIdx: 2}, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := l.Load(context.Background(), []int{0, 1, 2, 3}); !errors.Is(err, failures.ErrResampleExhausted) {
		t.Fatalf("expected ErrResampleExhausted, got %v", err)
	}
}

func TestCollateRejectsMismatchedShapes(t *testing.T) {
	a, _ := tensor.FromFloat32([]float32{1}, 1)
	b, _ := tensor.FromFloat32([]float32{1, 2}, 2)
	_, err := loader.Collate([]dataset.Sample{
		{Values: map[string]transform.Value{"x": {Tensor: a}}},
		{Values: map[string]transform.Value{"x": {Tensor: b}}},
	})
	if !errors.Is(err, failures.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if _, err := loader.Collate(nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestNewValidatesWorkers(t *testing.T) {
	if _, err := loader.New(&fakeGetter{}, 0); !errors.Is(err, failures.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestIndicesWrap(t *testing.T) {
	if got := loader.Indices(2, 4, 10); !slices.Equal(got, []int{8, 9, 0, 1}) {
		t.Fatalf("Indices = %v", got)
	}
}

type spaceEncoder struct{}

func (spaceEncoder) Encode(text string) ([]int, error) {
	ids := []int{1}
	for range strings.Fields(text) {
		ids = append(ids, 5)
	}
	return append(ids, 2), nil
}

func TestCollateKeepsEmptyTokenizedText(t *testing.T) {
	set, err := postprocess.Model(spaceEncoder{}, 4, 16000)
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	var samples []dataset.Sample
	for i, text := range []string{"<ysub> hi </ysub>", ""} {
		v, err := set.Apply(modality.YouTubeSubtitles, transform.Value{Text: text})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		samples = append(samples, dataset.Sample{
			WitIdx: int64(i),
			Values: map[string]transform.Value{modality.YouTubeSubtitles.Key(): v},
		})
	}

	batch, err := loader.Collate(samples)
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}
	key := modality.YouTubeSubtitles.Key()
	if got := batch.Texts[key]; !slices.Equal(got, []string{"<ysub> hi </ysub>", ""}) {
		t.Fatalf("texts = %q", got)
	}
	if got := batch.Tensors[key].Shape(); !slices.Equal(got, []int{2, 4}) {
		t.Fatalf("token shape = %v", got)
	}
}
