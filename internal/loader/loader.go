package loader

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tali/internal/dataset"
	"tali/internal/failures"
	"tali/internal/modality"
	"tali/internal/tensor"
	"tali/internal/transform"
)

// Getter returns one sample by index. *dataset.Dataset satisfies it.
type Getter interface {
	Get(ctx context.Context, idx int) (dataset.Sample, error)
}

// Batch is a collated set of samples. Tensors are stacked along a new
// leading axis; text and bookkeeping values are gathered in sample order.
type Batch struct {
	Size     int
	Tensors  map[string]*tensor.Tensor
	Texts    map[string][]string
	WitIdx   []int64
	VideoIDs []string
}

// Loader fetches batches with a bounded number of concurrent Get calls.
type Loader struct {
	source  Getter
	workers int
}

// New builds a loader running at most workers Gets at once.
func New(source Getter, workers int) (*Loader, error) {
	if source == nil {
		return nil, failures.Wrap(failures.ErrConfiguration, "loader", "new", "nil source", nil)
	}
	if workers < 1 {
		return nil, failures.Wrap(failures.ErrConfiguration, "loader", "new", fmt.Sprintf("workers must be >= 1, got %d", workers), nil)
	}
	return &Loader{source: source, workers: workers}, nil
}

// Load fetches the samples for indices concurrently and collates them. The
// first failure cancels the outstanding calls.
func (l *Loader) Load(ctx context.Context, indices []int) (Batch, error) {
	samples := make([]dataset.Sample, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, idx := range indices {
		g.Go(func() error {
			sample, err := l.source.Get(gctx, idx)
			if err != nil {
				return fmt.Errorf("index %d: %w", idx, err)
			}
			samples[i] = sample
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}
	return Collate(samples)
}

// Collate stacks same-key tensors and gathers strings. Every sample must
// carry the same keys with the same tensor shapes.
func Collate(samples []dataset.Sample) (Batch, error) {
	if len(samples) == 0 {
		return Batch{}, failures.Wrap(failures.ErrConfiguration, "loader", "collate", "empty batch", nil)
	}
	batch := Batch{
		Size:     len(samples),
		Tensors:  map[string]*tensor.Tensor{},
		Texts:    map[string][]string{},
		WitIdx:   make([]int64, len(samples)),
		VideoIDs: make([]string, len(samples)),
	}
	stacks := map[string][]*tensor.Tensor{}
	for i, s := range samples {
		batch.WitIdx[i] = s.WitIdx
		batch.VideoIDs[i] = s.VideoID
		if len(s.Values) != len(samples[0].Values) {
			return Batch{}, failures.Wrap(failures.ErrConfiguration, "loader", "collate", fmt.Sprintf("sample %d has %d values, want %d", i, len(s.Values), len(samples[0].Values)), nil)
		}
		for key, v := range s.Values {
			if v.Tensor != nil {
				stacks[key] = append(stacks[key], v.Tensor)
			}
			if isTextKey(key, v) {
				batch.Texts[key] = append(batch.Texts[key], v.Text)
			}
		}
	}
	for key, items := range stacks {
		if len(items) != len(samples) {
			return Batch{}, failures.Wrap(failures.ErrConfiguration, "loader", "collate", fmt.Sprintf("%s is a tensor in only %d of %d samples", key, len(items), len(samples)), nil)
		}
		stacked, err := tensor.Stack(items)
		if err != nil {
			return Batch{}, failures.Wrap(failures.ErrConfiguration, "loader", "collate", key, err)
		}
		batch.Tensors[key] = stacked
	}
	for key, texts := range batch.Texts {
		if len(texts) != len(samples) {
			return Batch{}, failures.Wrap(failures.ErrConfiguration, "loader", "collate", fmt.Sprintf("%s has text in only %d of %d samples", key, len(texts), len(samples)), nil)
		}
	}
	return batch, nil
}

// isTextKey reports whether key carries strings. Text modalities keep their
// source text next to any token tensor, even when it is empty.
func isTextKey(key string, v transform.Value) bool {
	if m, err := modality.Parse(key); err == nil {
		return m.IsText()
	}
	return v.Tensor == nil
}

// Indices returns batch number n of the given size over a dataset of length
// total, wrapping around at the end.
func Indices(n, size, total int) []int {
	out := make([]int, size)
	for i := range out {
		out[i] = (n*size + i) % total
	}
	return out
}
