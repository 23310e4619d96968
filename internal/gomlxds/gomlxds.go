package gomlxds

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"tali/internal/failures"
	"tali/internal/loader"
	"tali/internal/tensor"
)

// BatchLoader loads collated batches. *loader.Loader satisfies it.
type BatchLoader interface {
	Load(ctx context.Context, indices []int) (loader.Batch, error)
}

// Options configures the adapter.
type Options struct {
	Name      string
	BatchSize int
	// Length is the number of indices in one pass, usually Dataset.Len.
	Length int
}

// Dataset adapts a TALI dataset to the gomlx train.Dataset interface.
// Every Yield returns one batch: inputs are the stacked tensors in sorted key
// order and the single label is the batch's int64 WIT indices. A pass ends
// with io.EOF once fewer than BatchSize indices remain.
type Dataset struct {
	ctx    context.Context
	loader BatchLoader
	opts   Options

	mu   sync.Mutex
	next int
}

// New builds the adapter. ctx bounds every Yield.
func New(ctx context.Context, l BatchLoader, opts Options) (*Dataset, error) {
	if l == nil {
		return nil, failures.Wrap(failures.ErrConfiguration, "gomlxds", "new", "nil loader", nil)
	}
	if opts.BatchSize < 1 || opts.Length < opts.BatchSize {
		return nil, failures.Wrap(failures.ErrConfiguration, "gomlxds", "new",
			fmt.Sprintf("batch size %d does not fit length %d", opts.BatchSize, opts.Length), nil)
	}
	if opts.Name == "" {
		opts.Name = "tali"
	}
	return &Dataset{ctx: ctx, loader: l, opts: opts}, nil
}

// Name implements train.Dataset.
func (d *Dataset) Name() string { return d.opts.Name }

// Reset implements train.Dataset.
func (d *Dataset) Reset() {
	d.mu.Lock()
	d.next = 0
	d.mu.Unlock()
}

// Yield implements train.Dataset. Its spec value is the comma-joined input keys.
func (d *Dataset) Yield() (any, []*tensors.Tensor, []*tensors.Tensor, error) {
	d.mu.Lock()
	start := d.next
	if start+d.opts.BatchSize > d.opts.Length {
		d.mu.Unlock()
		return nil, nil, nil, io.EOF
	}
	d.next += d.opts.BatchSize
	d.mu.Unlock()

	indices := make([]int, d.opts.BatchSize)
	for i := range indices {
		indices[i] = start + i
	}
	batch, err := d.loader.Load(d.ctx, indices)
	if err != nil {
		return nil, nil, nil, err
	}
	keys, inputs, err := Convert(batch)
	if err != nil {
		return nil, nil, nil, err
	}
	labels := []*tensors.Tensor{tensors.FromFlatDataAndDimensions(batch.WitIdx, batch.Size)}
	return strings.Join(keys, ","), inputs, labels, nil
}

// Convert turns the batch's tensors into gomlx tensors in sorted key order.
func Convert(batch loader.Batch) ([]string, []*tensors.Tensor, error) {
	keys := make([]string, 0, len(batch.Tensors))
	for k := range batch.Tensors {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]*tensors.Tensor, 0, len(keys))
	for _, k := range keys {
		t := batch.Tensors[k]
		dims := t.Shape()
		switch t.DType() {
		case tensor.Float32:
			out = append(out, tensors.FromFlatDataAndDimensions(t.Float32s(), dims...))
		case tensor.Uint8:
			out = append(out, tensors.FromFlatDataAndDimensions(t.Uint8s(), dims...))
		case tensor.Int32:
			out = append(out, tensors.FromFlatDataAndDimensions(t.Int32s(), dims...))
		default:
			return nil, nil, failures.Wrap(failures.ErrConfiguration, "gomlxds", "convert", fmt.Sprintf("%s has unsupported dtype %s", k, t.DType()), nil)
		}
	}
	return keys, out, nil
}
