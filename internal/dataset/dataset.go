package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"

	"tali/internal/config"
	"tali/internal/failures"
	"tali/internal/logging"
	"tali/internal/modality"
	"tali/internal/record"
	"tali/internal/transform"
)

const component = "dataset"

// InfiniteLength is the reported length in infinite sampling mode.
const InfiniteLength = 100_000_000

// Source provides raw records by dense position. *store.Store satisfies it.
type Source interface {
	Len(ctx context.Context) (int, error)
	Get(ctx context.Context, idx int) (record.Raw, error)
}

// Transformer builds a bundle from one raw record.
type Transformer interface {
	Apply(ctx context.Context, raw record.Raw) (transform.Bundle, error)
}

// Postprocessor finishes one modality value. postprocess.Set satisfies it.
type Postprocessor interface {
	Apply(m modality.Modality, v transform.Value) (transform.Value, error)
}

// Options controls index resolution and retries.
type Options struct {
	Infinite    bool
	DummyBatch  bool
	MaxAttempts int
	// Seed mixes into the per-call retry draw.
	Seed   int64
	Split  string
	Logger *slog.Logger
}

// OptionsFromConfig reads the [dataset] section.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Infinite:    cfg.Dataset.InfiniteSampling,
		DummyBatch:  cfg.Dataset.DummyBatchMode,
		MaxAttempts: cfg.Dataset.MaxAttempts,
		Seed:        cfg.Transform.RNGSeed,
		Split:       cfg.Dataset.SetName,
		Logger:      logger,
	}
}

// Dataset exposes transformed, postprocessed samples by index. It is safe
// for concurrent use; each Get owns its random state.
type Dataset struct {
	source    Source
	transform Transformer
	post      Postprocessor
	opts      Options
	size      int
	logger    *slog.Logger
	memo      atomic.Pointer[Sample]
}

// Open reads the source length once and validates the options. post may be
// nil to keep transform outputs unchanged.
func Open(ctx context.Context, source Source, tr Transformer, post Postprocessor, opts Options) (*Dataset, error) {
	if source == nil || tr == nil {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "open", "source and transform are required", nil)
	}
	if opts.MaxAttempts < 1 {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "open", "max_attempts must be >= 1", nil)
	}
	size, err := source.Len(ctx)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, failures.Wrap(failures.ErrStore, component, "open", "record source is empty", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, component)
	if opts.Split != "" {
		logger = logger.With(logging.String(logging.FieldSplit, opts.Split))
	}
	return &Dataset{
		source:    source,
		transform: tr,
		post:      post,
		opts:      opts,
		size:      size,
		logger:    logger,
	}, nil
}

// Len is the number of addressable indices.
func (d *Dataset) Len() int {
	if d.opts.Infinite {
		return InfiniteLength
	}
	return d.size
}

// Records is the number of records in the underlying source.
func (d *Dataset) Records() int { return d.size }

// Get returns the sample for idx. A failing record is replaced by a record
// drawn at random, up to MaxAttempts tries in total; after that the last
// failure is returned wrapped in failures.ErrResampleExhausted.
// Non-retryable failures are returned immediately.
func (d *Dataset) Get(ctx context.Context, idx int) (Sample, error) {
	if idx < 0 || idx >= d.Len() {
		return Sample{}, failures.Wrap(failures.ErrConfiguration, component, "get", fmt.Sprintf("index %d out of range [0, %d)", idx, d.Len()), nil)
	}
	if memo := d.memo.Load(); memo != nil {
		return *memo, nil
	}

	position := idx % d.size
	rng := rand.New(rand.NewPCG(uint64(idx), uint64(d.opts.Seed)))
	var lastErr error
	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		sample, err := d.load(ctx, position)
		if err == nil {
			if d.opts.DummyBatch {
				d.memo.CompareAndSwap(nil, &sample)
				return *d.memo.Load(), nil
			}
			return sample, nil
		}
		if !failures.Retryable(err) {
			return Sample{}, err
		}
		lastErr = err
		logger := logging.WithContext(logging.WithAttempt(logging.WithIndex(ctx, idx), attempt), d.logger)
		logger.Debug("sample failed, resampling",
			logging.Int(logging.FieldResolvedIndex, position),
			logging.String(logging.FieldErrorKind, failures.Kind(err)),
			logging.Error(err),
		)
		position = rng.IntN(d.size)
	}

	d.logger.Warn("resample attempts exhausted",
		logging.Int(logging.FieldIndex, idx),
		logging.Int("max_attempts", d.opts.MaxAttempts),
		logging.String(logging.FieldEventType, "resample_exhausted"),
		logging.String(logging.FieldErrorHint, "check media paths under paths.root_filepath and the record store"),
		logging.Error(lastErr),
	)
	return Sample{}, failures.Wrap(failures.ErrResampleExhausted, component, "get",
		fmt.Sprintf("index %d failed %d attempts", idx, d.opts.MaxAttempts), lastErr)
}

func (d *Dataset) load(ctx context.Context, position int) (Sample, error) {
	raw, err := d.source.Get(ctx, position)
	if err != nil {
		return Sample{}, err
	}
	bundle, err := d.transform.Apply(ctx, raw)
	if err != nil {
		return Sample{}, err
	}
	sample := Sample{
		WitIdx:  bundle.WitIdx,
		VideoID: bundle.VideoID,
		Values:  make(map[string]transform.Value, len(bundle.Values)),
	}
	for _, m := range modality.All() {
		value, ok := bundle.Get(m)
		if !ok {
			continue
		}
		if d.post != nil {
			value, err = d.post.Apply(m, value)
			if err != nil {
				return Sample{}, fmt.Errorf("postprocess: %w", err)
			}
		}
		sample.Values[m.Key()] = value
	}
	return sample, nil
}
