package main

import (
	"context"
	"log/slog"

	"tali/internal/config"
	"tali/internal/dataset"
	"tali/internal/loader"
	"tali/internal/media"
	"tali/internal/postprocess"
	"tali/internal/store"
	"tali/internal/transform"
)

// pipeline wires store, transform, postprocessing and loader for one split.
type pipeline struct {
	store   *store.Store
	dataset *dataset.Dataset
	loader  *loader.Loader
}

func openPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, setName string) (*pipeline, error) {
	tcfg, err := transform.ConfigFrom(cfg)
	if err != nil {
		return nil, err
	}
	tr, err := transform.New(tcfg, media.NewFFmpeg(cfg, logger), transform.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	post, err := postprocess.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg, setName)
	if err != nil {
		return nil, err
	}
	opts := dataset.OptionsFromConfig(cfg, logger)
	if setName != "" {
		opts.Split = setName
	}
	ds, err := dataset.Open(ctx, st, tr, post, opts)
	if err != nil {
		st.Close()
		return nil, err
	}
	ld, err := loader.New(ds, cfg.Loader.Workers)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &pipeline{store: st, dataset: ds, loader: ld}, nil
}

func (p *pipeline) Close() error {
	return p.store.Close()
}
