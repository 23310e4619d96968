package preflight

import (
	"context"

	"tali/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks that apply to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Media root", cfg.Paths.RootFilepath, AccessRead),
		CheckDirectoryAccess("Store directory", cfg.Paths.StoreDir, AccessReadWrite),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir, AccessReadWrite),
		CheckStore(ctx, cfg),
	}

	if cfg.Postprocess.UseModelPreprocessing {
		results = append(results, CheckFileReadable("Tokenizer", cfg.Postprocess.TokenizerPath))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
