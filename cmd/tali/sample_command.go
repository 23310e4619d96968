package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tali/internal/dataset"
	"tali/internal/gomlxds"
	"tali/internal/loader"
	"tali/internal/logging"
)

type keyInfo struct {
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	DType string `json:"dtype,omitempty"`
	Shape []int  `json:"shape"`
}

type sampleReport struct {
	Records        int       `json:"records"`
	Batches        int       `json:"batches"`
	Samples        int       `json:"samples"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	SamplesPerSec  float64   `json:"samples_per_second"`
	WitIdx         []int64   `json:"wit_idx"`
	Keys           []keyInfo `json:"keys"`

	Hierarchy map[string]map[string]keyInfo `json:"hierarchy,omitempty"`
}

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var setName string
	var count int
	var batchSize int
	var start int
	var viaGomlx bool
	var asJSON bool
	var hierarchical bool

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Load batches through the full pipeline and report their layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("--count must be >= 1, got %d", count)
			}
			if batchSize <= 0 {
				batchSize = cfg.Loader.BatchSize
			}

			p, err := openPipeline(cmd.Context(), cfg, logger, setName)
			if err != nil {
				return err
			}
			defer p.Close()

			started := time.Now()
			var report sampleReport
			if viaGomlx {
				report, err = sampleGomlx(cmd, p, batchSize, count)
			} else {
				report, err = sampleBatches(cmd, p, batchSize, start, count)
			}
			if err != nil {
				return err
			}
			report.Records = p.dataset.Records()
			if hierarchical {
				sample, err := p.dataset.Get(cmd.Context(), (start*batchSize)%p.dataset.Len())
				if err != nil {
					return err
				}
				report.Hierarchy = hierarchyKeys(sample)
			}
			elapsed := time.Since(started)
			report.ElapsedSeconds = elapsed.Seconds()
			if report.ElapsedSeconds > 0 {
				report.SamplesPerSec = float64(report.Samples) / report.ElapsedSeconds
			}

			logging.NewComponentLogger(logger, "sample").Info("sampling complete",
				logging.Int("batches", report.Batches),
				logging.Int("samples", report.Samples),
				logging.Duration("elapsed", elapsed),
			)
			if asJSON {
				return writeJSON(cmd, report)
			}
			renderSampleReport(cmd, report, elapsed)
			return nil
		},
	}

	cmd.Flags().StringVar(&setName, "set", "", "Split to sample (defaults to dataset.set_name)")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of batches to load")
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Samples per batch (defaults to loader.batch_size)")
	cmd.Flags().IntVar(&start, "start", 0, "First batch number")
	cmd.Flags().BoolVar(&viaGomlx, "gomlx", false, "Pull batches through the gomlx dataset adapter")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON instead of tables")
	cmd.Flags().BoolVar(&hierarchical, "hierarchical", false, "Also report the first sample grouped by modality group")
	return cmd
}

func sampleBatches(cmd *cobra.Command, p *pipeline, batchSize, start, count int) (sampleReport, error) {
	var report sampleReport
	var bar *progressbar.ProgressBar
	if isTerminal(cmd.OutOrStdout()) {
		bar = progressbar.NewOptions(count,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("sampling"),
			progressbar.OptionClearOnFinish(),
		)
		defer func() { _ = bar.Finish() }()
	}
	total := p.dataset.Len()
	for n := start; n < start+count; n++ {
		batch, err := p.loader.Load(cmd.Context(), loader.Indices(n, batchSize, total))
		if err != nil {
			return report, fmt.Errorf("batch %d: %w", n, err)
		}
		report.Batches++
		report.Samples += batch.Size
		report.WitIdx = append(report.WitIdx, batch.WitIdx...)
		report.Keys = batchKeys(batch)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return report, nil
}

func sampleGomlx(cmd *cobra.Command, p *pipeline, batchSize, count int) (sampleReport, error) {
	var report sampleReport
	ds, err := gomlxds.New(cmd.Context(), p.loader, gomlxds.Options{BatchSize: batchSize, Length: p.dataset.Len()})
	if err != nil {
		return report, err
	}
	for report.Batches < count {
		spec, inputs, labels, err := ds.Yield()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("batch %d: %w", report.Batches, err)
		}
		report.Batches++
		report.Samples += batchSize
		report.Keys = gomlxKeys(spec, inputs)
		if len(labels) > 0 {
			if ids, ok := labels[0].Value().([]int64); ok {
				report.WitIdx = append(report.WitIdx, ids...)
			}
		}
	}
	return report, nil
}

func batchKeys(batch loader.Batch) []keyInfo {
	keys := make([]keyInfo, 0, len(batch.Tensors)+len(batch.Texts))
	for key, t := range batch.Tensors {
		keys = append(keys, keyInfo{Key: key, Kind: "tensor", DType: t.DType().String(), Shape: t.Shape()})
	}
	for key, texts := range batch.Texts {
		keys = append(keys, keyInfo{Key: key, Kind: "text", Shape: []int{len(texts)}})
	}
	slices.SortFunc(keys, func(a, b keyInfo) int {
		if c := strings.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return strings.Compare(a.Kind, b.Kind)
	})
	return keys
}

func hierarchyKeys(sample dataset.Sample) map[string]map[string]keyInfo {
	out := make(map[string]map[string]keyInfo)
	for group, values := range dataset.Hierarchical(sample) {
		keys := make(map[string]keyInfo, len(values))
		for key, v := range values {
			if v.IsTensor() {
				keys[key] = keyInfo{Key: key, Kind: "tensor", DType: v.Tensor.DType().String(), Shape: v.Tensor.Shape()}
				continue
			}
			keys[key] = keyInfo{Key: key, Kind: "text", Shape: []int{}}
		}
		out[string(group)] = keys
	}
	return out
}

func gomlxKeys(spec any, inputs []*tensors.Tensor) []keyInfo {
	joined, _ := spec.(string)
	names := strings.Split(joined, ",")
	keys := make([]keyInfo, 0, len(inputs))
	for i, t := range inputs {
		name := strconv.Itoa(i)
		if i < len(names) {
			name = names[i]
		}
		shape := t.Shape()
		keys = append(keys, keyInfo{Key: name, Kind: "tensor", DType: shape.DType.String(), Shape: shape.Dimensions})
	}
	return keys
}

func renderSampleReport(cmd *cobra.Command, report sampleReport, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	rows := make([][]string, len(report.Keys))
	for i, k := range report.Keys {
		rows[i] = []string{k.Key, k.Kind, k.DType, formatShape(k.Shape)}
	}
	fmt.Fprintln(out, renderTable("Batch layout", []string{"Key", "Kind", "DType", "Shape"}, rows, nil))
	if len(report.Hierarchy) > 0 {
		groups := make([]string, 0, len(report.Hierarchy))
		for group := range report.Hierarchy {
			groups = append(groups, group)
		}
		slices.Sort(groups)
		var grouped [][]string
		for _, group := range groups {
			keys := make([]string, 0, len(report.Hierarchy[group]))
			for key := range report.Hierarchy[group] {
				keys = append(keys, key)
			}
			slices.Sort(keys)
			for _, key := range keys {
				k := report.Hierarchy[group][key]
				grouped = append(grouped, []string{group, key, k.Kind, formatShape(k.Shape)})
			}
		}
		fmt.Fprintln(out, renderTable("First sample", []string{"Group", "Key", "Kind", "Shape"}, grouped, nil))
	}
	fmt.Fprintf(out, "Loaded %s samples in %d batches from %s records in %s (%s samples/s)\n",
		humanize.Comma(int64(report.Samples)), report.Batches, humanize.Comma(int64(report.Records)),
		elapsed.Round(time.Millisecond), humanize.FormatFloat("#,###.#", report.SamplesPerSec))
}

func formatShape(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
