package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tali/internal/logging"
	"tali/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var setName string
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <records.jsonl>...",
		Short: "Load JSON Lines records into the split's store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			logger = logging.NewComponentLogger(logger, "import")

			total, err := store.CountLines(args...)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg, setName)
			if err != nil {
				return err
			}
			defer st.Close()

			opts := store.ImportOptions{Replace: replace}
			var bar *progressbar.ProgressBar
			if isTerminal(cmd.OutOrStdout()) {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("importing"),
					progressbar.OptionShowCount(),
					progressbar.OptionThrottle(100*time.Millisecond),
					progressbar.OptionClearOnFinish(),
				)
				opts.Progress = func(imported int) { _ = bar.Set(imported) }
			} else {
				sampler := logging.NewProgressSampler(10)
				opts.Progress = func(imported int) {
					if sampler.ShouldLog(imported, total) {
						logger.Info("import progress",
							logging.Int("imported", imported),
							logging.Int("total", total),
						)
					}
				}
			}

			started := time.Now()
			imported, err := st.Import(cmd.Context(), store.ReadJSONL(args...), opts)
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return fmt.Errorf("import rolled back: %w", err)
			}

			size, err := st.Len(cmd.Context())
			if err != nil {
				return err
			}
			elapsed := time.Since(started)
			logger.Info("import complete",
				logging.Int("imported", imported),
				logging.Int("records", size),
				logging.Duration("elapsed", elapsed),
				logging.String("store", st.Path()),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s records into %s (%s total) in %s\n",
				humanize.Comma(int64(imported)), st.Path(), humanize.Comma(int64(size)), elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&setName, "set", "", "Split to import into (defaults to dataset.set_name)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Remove existing records first")
	return cmd
}
