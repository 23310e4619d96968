package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tali/internal/preflight"
)

var errChecksFailed = errors.New("one or more checks failed")

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check media tools, directories and the record store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			failed := false

			fmt.Fprintln(out, "Dependencies")
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				kind := statusOK
				detail := status.Detail
				if !status.Available {
					kind = statusError
					if status.Optional {
						kind = statusWarn
					} else {
						failed = true
					}
				}
				if detail == "" {
					detail = status.Description
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, detail, colorize))
			}

			fmt.Fprintln(out, "Preflight")
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if failed || preflight.Failed(results) {
				return errChecksFailed
			}
			return nil
		},
	}
}
