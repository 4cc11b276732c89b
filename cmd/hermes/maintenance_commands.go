package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hermes/internal/preflight"
	"hermes/internal/staging"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove scratch clips left by earlier runs",
		Long: `Remove scratch directories left behind by hermes processes.

Directories owned by a process that is no longer running are removed, as are
directories older than session.scratch_max_age_hours. Use --list to only show
what is on disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			scratchDir := cfg.Paths.ScratchDir

			if list {
				dirs, err := staging.ListDirectories(scratchDir)
				if err != nil {
					return fmt.Errorf("list scratch directories: %w", err)
				}
				if ctx.JSONMode() {
					if dirs == nil {
						dirs = []staging.DirInfo{}
					}
					return writeJSON(cmd, map[string]any{"scratch_dir": scratchDir, "directories": dirs})
				}
				if len(dirs) == 0 {
					fmt.Fprintln(out, "No scratch directories found")
					return nil
				}
				var total int64
				rows := make([][]string, 0, len(dirs))
				for _, dir := range dirs {
					total += dir.Size
					rows = append(rows, []string{dir.Name, formatAge(time.Since(dir.ModTime)), humanize.IBytes(uint64(dir.Size))})
				}
				fmt.Fprintf(out, "Scratch directory: %s\n\n", scratchDir)
				fmt.Fprint(out, renderTable(out, []string{"Directory", "Age", "Size"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
				fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), humanize.IBytes(uint64(total)))
				return nil
			}

			logger := ctx.ensureLogger()
			orphaned := staging.CleanOrphaned(cmd.Context(), scratchDir, logger)
			stale := staging.CleanStale(cmd.Context(), scratchDir, cfg.ScratchMaxAge(), logger)
			removed := len(orphaned.Removed) + len(stale.Removed)
			errs := append(orphaned.Errors, stale.Errors...)
			if ctx.JSONMode() {
				messages := make([]string, 0, len(errs))
				for _, e := range errs {
					messages = append(messages, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{"removed": removed, "errors": messages})
			}
			for _, e := range errs {
				fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
			}
			if removed == 0 && len(errs) == 0 {
				fmt.Fprintln(out, "No scratch directories to clean")
				return nil
			}
			fmt.Fprintf(out, "Removed %d scratch directories\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List scratch directories instead of removing them")
	return cmd
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if ctx.JSONMode() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "ok"
					switch {
					case !r.Passed && r.Optional:
						status = "missing (optional)"
					case !r.Passed:
						status = "FAILED"
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				fmt.Fprint(out, renderTable(out, []string{"Check", "Status", "Detail"}, rows, nil))
			}
			if blocking := preflight.Blocking(results); len(blocking) > 0 {
				return fmt.Errorf("%d checks failed", len(blocking))
			}
			return nil
		},
	}
}
