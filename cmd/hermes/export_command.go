package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"hermes/internal/config"
	"hermes/internal/converter"
	"hermes/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		modeFlag    string
		destination string
		exclude     []int
		only        []int
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Export a project's rows",
		Long: `Export a project's rows to one of three layouts:

  opie        words/, translations/, sounds/ and images/ with one file per row
  dictionary  dictionary.csv plus the clips and images it references
  manifest    manifest.json plus sounds/ and images/

Rows with an empty transcription are skipped. The destination is remembered
in the project, so later exports may omit --dest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			modeValue := modeFlag
			if strings.TrimSpace(modeValue) == "" {
				modeValue = cfg.Export.Mode
			}
			mode, err := export.ParseMode(modeValue)
			if err != nil {
				return err
			}
			dest := strings.TrimSpace(destination)
			if dest != "" {
				if dest, err = config.ExpandPath(dest); err != nil {
					return err
				}
			}

			return ctx.withProject(cmd.Context(), args[0], func(conv *converter.Converter) (bool, error) {
				if err := applySelection(conv, only, exclude); err != nil {
					return false, err
				}
				target := dest
				if target == "" {
					target = conv.Model().ExportLocation()
				}
				if target != "" && !force {
					empty, err := export.DestinationEmpty(target)
					if err != nil {
						return false, err
					}
					if !empty {
						return false, fmt.Errorf("destination %s is not empty; pass --force to overwrite", target)
					}
				}

				progress := newProgressLine(cmd.ErrOrStderr(), string(mode))
				summary, err := conv.ExportNow(cmd.Context(), mode, dest, progress.update)
				progress.done()
				if err != nil {
					return false, err
				}
				if ctx.JSONMode() {
					return true, writeJSON(cmd, summaryJSON(summary))
				}
				printSummary(cmd.OutOrStdout(), summary)
				return true, nil
			})
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Layout: opie, dictionary or manifest (defaults to export.mode)")
	cmd.Flags().StringVarP(&destination, "dest", "d", "", "Destination directory")
	cmd.Flags().IntSliceVar(&exclude, "exclude", nil, "Row numbers to leave out")
	cmd.Flags().IntSliceVar(&only, "only", nil, "Export only these row numbers")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Write into a non-empty destination")
	return cmd
}

func applySelection(conv *converter.Converter, only, exclude []int) error {
	if len(only) > 0 {
		if err := conv.SetAllIncluded(false); err != nil {
			return err
		}
		for _, index := range only {
			if err := conv.SetInclusion(index, true); err != nil {
				return err
			}
		}
	}
	for _, index := range exclude {
		if err := conv.SetInclusion(index, false); err != nil {
			return err
		}
	}
	return nil
}

func summaryJSON(summary export.Summary) map[string]any {
	warnings := make([]string, 0, len(summary.Warnings))
	for _, w := range summary.Warnings {
		warnings = append(warnings, w.String())
	}
	return map[string]any{
		"mode":        summary.Mode,
		"destination": summary.Destination,
		"exported":    summary.Exported,
		"skipped":     summary.Skipped,
		"files":       len(summary.Files),
		"warnings":    warnings,
	}
}

func printSummary(out io.Writer, summary export.Summary) {
	for _, w := range summary.Warnings {
		printWarning(out, w.String())
	}
	printSuccess(out, "Exported %d rows (%s) to %s", summary.Exported, summary.Mode, summary.Destination)
	if summary.Skipped > 0 {
		fmt.Fprintf(out, "Skipped %d rows (excluded or empty)\n", summary.Skipped)
	}
}

// progressLine draws an export progress bar on a terminal and stays silent
// otherwise. The bar is created on the first callback, once the total is known.
type progressLine struct {
	out     io.Writer
	label   string
	enabled bool
	bar     *progressbar.ProgressBar
}

func newProgressLine(out io.Writer, label string) *progressLine {
	return &progressLine{out: out, label: label, enabled: isTerminal(out)}
}

func (p *progressLine) update(completed, total int) {
	if !p.enabled {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("Exporting "+p.label),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(completed)
}

func (p *progressLine) done() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
