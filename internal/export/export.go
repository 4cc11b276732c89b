package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hermes/internal/failure"
	"hermes/internal/fileutil"
	"hermes/internal/logging"
	"hermes/internal/project"
)

// Mode selects the output layout.
type Mode string

const (
	ModeOPIE       Mode = "opie"
	ModeDictionary Mode = "dictionary"
	ModeManifest   Mode = "manifest"
)

// Modes lists every layout in display order.
var Modes = []Mode{ModeOPIE, ModeDictionary, ModeManifest}

// ErrNothingSelected is returned when the selection excludes every row.
var ErrNothingSelected = errors.New("no rows selected for export")

// ParseMode accepts a mode name, case-insensitively, plus the aliases used by
// the settings file.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "opie", "flat", "flat-tree":
		return ModeOPIE, nil
	case "dictionary", "dict", "csv":
		return ModeDictionary, nil
	case "manifest", "lmf", "json":
		return ModeManifest, nil
	default:
		return "", failure.Wrap(failure.ErrValidation, "export", "parse mode", fmt.Sprintf("unknown export mode %q", value), nil)
	}
}

// ProgressFunc is called after each eligible row.
type ProgressFunc func(completed, total int)

// Options configures one export run.
type Options struct {
	Mode        Mode
	Destination string
	// Selection maps row IDs to inclusion. Nil selects every row; otherwise
	// only IDs mapped to true are exported.
	Selection map[string]bool
	Progress  ProgressFunc
	Logger    *slog.Logger
}

// Warning records a row that was exported without one of its assets.
type Warning struct {
	Row int
	ID  string
	Err error
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d: %v", w.Row, w.Err)
}

// Summary reports what a run produced.
type Summary struct {
	Mode        Mode
	Destination string
	Exported    int
	Skipped     int
	Files       []string
	Warnings    []Warning
}

// Fraction returns the completed share of eligible rows.
func Fraction(completed, total int) float64 {
	if total <= 0 {
		return 1
	}
	return float64(completed) / float64(total)
}

// DestinationEmpty reports whether dest has no entries. A missing directory
// counts as empty.
func DestinationEmpty(dest string) (bool, error) {
	return fileutil.DirEmpty(dest)
}

// Eligible returns the rows a run would write, in display order, and the
// number of selected rows.
func Eligible(snap project.Snapshot, selection map[string]bool) ([]project.Transcription, int) {
	var rows []project.Transcription
	selected := 0
	for _, row := range snap.Rows {
		if selection != nil && !selection[row.ID] {
			continue
		}
		selected++
		if strings.TrimSpace(row.Transcription) == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, selected
}

// Run writes snap to opts.Destination in opts.Mode.
func Run(ctx context.Context, snap project.Snapshot, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldMode, string(opts.Mode)))

	dest := strings.TrimSpace(opts.Destination)
	if dest == "" {
		dest = strings.TrimSpace(snap.ExportLocation)
	}
	if dest == "" {
		return Summary{}, failure.Wrap(failure.ErrNoExportLocation, "export", "run", "choose an export destination first", nil)
	}

	var w writer
	switch opts.Mode {
	case ModeOPIE:
		w = &opieWriter{}
	case ModeDictionary:
		w = &dictionaryWriter{}
	case ModeManifest:
		w = &manifestWriter{meta: snap.Metadata}
	default:
		return Summary{}, failure.Wrap(failure.ErrValidation, "export", "run", fmt.Sprintf("unknown export mode %q", opts.Mode), nil)
	}

	rows, selected := Eligible(snap, opts.Selection)
	if selected == 0 {
		return Summary{}, ErrNothingSelected
	}

	summary := Summary{Mode: opts.Mode, Destination: dest, Skipped: len(snap.Rows) - len(rows)}
	defer func() {
		if err := w.close(); err != nil {
			logger.Warn("failed to close export output", logging.Error(err))
		}
	}()
	if err := w.begin(dest); err != nil {
		return summary, failure.Wrap(failure.ErrWriteFailure, "export", "prepare", dest, err)
	}

	sampler := logging.NewProgressSampler(25)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		assets := collectAssets(ctx, row)
		for _, warn := range assets.warnings {
			summary.Warnings = append(summary.Warnings, warn)
			logging.WarnWithContext(logger, "row exported without asset", "export_asset_missing",
				logging.Int(logging.FieldRow, row.Index),
				logging.Error(warn.Err),
				logging.String(logging.FieldErrorHint, "reload the source audio or reattach the file"),
				logging.String(logging.FieldImpact, "asset omitted from export"),
			)
		}
		files, err := w.row(row, assets)
		if err != nil {
			return summary, failure.Wrap(failure.ErrWriteFailure, "export", "write row", fmt.Sprintf("row %d", row.Index), err)
		}
		summary.Files = append(summary.Files, files...)
		summary.Exported++
		if opts.Progress != nil {
			opts.Progress(i+1, len(rows))
		}
		if percent := Fraction(i+1, len(rows)) * 100; sampler.ShouldLog(percent) {
			logger.Debug("export progress", logging.Float64("percent", percent))
		}
	}

	files, err := w.finish()
	if err != nil {
		return summary, failure.Wrap(failure.ErrWriteFailure, "export", "finish", dest, err)
	}
	summary.Files = append(summary.Files, files...)

	logger.Info("export complete",
		logging.String("destination", dest),
		logging.Int("exported", summary.Exported),
		logging.Int("skipped", summary.Skipped),
		logging.Int("warnings", len(summary.Warnings)),
		logging.String(logging.FieldEventType, "export_complete"),
	)
	return summary, nil
}

type writer interface {
	begin(dest string) error
	row(row project.Transcription, assets rowAssets) ([]string, error)
	finish() ([]string, error)
	// close releases anything begin opened. It runs after finish and after
	// an aborted run.
	close() error
}

// rowAssets are the source files a row contributes. Empty strings mean the
// asset is absent or unavailable.
type rowAssets struct {
	audio    string
	image    string
	warnings []Warning
}

func collectAssets(ctx context.Context, row project.Transcription) rowAssets {
	var assets rowAssets
	if row.Sample != nil {
		path, err := row.Sample.ResolvePath(ctx)
		switch {
		case err != nil:
			assets.warnings = append(assets.warnings, Warning{Row: row.Index, ID: row.ID, Err: err})
		case !isFile(path):
			assets.warnings = append(assets.warnings, Warning{Row: row.Index, ID: row.ID,
				Err: failure.Wrap(failure.ErrAudioUnavailable, "export", "audio", fmt.Sprintf("clip %s is missing", path), nil)})
		default:
			assets.audio = path
		}
	}
	if image := strings.TrimSpace(row.Image); image != "" {
		if isFile(image) {
			assets.image = image
		} else {
			assets.warnings = append(assets.warnings, Warning{Row: row.Index, ID: row.ID,
				Err: failure.Wrap(failure.ErrMediaNotFound, "export", "image", fmt.Sprintf("image %s is missing", image), nil)})
		}
	}
	return assets
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func ensureDirs(root string, names ...string) error {
	for _, name := range names {
		if _, err := fileutil.EnsureDir(filepath.Join(root, name)); err != nil {
			return err
		}
	}
	return nil
}

func writeText(path, text string) error {
	return fileutil.WriteFileAtomic(path, []byte(text), 0o644)
}
