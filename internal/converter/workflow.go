package converter

import (
	"context"
	"path/filepath"
	"strings"

	"hermes/internal/export"
	"hermes/internal/failure"
	"hermes/internal/logging"
	"hermes/internal/session"
	"hermes/internal/template"
)

// ExportNow writes the included rows to destination. An empty destination
// reuses the project's last export location and an empty mode uses the
// configured default.
func (c *Converter) ExportNow(ctx context.Context, mode export.Mode, destination string, progress export.ProgressFunc) (export.Summary, error) {
	model, err := c.activeModel()
	if err != nil {
		return export.Summary{}, err
	}
	if mode == "" {
		if mode, err = export.ParseMode(c.cfg.Export.Mode); err != nil {
			return export.Summary{}, err
		}
	}
	destination = strings.TrimSpace(destination)
	if destination != "" {
		if abs, err := filepath.Abs(destination); err == nil {
			destination = abs
		}
		model.SetExportLocation(destination)
	}
	if strings.TrimSpace(model.ExportLocation()) == "" {
		return export.Summary{}, failure.Wrap(failure.ErrNoExportLocation, "converter", "export", "choose an export destination first", nil)
	}
	if err := c.lifecycle.Advance(session.StateExportReady); err != nil {
		return export.Summary{}, err
	}

	ctx, logger := c.projectScope(ctx, model)
	snap := model.Snapshot()
	summary, err := export.Run(ctx, snap, export.Options{
		Mode:      mode,
		Selection: c.selection(snap),
		Progress:  progress,
		Logger:    logger,
	})
	if err != nil {
		logging.ErrorWithContext(logger, "export failed", "export_failed",
			logging.String(logging.FieldMode, string(mode)),
			logging.String("destination", model.ExportLocation()),
			logging.Error(err),
		)
		return summary, err
	}
	if err := c.lifecycle.Advance(session.StateExported); err != nil {
		return summary, err
	}
	logger.Info("project exported",
		logging.String(logging.FieldMode, string(mode)),
		logging.String("destination", summary.Destination),
		logging.Int("exported", summary.Exported),
		logging.Int("warnings", len(summary.Warnings)),
	)
	return summary, nil
}

// CreateTemplate saves the project's text skeleton under the project's
// templates directory and returns the file written.
func (c *Converter) CreateTemplate(name string, fields template.FieldSelection) (string, int, error) {
	model, err := c.activeModel()
	if err != nil {
		return "", 0, err
	}
	if strings.TrimSpace(name) == "" {
		name = model.Name()
	}
	path := c.manager.Paths(model).Template(name)
	count, err := template.Create(model.Snapshot(), fields, path)
	if err != nil {
		return "", 0, err
	}
	c.logger.Info("template created",
		logging.String("template", path),
		logging.String("fields", fields.String()),
		logging.Int("rows", count),
	)
	return path, count, nil
}

// LoadTemplate appends a template's rows to the project and returns how many
// were added.
func (c *Converter) LoadTemplate(path string) (int, error) {
	model, err := c.activeModel()
	if err != nil {
		return 0, err
	}
	rows, err := template.Load(path)
	if err != nil {
		return 0, err
	}
	if err := c.lifecycle.Edit(); err != nil {
		return 0, err
	}
	if len(rows) > 0 {
		model.Append(rows...)
	}
	c.logger.Info("template loaded", logging.String("template", path), logging.Int("rows", len(rows)))
	return len(rows), nil
}
