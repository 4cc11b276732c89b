package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"hermes/internal/failure"
	"hermes/internal/logging"
	"hermes/internal/project"
)

// ModelSource returns the project to autosave, or nil when none is loaded.
type ModelSource func() *project.Model

// Autosaver periodically saves the active project to its autosave file.
type Autosaver struct {
	manager  *Manager
	source   ModelSource
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAutosaver returns a stopped autosaver.
func NewAutosaver(manager *Manager, source ModelSource, interval time.Duration, logger *slog.Logger) *Autosaver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Autosaver{
		manager:  manager,
		source:   source,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "autosave"),
	}
}

// Start launches the loop. Starting a running autosaver is an error.
func (a *Autosaver) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return errors.New("autosave already running")
	}
	if a.interval <= 0 {
		return failure.Wrap(failure.ErrValidation, "session", "autosave", "interval must be positive", nil)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.loop(loopCtx, a.done)
	a.logger.Info("autosave started", logging.Duration("interval", a.interval))
	return nil
}

// Stop halts the loop and waits for an in-flight save to finish.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	a.logger.Info("autosave stopped")
}

// Running reports whether the loop is active.
func (a *Autosaver) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// SaveNow performs one autosave immediately.
func (a *Autosaver) SaveNow(ctx context.Context) error {
	model := a.source()
	if model == nil {
		return nil
	}
	target := a.manager.Paths(model).Autosave()
	_, err := a.manager.Save(ctx, model, target)
	return err
}

func (a *Autosaver) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.SaveNow(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logging.WarnWithContext(a.logger, "autosave failed", "autosave_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the project directory is writable"),
					logging.String(logging.FieldImpact, "unsaved changes at risk"),
				)
			}
		}
	}
}
