// Package watch recompiles the policy whenever the catalogs file
// changes, so an external editor session always has a fresh document.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/irqpolicy/irqpolicy/internal/catalog"
	"github.com/irqpolicy/irqpolicy/internal/eventbus"
	"github.com/irqpolicy/irqpolicy/internal/export"
	"github.com/irqpolicy/irqpolicy/internal/policy"
	"github.com/irqpolicy/irqpolicy/internal/store"
)

// Recorder persists compile history entries. Satisfied by store.Store.
type Recorder interface {
	RecordCompile(ctx context.Context, rec *store.CompileRecord) error
}

// Config holds the watcher inputs.
type Config struct {
	CatalogPath string        // YAML file to watch
	OutputPath  string        // compiled document destination
	Project     string        // meta.project for exports
	Debounce    time.Duration // settle time after an edit burst
}

// Watcher reloads, recompiles and rewrites on catalog edits. Errors
// (mid-save truncation, invalid YAML) are logged and leave the last
// good output in place.
type Watcher struct {
	cfg      Config
	bus      *eventbus.EventBus
	recorder Recorder
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// New creates a watcher. The recorder may be nil when no history is
// wanted.
func New(cfg Config, bus *eventbus.EventBus, recorder Recorder, logger *slog.Logger) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save
	// and a file watch dies with the old inode.
	if err := fsw.Add(filepath.Dir(cfg.CatalogPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(cfg.CatalogPath), err)
	}
	return &Watcher{cfg: cfg, bus: bus, recorder: recorder, logger: logger, fsw: fsw}, nil
}

// Run compiles once up front, then blocks handling edit events until the
// context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.recompile(ctx); err != nil {
		w.logger.Error("initial compile failed", "error", err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("catalog edit", "op", event.Op.String(), "path", event.Name)
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)

		case <-timerC:
			timerC = nil
			timer = nil
			if err := w.recompile(ctx); err != nil {
				w.logger.Error("recompile failed, keeping last good output", "error", err)
				continue
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.cfg.CatalogPath) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// recompile is the full reload, compile, write, publish cycle.
func (w *Watcher) recompile(ctx context.Context) error {
	c, err := catalog.Load(w.cfg.CatalogPath)
	if err != nil {
		return err
	}
	w.bus.Publish(eventbus.Event{Type: eventbus.EventCatalogReloaded, Path: w.cfg.CatalogPath})

	doc := policy.Compile(c)
	doc.Meta = export.NewMeta(w.cfg.Project, "watch mode")

	n, err := export.WriteFile(w.cfg.OutputPath, doc)
	if err != nil {
		return err
	}
	w.logger.Info("policy compiled",
		"isrs", len(doc.InterruptVectors),
		"rules", len(doc.ControlRules),
		"out", w.cfg.OutputPath,
		"bytes", n)
	w.bus.Publish(eventbus.Event{
		Type:   eventbus.EventPolicyCompiled,
		Path:   w.cfg.OutputPath,
		Detail: fmt.Sprintf("%d rules", len(doc.ControlRules)),
	})

	if w.recorder != nil {
		rec := &store.CompileRecord{
			Timestamp:  time.Now(),
			ISRCount:   len(doc.InterruptVectors),
			RuleCount:  len(doc.ControlRules),
			OutputPath: w.cfg.OutputPath,
			SizeBytes:  int64(n),
		}
		if err := w.recorder.RecordCompile(ctx, rec); err != nil {
			w.logger.Warn("record compile", "error", err)
		}
	}
	return nil
}

// CompileOnce runs a single reload/compile/write cycle without watching.
func CompileOnce(ctx context.Context, cfg Config, bus *eventbus.EventBus, recorder Recorder, logger *slog.Logger) error {
	w := &Watcher{cfg: cfg, bus: bus, recorder: recorder, logger: logger}
	return w.recompile(ctx)
}
