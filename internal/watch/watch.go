// Package watch regenerates the gallery when its manifest is edited by hand.
package watch

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hpungsan/gallerist/internal/logging"
	"github.com/hpungsan/gallerist/internal/ops"
)

// DefaultDebounce is the quiet period after the last manifest event before regenerating.
const DefaultDebounce = 500 * time.Millisecond

// Regenerator rebuilds every artifact from the manifest.
type Regenerator interface {
	Regenerate(ctx context.Context) (*ops.RegenerateOutput, error)
}

// OwnWrites recognizes manifest contents the tool wrote itself.
type OwnWrites interface {
	IsOwnManifest(data []byte) bool
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration // defaults to DefaultDebounce
	Own      OwnWrites     // optional

	// OnRegenerate, when set, is called after every regenerate attempt.
	OnRegenerate func(*ops.RegenerateOutput, error)
}

// Watcher watches one manifest file.
type Watcher struct {
	path  string
	regen Regenerator
	opts  Options
	fsw   *fsnotify.Watcher
}

// New starts watching the directory holding manifestPath. The directory is
// watched rather than the file so atomic replacements are seen.
func New(manifestPath string, regen Regenerator, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, regen: regen, opts: opts, fsw: fsw}, nil
}

// Run handles events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	logger := logging.FromContext(ctx)
	logger.Info().Str("manifest", w.path).Msg("watching manifest")

	name := filepath.Base(w.path)
	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				if event.Op&fsnotify.Remove != 0 {
					logger.Warn().Str("manifest", w.path).Msg("manifest removed")
				}
				continue
			}
			logger.Debug().Str("event", event.Op.String()).Msg("manifest changed")
			timer.Reset(w.opts.Debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watch error")
		case <-timer.C:
			w.handleChange(ctx)
		}
	}
}

func (w *Watcher) handleChange(ctx context.Context) {
	logger := logging.FromContext(ctx)
	data, err := os.ReadFile(w.path)
	if err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			logger.Error().Err(err).Msg("read manifest")
		}
		return
	}
	if w.opts.Own != nil && w.opts.Own.IsOwnManifest(data) {
		logger.Debug().Msg("manifest change is our own write, skipped")
		return
	}

	out, err := w.regen.Regenerate(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("regenerate after manifest edit failed")
	} else {
		logger.Info().Int("labels", out.LabelsWritten).Int("docs", out.DocsWritten).Msg("regenerated after manifest edit")
	}
	if w.opts.OnRegenerate != nil {
		w.opts.OnRegenerate(out, err)
	}
}
