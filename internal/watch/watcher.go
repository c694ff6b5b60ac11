// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
// Editors commonly write a temp file then rename it; both events collapse
// into one callback.
const DefaultDebounce = 300 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Watcher.Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// defaultIgnores are never reported, whatever Config.Ignore says.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.#*",
	"**/.DS_Store",
}

type (
	// ChangeFunc receives the de-duplicated set of paths that changed,
	// relative to the watcher's base directory.
	ChangeFunc func(ctx context.Context, changed []string) error

	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is watched recursively; the working directory when empty.
		BaseDir string
		// Patterns select the paths that trigger OnChange. Empty selects all.
		Patterns []string
		// Ignore is merged with the built-in ignores.
		Ignore []string
		// Debounce falls back to DefaultDebounce when not positive.
		Debounce time.Duration
		// OnChange may be nil.
		OnChange ChangeFunc
		// Logger receives watcher warnings; nil discards them.
		Logger *log.Logger
	}

	// Watcher reports debounced filesystem changes below a directory.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory below BaseDir.
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		logger:   logger,
		debounce: debounce,
		baseDir:  absBase,
	}
	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close watcher after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// BaseDir returns the absolute directory being watched.
func (w *Watcher) BaseDir() string { return w.baseDir }

// Run processes events until ctx is canceled. Callbacks never overlap: a
// debounce window that closes while OnChange is still running is retried
// once the window closes again. Run returns nil on cancellation and an
// error when fsnotify reports an unrecoverable condition.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			w.logger.Debug("change callback still running, retrying later")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Warn("change callback failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.isIgnored(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.matchesPatterns(rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalWatchError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.baseDir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "err", walkErr)
			return nil //nolint:nilerr // inaccessible subtrees are not watched
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.baseDir, p)
		if relErr != nil {
			return nil //nolint:nilerr // unreachable for paths produced by WalkDir
		}
		if w.isIgnored(rel) || w.isIgnored(rel+"/") {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(p); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

// maybeAddDir extends the recursive watch to directories created after New.
func (w *Watcher) maybeAddDir(p string) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.baseDir, p)
	if err != nil || w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	if err := w.fsw.Add(p); err != nil {
		w.logger.Warn("watch new directory", "path", p, "err", err)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matchesPatterns(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}
