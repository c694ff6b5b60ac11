// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/invowk/textcmd/internal/discovery"
	"github.com/invowk/textcmd/pkg/command"
)

// Reloader keeps a registry in step with the descriptor files on disk.
// A descriptor that fails to load leaves its previously registered modules
// in place.
type Reloader struct {
	loader   *discovery.Loader
	registry discovery.Registry
	services command.Services
	logger   *log.Logger

	mu    sync.Mutex
	files map[string]*discovery.LoadedFile
}

// NewReloader tracks loaded, the files already registered with reg.
func NewReloader(l *discovery.Loader, reg discovery.Registry, svc command.Services, loaded []*discovery.LoadedFile) *Reloader {
	logger := l.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Reloader{
		loader:   l,
		registry: reg,
		services: svc,
		logger:   logger,
		files:    make(map[string]*discovery.LoadedFile, len(loaded)),
	}
	for _, f := range loaded {
		r.files[f.Path] = f
	}
	return r
}

// Reload applies one batch of changed paths. Paths are absolute or relative
// to the loader's base directory; paths the loader does not select are
// ignored. A file only ever removes the modules it registered itself; when
// modules go away, tracked files with rejected module keys are registered
// again so they can take over freed keys. The returned error joins the
// per-file load failures.
func (r *Reloader) Reload(ctx context.Context, changed []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		errs  []error
		freed bool
	)
	for _, p := range changed {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs, err := r.abs(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !r.loader.Matches(abs) {
			continue
		}

		old := r.files[abs]
		if _, statErr := os.Stat(abs); errors.Is(statErr, os.ErrNotExist) {
			if old != nil {
				keys := discovery.Unregister(r.registry, old)
				delete(r.files, abs)
				freed = freed || len(keys) > 0
				r.logger.Info("descriptor removed", "path", abs, "modules", keys)
			}
			continue
		}

		lf, err := r.loader.LoadFile(abs)
		if err != nil {
			r.logger.Warn("descriptor not reloaded", "path", abs, "err", err)
			errs = append(errs, err)
			continue
		}
		if old != nil {
			freed = len(discovery.Unregister(r.registry, old)) > 0 || freed
		}
		r.register(ctx, lf)
		r.files[abs] = lf
		r.logger.Info("descriptor reloaded", "path", abs, "modules", len(lf.Types))
	}

	if freed {
		for _, p := range slices.Sorted(maps.Keys(r.files)) {
			if f := r.files[p]; f.Pending() {
				r.register(ctx, f)
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Reloader) register(ctx context.Context, f *discovery.LoadedFile) {
	for _, d := range discovery.Register(ctx, r.registry, []*discovery.LoadedFile{f}, r.services) {
		r.logger.Warn(d.Message, "path", d.Path, "code", d.Code)
	}
}

// Tracked returns the paths of the descriptors currently registered.
func (r *Reloader) Tracked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.files))
}

// Watch runs a Watcher over the loader's base directory that feeds Reload
// until ctx is canceled.
func (r *Reloader) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := New(Config{
		BaseDir:  r.loader.BaseDir,
		Patterns: []string{"**/*" + discovery.CUEExt, "**/*" + discovery.TOMLExt},
		Debounce: debounce,
		OnChange: r.Reload,
		Logger:   r.logger,
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (r *Reloader) abs(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.loader.BaseDir, p)
	}
	return filepath.Abs(p)
}
