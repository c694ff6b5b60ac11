// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/invowk/textcmd/internal/issue"
	"github.com/invowk/textcmd/internal/shellbody"
	"github.com/invowk/textcmd/pkg/command"
)

// DefaultPattern matches descriptors anywhere below the base directory.
const DefaultPattern = "**/*.textcmd.{cue,toml}"

type (
	// Loader finds and loads descriptors.
	Loader struct {
		// BaseDir anchors relative patterns; the working directory when empty.
		BaseDir string
		// Patterns are doublestar globs; DefaultPattern when empty.
		Patterns []string
		// Shell is the template runner for script bodies. Its Dir is
		// replaced per descriptor unless Workdir is set.
		Shell shellbody.Runner
		// Workdir pins the script working directory.
		Workdir string
		// ScriptsDisabled makes every script body fail with shellbody.ErrDisabled.
		ScriptsDisabled bool
		// Logger receives diagnostics; nil discards them.
		Logger *log.Logger
	}

	// LoadedFile is a descriptor that loaded successfully.
	LoadedFile struct {
		Path  string
		File  *File
		Types []command.ModuleType

		// modules[i] is the module Register added for Types[i]; nil while
		// the type is not registered.
		modules []*command.Module
	}

	// Result is the outcome of one discovery pass. It implements
	// command.ModuleSource over the files that loaded.
	Result struct {
		Files       []*LoadedFile
		Diagnostics []Diagnostic
	}
)

// Discover loads every descriptor matched by the patterns. Files that fail
// to load become diagnostics; only an invalid pattern is an error.
func (l *Loader) Discover(ctx context.Context) (*Result, error) {
	paths, err := l.Files()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery canceled: %w", err)
		}
		lf, err := l.LoadFile(p)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityError,
				Code:     CodeDescriptorSkipped,
				Message:  err.Error(),
				Path:     p,
				Cause:    err,
			})
			continue
		}
		res.Files = append(res.Files, lf)
	}
	for _, d := range res.Diagnostics {
		l.logger().Warn("skipping descriptor", "path", d.Path, "err", d.Cause)
	}
	return res, nil
}

// ModuleTypes implements command.ModuleSource.
func (l *Loader) ModuleTypes(ctx context.Context) ([]command.ModuleType, error) {
	res, err := l.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return res.ModuleTypes(ctx)
}

// ModuleTypes implements command.ModuleSource.
func (r *Result) ModuleTypes(context.Context) ([]command.ModuleType, error) {
	var out []command.ModuleType
	for _, f := range r.Files {
		out = append(out, f.Types...)
	}
	return out, nil
}

// Files returns the sorted, de-duplicated descriptor paths matched by the
// patterns. Relative patterns resolve against BaseDir.
func (l *Loader) Files() ([]string, error) {
	base, err := l.baseDir()
	if err != nil {
		return nil, err
	}
	patterns := l.Patterns
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}

	seen := make(map[string]bool)
	var out []string
	for _, pat := range patterns {
		matches, err := glob(base, pat)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("discover module descriptors").
				WithResource(pat).
				WithIssue(issue.DescriptorLoadFailedId).
				WithSuggestion("Check the modules.paths globs in your configuration").
				Wrap(err).
				BuildError()
		}
		for _, m := range matches {
			if seen[m] || !IsDescriptor(m) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Matches reports whether path (absolute, or relative to BaseDir) is a
// descriptor selected by the patterns.
func (l *Loader) Matches(p string) bool {
	if !IsDescriptor(p) {
		return false
	}
	base, err := l.baseDir()
	if err != nil {
		return false
	}
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(base, abs)
	}
	patterns := l.Patterns
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	for _, pat := range patterns {
		full := pat
		if !filepath.IsAbs(pat) {
			full = filepath.ToSlash(filepath.Join(base, pat))
		}
		if ok, _ := doublestar.PathMatch(filepath.FromSlash(full), abs); ok {
			return true
		}
	}
	return false
}

// LoadFile reads, validates and converts one descriptor.
func (l *Loader) LoadFile(p string) (*LoadedFile, error) {
	fail := func(err error) error {
		return issue.NewErrorContext().
			WithOperation("load module descriptor").
			WithResource(p).
			WithIssue(issue.DescriptorLoadFailedId).
			Wrap(err).
			BuildError()
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fail(err)
	}
	file, err := ParseFile(p, data)
	if err != nil {
		return nil, fail(err)
	}

	lf := &LoadedFile{Path: p, File: file}
	for i, decl := range file.Modules {
		if err := validateModule(decl, fmt.Sprintf("modules[%d]", i)); err != nil {
			return nil, fail(err)
		}
		lf.Types = append(lf.Types, l.moduleType(p, decl))
	}
	return lf, nil
}

func (l *Loader) baseDir() (string, error) {
	base := l.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		base = wd
	}
	return filepath.Abs(base)
}

func (l *Loader) logger() *log.Logger {
	if l.Logger == nil {
		return log.New(io.Discard)
	}
	return l.Logger
}

// glob matches pat against the filesystem. Relative patterns walk base
// through an fs.FS so results stay inside it.
func glob(base, pat string) ([]string, error) {
	if !doublestar.ValidatePattern(filepath.ToSlash(pat)) {
		return nil, doublestar.ErrBadPattern
	}
	if filepath.IsAbs(pat) {
		return doublestar.FilepathGlob(pat, doublestar.WithFilesOnly())
	}
	rel := path.Clean(filepath.ToSlash(pat))
	matches, err := doublestar.Glob(os.DirFS(base), rel, doublestar.WithFilesOnly())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(base, filepath.FromSlash(m))
	}
	return out, nil
}
