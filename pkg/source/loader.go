package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/macropower/rulecat/api"
	"github.com/macropower/rulecat/api/v1beta1/rulesets"
	"github.com/macropower/rulecat/data"
	"github.com/macropower/rulecat/pkg/rule"
)

const builtinPattern = "*.{yaml,yml}"

// Loader reads rule set files into batches.
type Loader struct {
	builtin    fs.FS
	logger     *slog.Logger
	builtinDir string
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*Loader)

// WithBuiltin replaces the embedded rule sets with the files in dir of fsys.
func WithBuiltin(fsys fs.FS, dir string) LoaderOpt {
	return func(l *Loader) {
		l.builtin = fsys
		l.builtinDir = dir
	}
}

// WithLogger sets the logger. It is also passed to the catalog.
func WithLogger(logger *slog.Logger) LoaderOpt {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a new [Loader].
func NewLoader(opts ...LoaderOpt) *Loader {
	l := &Loader{
		builtin:    data.Rules,
		builtinDir: data.RulesDir,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load returns the batches selected by cfg.
func (l *Loader) Load(ctx context.Context, cfg *Config) ([]rule.Batch, error) {
	var batches []rule.Batch

	if cfg.Builtin == nil || *cfg.Builtin {
		b, err := l.LoadBuiltin(ctx)
		if err != nil {
			return nil, err
		}

		batches = append(batches, b...)
	}

	files, err := Files(cfg.Sources)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load rule sets: %w", err)
		}

		b, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}

		batches = append(batches, b)
	}

	return batches, nil
}

// LoadBuiltin returns the embedded rule sets in file name order.
func (l *Loader) LoadBuiltin(ctx context.Context) ([]rule.Batch, error) {
	names, err := doublestar.Glob(l.builtin, l.builtinDir+"/"+builtinPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list built-in rule sets: %w", err)
	}

	slices.Sort(names)

	batches := make([]rule.Batch, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load built-in rule sets: %w", err)
		}

		b, err := fs.ReadFile(l.builtin, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		rs, err := rulesets.Load(name, b)
		if err != nil {
			return nil, err //nolint:wrapcheck // Already names the file.
		}

		batches = append(batches, rs.Batch())
	}

	l.logger.Debug("loaded built-in rule sets", slog.Int("files", len(batches)))

	return batches, nil
}

func (l *Loader) loadFile(path string) (rule.Batch, error) {
	b, err := api.ReadFile(path)
	if err != nil {
		return rule.Batch{}, fmt.Errorf("%s: %w", path, err)
	}

	rs, err := rulesets.Load(path, b)
	if err != nil {
		return rule.Batch{}, err //nolint:wrapcheck // Already names the file.
	}

	l.logger.Debug("loaded rule set",
		slog.String("path", path),
		slog.String("name", rs.Name),
		slog.Int("rules", len(rs.Rules)),
	)

	return rs.Batch(), nil
}

// Files expands patterns into an ordered list of files. Matches of each
// pattern are sorted; files already matched by an earlier pattern are
// skipped. A leading "~/" is replaced by the user's home directory.
func Files(patterns []string) ([]string, error) {
	var (
		files []string
		seen  = map[string]bool{}
	)

	for _, pattern := range patterns {
		expanded, err := expandHome(pattern)
		if err != nil {
			return nil, err
		}

		matches, err := doublestar.FilepathGlob(expanded, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}

		slices.Sort(matches)

		for _, m := range matches {
			key, err := filepath.Abs(m)
			if err != nil {
				key = m
			}
			if seen[key] {
				continue
			}

			seen[key] = true
			files = append(files, m)
		}
	}

	return files, nil
}

// WatchDirs returns the directories to watch for changes to patterns: the
// static base of each pattern and the directory of every matched file.
func WatchDirs(patterns []string) ([]string, error) {
	dirs := []string{}
	add := func(dir string) {
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		expanded, err := expandHome(pattern)
		if err != nil {
			return nil, err
		}

		base, _ := doublestar.SplitPattern(filepath.ToSlash(expanded))

		info, err := os.Stat(filepath.FromSlash(base))
		if err == nil && info.IsDir() {
			add(filepath.Clean(filepath.FromSlash(base)))
		}
	}

	files, err := Files(patterns)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		add(filepath.Dir(f))
	}

	return dirs, nil
}

func expandHome(pattern string) (string, error) {
	if pattern != "~" && !strings.HasPrefix(pattern, "~/") {
		return pattern, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Join(fmt.Errorf("expand %q", pattern), err)
	}

	return filepath.Join(home, strings.TrimPrefix(pattern, "~")), nil
}
