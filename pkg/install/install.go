package install

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/macropower/rulecat/pkg/rule"
	"github.com/macropower/rulecat/pkg/yaml"
)

// CursorRulesFile is the legacy single-file rules location.
const CursorRulesFile = ".cursorrules"

const frontMatterDelim = "---\n"

// ErrExists indicates the target file exists and force was not set.
var ErrExists = errors.New("file already exists")

// FrontMatter is the metadata block written before rule content.
type FrontMatter struct {
	Description string `json:"description"`
	Globs       string `json:"globs"`
	AlwaysApply bool   `json:"alwaysApply"`
}

// Installer writes rules into project directories.
type Installer struct {
	cfg         *Config
	logger      *slog.Logger
	force       bool
	cursorRules bool
}

// Opt configures an [Installer].
type Opt func(*Installer)

// WithForce allows replacing existing files.
func WithForce(force bool) Opt {
	return func(i *Installer) {
		i.force = force
	}
}

// WithCursorRules writes to the project's .cursorrules file instead of the
// rules directory.
func WithCursorRules(enabled bool) Opt {
	return func(i *Installer) {
		i.cursorRules = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Opt {
	return func(i *Installer) {
		i.logger = logger
	}
}

// NewInstaller creates an [Installer]. A nil cfg uses the defaults.
func NewInstaller(cfg *Config, opts ...Opt) *Installer {
	if cfg == nil {
		cfg = NewConfig()
	}

	i := &Installer{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}

	return i
}

// FileName returns the file name for a rule slug. The legacy "official/"
// namespace is dropped and remaining separators become "-".
func (i *Installer) FileName(slug string) string {
	name := strings.TrimPrefix(slug, rule.LegacyPrefix)

	return strings.ReplaceAll(name, "/", "-") + i.cfg.Extension
}

// Path returns where r is installed within root.
func (i *Installer) Path(root string, r *rule.Rule) string {
	if i.cursorRules {
		return filepath.Join(root, CursorRulesFile)
	}

	return filepath.Join(root, i.cfg.Dir, i.FileName(r.Slug))
}

// Document returns the file contents written for r.
func (i *Installer) Document(r *rule.Rule) ([]byte, error) {
	if i.cursorRules {
		return []byte(withTrailingNewline(r.Content)), nil
	}

	return Document(r)
}

// Document returns r as a rules file: front matter followed by content.
func Document(r *rule.Rule) ([]byte, error) {
	fm, err := yaml.Marshal(FrontMatter{Description: r.Title})
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var b bytes.Buffer

	b.WriteString(frontMatterDelim)
	b.Write(fm)
	b.WriteString(frontMatterDelim)
	b.WriteString(withTrailingNewline(r.Content))

	return b.Bytes(), nil
}

// Install writes r into root and returns the written path.
func (i *Installer) Install(root string, r *rule.Rule) (string, error) {
	path := i.Path(root, r)

	data, err := i.Document(r)
	if err != nil {
		return "", err
	}

	_, err = os.Stat(path)
	switch {
	case err == nil && !i.force:
		return "", fmt.Errorf("%s: %w", path, ErrExists)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return "", fmt.Errorf("create directories: %w", err)
	}

	err = writeFileAtomic(path, data)
	if err != nil {
		return "", err
	}

	i.logger.Info("installed rule",
		slog.String("slug", r.Slug),
		slog.String("path", path),
	)

	return path, nil
}

// Diff returns a unified diff from the file at path to the catalog version
// of r. The diff is empty when they are equal. A file starting with front
// matter is compared with [Document], anything else with the bare content.
func (i *Installer) Diff(path string, r *rule.Rule) (string, error) {
	current, err := os.ReadFile(path) //nolint:gosec // G304: Reading user-supplied paths.
	if err != nil {
		return "", fmt.Errorf("read installed rule: %w", err)
	}

	want := []byte(withTrailingNewline(r.Content))
	if bytes.HasPrefix(current, []byte(frontMatterDelim)) {
		want, err = Document(r)
		if err != nil {
			return "", err
		}
	}

	return udiff.Unified(path, r.Slug, string(current), string(want)), nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, err = tmp.Write(data)
	closeErr := tmp.Close()

	err = errors.Join(err, closeErr)
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o644) //nolint:gosec // G302: Rule files are meant to be shared.
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

func withTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}

	return s + "\n"
}
