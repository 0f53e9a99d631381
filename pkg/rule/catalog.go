package rule

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	xstrings "github.com/charmbracelet/x/exp/strings"
)

var (
	// ErrInvalidRule indicates a rule failed structural validation.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrDuplicateSlug indicates two rules share a slug.
	ErrDuplicateSlug = errors.New("duplicate slug")
	// ErrNotFound indicates a section or rule does not exist.
	ErrNotFound = errors.New("not found")
)

// Validation controls how [NewCatalog] handles invalid rules.
type Validation string

const (
	// ValidationStrict fails construction on any invalid rule.
	ValidationStrict Validation = "strict"
	// ValidationWarn logs invalid rules and keeps them in the store.
	ValidationWarn Validation = "warn"
)

// Duplicates controls how [NewCatalog] handles rules sharing a slug.
type Duplicates string

const (
	// DuplicatesFirst keeps every rule; lookups return the first occurrence.
	DuplicatesFirst Duplicates = "first"
	// DuplicatesError fails construction when a slug repeats.
	DuplicatesError Duplicates = "error"
)

var (
	AllValidations = []string{string(ValidationStrict), string(ValidationWarn)}
	AllDuplicates  = []string{string(DuplicatesFirst), string(DuplicatesError)}
)

// Catalog is an immutable, ordered collection of rules with derived
// sections. It is safe for concurrent use.
type Catalog struct {
	logger     *slog.Logger
	bySlug     map[string]*Rule
	store      []*Rule
	validation Validation
	duplicates Duplicates
}

// CatalogOpt configures a [Catalog].
type CatalogOpt func(*Catalog)

// WithValidation sets how invalid rules are handled.
func WithValidation(v Validation) CatalogOpt {
	return func(c *Catalog) {
		c.validation = v
	}
}

// WithDuplicates sets how duplicate slugs are handled.
func WithDuplicates(d Duplicates) CatalogOpt {
	return func(c *Catalog) {
		c.duplicates = d
	}
}

// WithLogger sets the logger used to report skipped problems.
func WithLogger(l *slog.Logger) CatalogOpt {
	return func(c *Catalog) {
		c.logger = l
	}
}

// NewCatalog builds the store from batches and validates it.
func NewCatalog(batches []Batch, opts ...CatalogOpt) (*Catalog, error) {
	c := &Catalog{
		logger:     slog.Default(),
		validation: ValidationStrict,
		duplicates: DuplicatesFirst,
	}
	for _, opt := range opts {
		opt(c)
	}

	switch c.validation {
	case ValidationStrict, ValidationWarn:
	default:
		return nil, fmt.Errorf("unknown validation mode %q, want %s",
			c.validation, xstrings.EnglishJoin(AllValidations, false))
	}

	switch c.duplicates {
	case DuplicatesFirst, DuplicatesError:
	default:
		return nil, fmt.Errorf("unknown duplicates mode %q, want %s",
			c.duplicates, xstrings.EnglishJoin(AllDuplicates, false))
	}

	c.store = BuildStore(batches)

	err := c.check()
	if err != nil {
		return nil, err
	}

	c.bySlug = make(map[string]*Rule, len(c.store))
	for _, r := range c.store {
		if _, ok := c.bySlug[r.Slug]; !ok {
			c.bySlug[r.Slug] = r
		}
	}

	return c, nil
}

// MustNewCatalog calls [NewCatalog] and panics on error.
func MustNewCatalog(batches []Batch, opts ...CatalogOpt) *Catalog {
	c, err := NewCatalog(batches, opts...)
	if err != nil {
		panic(err)
	}

	return c
}

func (c *Catalog) check() error {
	var (
		errs  []error
		first = map[string]int{}
	)

	for i, r := range c.store {
		err := Validate(r)
		if err != nil {
			err = fmt.Errorf("%s: rule %d %q: %w", r.Source, i, r.Slug, err)
			if c.validation == ValidationStrict {
				errs = append(errs, err)
			} else {
				c.logger.Warn("keeping invalid rule", slog.Any("error", err))
			}
		}

		j, dup := first[r.Slug]
		if !dup {
			first[r.Slug] = i
			continue
		}

		if c.duplicates == DuplicatesError {
			errs = append(errs, fmt.Errorf("%w: %q in %s shadowed by %s",
				ErrDuplicateSlug, r.Slug, r.Source, c.store[j].Source))

			continue
		}

		c.logger.Warn("duplicate slug, first occurrence wins",
			slog.String("slug", r.Slug),
			slog.String("source", r.Source),
			slog.String("winner", c.store[j].Source),
		)
	}

	return errors.Join(errs...)
}

// Len returns the number of rules in the store.
func (c *Catalog) Len() int {
	return len(c.store)
}

// Rules returns the store in order. The returned slice may be modified by
// the caller; the rules themselves must not be.
func (c *Catalog) Rules() []*Rule {
	return slices.Clone(c.store)
}

// Tags returns every distinct tag in first-seen order.
func (c *Catalog) Tags() []string {
	return distinctTags(c.store)
}

// Sections returns one section per distinct tag, most popular first.
func (c *Catalog) Sections() []*Section {
	return buildSections(c.store)
}

// SectionBySlug returns the first section, in popularity order, whose slug
// matches.
func (c *Catalog) SectionBySlug(slug string) (*Section, bool) {
	for _, s := range c.Sections() {
		if s.Slug == slug {
			return s, true
		}
	}

	return nil, false
}

// SectionByTag returns the section for tag. Unlike slugs, tags are
// distinct, so this reaches sections whose slug collides with a more
// popular one.
func (c *Catalog) SectionByTag(tag string) (*Section, bool) {
	for _, s := range c.Sections() {
		if s.Tag == tag {
			return s, true
		}
	}

	return nil, false
}

// RuleBySlug returns the first rule whose slug matches exactly, or failing
// that, the first rule published under the legacy "official/" namespace.
// An empty slug is never found.
func (c *Catalog) RuleBySlug(slug string) (*Rule, bool) {
	if slug == "" {
		return nil, false
	}

	if r, ok := c.bySlug[slug]; ok {
		return r, true
	}

	if r, ok := c.bySlug[LegacyPrefix+slug]; ok {
		return r, true
	}

	return nil, false
}
