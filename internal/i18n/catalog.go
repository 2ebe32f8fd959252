// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var embedded embed.FS

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingKey is returned when a language table lacks a key.
	ErrMissingKey = errors.New("missing translation key")

	// ErrUnsupportedLanguage is returned for languages without a table.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// =============================================================================
// TYPES
// =============================================================================

// Vars supplies placeholder values to a template.
type Vars map[string]string

// Table maps template keys to templates for one language.
type Table map[string]string

// MissingKey names a key absent from one language table.
type MissingKey struct {
	Language string
	Key      string
}

func (m MissingKey) String() string {
	return m.Language + ": " + m.Key
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// =============================================================================
// CATALOG
// =============================================================================

// Catalog holds the string tables of every supported language. It is safe
// for concurrent use; Reload swaps tables atomically.
type Catalog struct {
	mu          sync.RWMutex
	tables      map[string]Table
	overrideDir string
}

// NewCatalog loads the embedded tables.
func NewCatalog() (*Catalog, error) {
	tables, err := loadEmbedded()
	if err != nil {
		return nil, err
	}
	return &Catalog{tables: tables}, nil
}

// NewCatalogFromTables builds a catalog from in-memory tables keyed by
// language tag.
func NewCatalogFromTables(tables map[string]Table) (*Catalog, error) {
	c := &Catalog{tables: make(map[string]Table, len(tables))}
	for tag, table := range tables {
		base, err := baseLanguage(tag)
		if err != nil {
			return nil, err
		}
		c.tables[base] = cloneTable(table)
	}
	return c, nil
}

// LoadOverrides overlays every <tag>.toml file in dir on top of the embedded
// tables. Keys in the override win; keys it does not define keep their
// embedded value. A new tag adds a new language. The directory is remembered
// for Reload.
func (c *Catalog) LoadOverrides(dir string) error {
	tables, err := loadEmbedded()
	if err != nil {
		return err
	}
	if err := overlayDir(tables, dir); err != nil {
		return err
	}

	c.mu.Lock()
	c.tables = tables
	c.overrideDir = dir
	c.mu.Unlock()
	return nil
}

// Reload re-reads the embedded tables and the override directory last
// passed to LoadOverrides. On error the current tables are kept.
func (c *Catalog) Reload() error {
	c.mu.RLock()
	dir := c.overrideDir
	c.mu.RUnlock()

	if dir == "" {
		return nil
	}
	return c.LoadOverrides(dir)
}

// Resolve renders key in the language tag with vars substituted.
func (c *Catalog) Resolve(tag language.Tag, key string, vars Vars) (string, error) {
	base, _ := tag.Base()

	c.mu.RLock()
	table, ok := c.tables[base.String()]
	var tmpl string
	var found bool
	if ok {
		tmpl, found = table[key]
	}
	c.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, tag)
	}
	if !found {
		return "", fmt.Errorf("%w: %q in %s", ErrMissingKey, key, base)
	}
	return Render(tmpl, vars), nil
}

// Supports reports whether tag has a table.
func (c *Catalog) Supports(tag language.Tag) bool {
	base, _ := tag.Base()
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[base.String()]
	return ok
}

// Supported returns the supported languages sorted by tag.
func (c *Catalog) Supported() []language.Tag {
	c.mu.RLock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	c.mu.RUnlock()

	sort.Strings(names)
	tags := make([]language.Tag, 0, len(names))
	for _, n := range names {
		tags = append(tags, language.Make(n))
	}
	return tags
}

// Match picks the supported language closest to the given preferences
// (BCP 47 tags or POSIX locales such as "es_MX.UTF-8"). It returns false
// when nothing matches with at least high confidence.
func (c *Catalog) Match(prefs ...string) (language.Tag, bool) {
	supported := c.Supported()
	if len(supported) == 0 {
		return language.Und, false
	}

	var desired []language.Tag
	for _, p := range prefs {
		p = posixToBCP47(p)
		if p == "" {
			continue
		}
		if t, err := language.Parse(p); err == nil {
			desired = append(desired, t)
		}
	}
	if len(desired) == 0 {
		return language.Und, false
	}

	_, idx, conf := language.NewMatcher(supported).Match(desired...)
	if conf < language.High {
		return language.Und, false
	}
	return supported[idx], true
}

// Validate returns every RequiredKeys entry missing from any table, plus
// keys present in some table but not in all of them.
func (c *Catalog) Validate() []MissingKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make(map[string]struct{})
	for _, k := range RequiredKeys {
		all[k] = struct{}{}
	}
	for _, table := range c.tables {
		for k := range table {
			all[k] = struct{}{}
		}
	}

	var missing []MissingKey
	for lang, table := range c.tables {
		for k := range all {
			if _, ok := table[k]; !ok {
				missing = append(missing, MissingKey{Language: lang, Key: k})
			}
		}
	}

	slices.SortFunc(missing, func(a, b MissingKey) int {
		if a.Language != b.Language {
			return strings.Compare(a.Language, b.Language)
		}
		return strings.Compare(a.Key, b.Key)
	})
	return missing
}

// =============================================================================
// RENDERING
// =============================================================================

// Render substitutes {name} placeholders in tmpl. Placeholders without a
// value in vars become "". Text that is not a well-formed placeholder is
// left untouched.
func Render(tmpl string, vars Vars) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		return vars[m[1:len(m)-1]]
	})
}

// Placeholders returns the distinct variable names used by tmpl in order
// of first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

// =============================================================================
// LOADING
// =============================================================================

func loadEmbedded() (map[string]Table, error) {
	tables := make(map[string]Table)
	entries, err := fs.ReadDir(embedded, "locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}
	for _, e := range entries {
		data, err := embedded.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := mergeTable(tables, e.Name(), data); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func overlayDir(tables map[string]Table, dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read locale overrides: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if err := mergeTable(tables, e.Name(), data); err != nil {
			return err
		}
	}
	return nil
}

// mergeTable decodes a <tag>.toml file and merges it into tables.
func mergeTable(tables map[string]Table, fileName string, data []byte) error {
	base, err := baseLanguage(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	if err != nil {
		return fmt.Errorf("locale file %s: %w", fileName, err)
	}

	var decoded map[string]string
	if _, err := toml.Decode(string(data), &decoded); err != nil {
		return fmt.Errorf("parse locale file %s: %w", fileName, err)
	}

	table, ok := tables[base]
	if !ok {
		table = make(Table, len(decoded))
		tables[base] = table
	}
	for k, v := range decoded {
		table[k] = v
	}
	return nil
}

func baseLanguage(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, tag)
	}
	base, _ := t.Base()
	return base.String(), nil
}

// posixToBCP47 turns "es_MX.UTF-8" into "es-MX". "C" and "POSIX" carry no
// language and yield "".
func posixToBCP47(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "C" || s == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(s, "_", "-")
}

func cloneTable(t Table) Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
