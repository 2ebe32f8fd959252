// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/jeranaias/edumate/internal/storage"
)

// ProviderOptions configures a Provider.
type ProviderOptions struct {
	// Default is used when no preference is stored or it cannot be read.
	// The zero value means English.
	Default language.Tag

	// Strict makes Text panic on a missing key instead of degrading to the
	// raw key. Tests run strict.
	Strict bool

	Logger *zap.Logger
}

// Provider renders strings in the active language and persists the user's
// language choice.
type Provider struct {
	catalog *Catalog
	store   storage.Store
	logger  *zap.Logger
	strict  bool

	mu       sync.RWMutex
	current  language.Tag
	fallback language.Tag
}

// NewProvider creates a provider whose active language starts at the
// default. Call Load to apply the stored preference.
func NewProvider(catalog *Catalog, store storage.Store, opts ProviderOptions) *Provider {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	def := opts.Default
	if def == language.Und || !catalog.Supports(def) {
		def = language.English
	}
	def = baseTag(def)

	return &Provider{
		catalog:  catalog,
		store:    store,
		logger:   logger.With(zap.String("component", "i18n")),
		strict:   opts.Strict,
		current:  def,
		fallback: def,
	}
}

// Catalog returns the underlying catalog.
func (p *Provider) Catalog() *Catalog {
	return p.catalog
}

// Load reads the stored preference and makes it the active language.
func (p *Provider) Load(ctx context.Context) language.Tag {
	tag := p.Preference(ctx)
	p.mu.Lock()
	p.current = tag
	p.mu.Unlock()
	return tag
}

// Preference returns the persisted language. A missing, unreadable or
// unsupported value yields the default.
func (p *Provider) Preference(ctx context.Context) language.Tag {
	if p.store == nil {
		return p.fallback
	}

	raw, err := p.store.Get(ctx, storage.KeyLanguage)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("read language preference failed, using default",
				zap.Error(err), zap.Stringer("default", p.fallback))
		}
		return p.fallback
	}

	tag, err := language.Parse(raw)
	if err != nil || !p.catalog.Supports(tag) {
		p.logger.Warn("stored language preference is not supported, using default",
			zap.String("stored", raw), zap.Stringer("default", p.fallback))
		return p.fallback
	}
	return baseTag(tag)
}

// SetPreference switches the active language and persists it. Unsupported
// tags are rejected with ErrUnsupportedLanguage and change nothing. A
// persistence failure is logged and otherwise ignored: the language still
// changes for this run.
func (p *Provider) SetPreference(ctx context.Context, tag language.Tag) error {
	if !p.catalog.Supports(tag) {
		return fmt.Errorf("%w: %s", ErrUnsupportedLanguage, tag)
	}
	tag = baseTag(tag)

	p.mu.Lock()
	p.current = tag
	p.mu.Unlock()

	if p.store == nil {
		return nil
	}
	if err := p.store.Set(ctx, storage.KeyLanguage, tag.String()); err != nil {
		p.logger.Warn("persist language preference failed",
			zap.Error(err), zap.Stringer("language", tag))
	}
	return nil
}

// Language returns the active language.
func (p *Provider) Language() language.Tag {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// baseTag reduces tag to its base language, the form tables are keyed by.
func baseTag(tag language.Tag) language.Tag {
	base, _ := tag.Base()
	return language.Make(base.String())
}

// Next returns the supported language after the active one, wrapping around.
func (p *Provider) Next() language.Tag {
	supported := p.catalog.Supported()
	current := p.Language()
	for i, t := range supported {
		if t == current {
			return supported[(i+1)%len(supported)]
		}
	}
	if len(supported) == 0 {
		return current
	}
	return supported[0]
}

// Resolve renders key in the active language.
func (p *Provider) Resolve(key string, vars Vars) (string, error) {
	return p.catalog.Resolve(p.Language(), key, vars)
}

// Text renders key in the active language. A missing key panics in strict
// mode; otherwise it is logged and the key itself is returned.
func (p *Provider) Text(key string, vars Vars) string {
	s, err := p.Resolve(key, vars)
	if err == nil {
		return s
	}
	if p.strict {
		panic(err)
	}
	p.logger.Warn("translation lookup failed", zap.String("key", key), zap.Error(err))
	return key
}
