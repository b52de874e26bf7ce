// Package locale resolves localized content for the active language with a fallback
// to the default language, and negotiates the visitor's language preference.
package locale

import (
	"strings"

	"firetechnics/site/internal/domain"
)

// Resolve returns field in active, falling back to def when the active value is absent
// or blank. A nil record (still loading) resolves to the empty string.
func Resolve(t domain.Translations, field string, active, def domain.Language) string {
	if t == nil {
		return ""
	}
	if v := t.Get(field, active); strings.TrimSpace(v) != "" {
		return v
	}
	return t.Get(field, def)
}

// ResolveList is Resolve for list-valued fields; an empty active list falls back.
func ResolveList(t domain.ListTranslations, field string, active, def domain.Language) []string {
	if t == nil {
		return nil
	}
	if v := t.Get(field, active); len(v) > 0 {
		return append([]string(nil), v...)
	}
	return append([]string(nil), t.Get(field, def)...)
}

// Context is the explicit language context passed to every resolving call.
type Context struct {
	Active  domain.Language
	Default domain.Language
}

// NewContext builds a Context; an empty active language means the default.
func NewContext(active, def domain.Language) Context {
	if active == "" {
		active = def
	}
	return Context{Active: active, Default: def}
}

// Text resolves a text field.
func (c Context) Text(t domain.Translations, field string) string {
	return Resolve(t, field, c.Active, c.Default)
}

// List resolves a list field.
func (c Context) List(t domain.ListTranslations, field string) []string {
	return ResolveList(t, field, c.Active, c.Default)
}

// IsDefault reports whether the active language is the fallback language.
func (c Context) IsDefault() bool {
	return c.Active == c.Default
}
