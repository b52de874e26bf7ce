package locale

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"firetechnics/site/internal/domain"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Bundle holds UI strings per language.
type Bundle struct {
	dict     map[domain.Language]map[string]string
	fallback domain.Language
}

// LoadBundle reads the embedded locales/<lang>.yaml files. Only the fallback file is required.
func LoadBundle(langs []domain.Language, fallback domain.Language) (*Bundle, error) {
	b := &Bundle{
		dict:     make(map[domain.Language]map[string]string, len(langs)),
		fallback: fallback,
	}
	for _, l := range langs {
		raw, err := localeFS.ReadFile("locales/" + l.String() + ".yaml")
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("failed to load fallback locale %s: %w", l, err)
			}
			continue
		}
		m := map[string]string{}
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", l, err)
		}
		b.dict[l] = m
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}
	return b, nil
}

// T returns the string for key in lang, falling back to the fallback language and finally the key.
func (b *Bundle) T(lang domain.Language, key string) string {
	if m, ok := b.dict[lang]; ok {
		if v, ok := m[key]; ok && v != "" {
			return v
		}
	}
	if v, ok := b.dict[b.fallback][key]; ok {
		return v
	}
	return key
}

// Translator binds a Bundle to one language for templates.
type Translator func(key string) string

// For returns a Translator for lang.
func (b *Bundle) For(lang domain.Language) Translator {
	return func(key string) string { return b.T(lang, key) }
}
