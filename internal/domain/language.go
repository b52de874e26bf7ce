package domain

import "strings"

// Language is a two-letter content language code such as "fr" or "nl".
type Language string

func (l Language) String() string {
	return string(l)
}

const (
	LanguageFR Language = "fr"
	LanguageNL Language = "nl"
)

// ParseLanguage normalizes a code like "nl-BE" or " FR " to its base language.
func ParseLanguage(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i != -1 {
		code = code[:i]
	}
	return Language(code)
}

// Languages converts configured codes to Language values, dropping blanks.
func Languages(codes []string) []Language {
	out := make([]Language, 0, len(codes))
	for _, c := range codes {
		if l := ParseLanguage(c); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Translations holds the per-language values of a record's localized text attributes,
// keyed by attribute base name ("name", "description", ...).
type Translations map[string]map[Language]string

// Set stores value for field in lang.
func (t Translations) Set(field string, lang Language, value string) {
	m, ok := t[field]
	if !ok {
		m = make(map[Language]string, 2)
		t[field] = m
	}
	m[lang] = value
}

// Get returns the raw value of field in lang without any fallback.
func (t Translations) Get(field string, lang Language) string {
	if t == nil {
		return ""
	}
	return t[field][lang]
}

// Clone returns a deep copy.
func (t Translations) Clone() Translations {
	if t == nil {
		return nil
	}
	out := make(Translations, len(t))
	for field, values := range t {
		m := make(map[Language]string, len(values))
		for l, v := range values {
			m[l] = v
		}
		out[field] = m
	}
	return out
}

// ListTranslations is the list-valued counterpart of Translations (e.g. competencies).
type ListTranslations map[string]map[Language][]string

// Set stores values for field in lang.
func (t ListTranslations) Set(field string, lang Language, values []string) {
	m, ok := t[field]
	if !ok {
		m = make(map[Language][]string, 2)
		t[field] = m
	}
	m[lang] = values
}

// Get returns the raw list of field in lang without any fallback.
func (t ListTranslations) Get(field string, lang Language) []string {
	if t == nil {
		return nil
	}
	return t[field][lang]
}

// Clone returns a deep copy.
func (t ListTranslations) Clone() ListTranslations {
	if t == nil {
		return nil
	}
	out := make(ListTranslations, len(t))
	for field, values := range t {
		m := make(map[Language][]string, len(values))
		for l, v := range values {
			m[l] = append([]string(nil), v...)
		}
		out[field] = m
	}
	return out
}
