package locale

import (
	"golang.org/x/text/language"

	"firetechnics/site/internal/domain"
)

// Negotiator picks a supported language from visitor input.
type Negotiator struct {
	supported []domain.Language
	def       domain.Language
	matcher   language.Matcher
}

// NewNegotiator builds a Negotiator; def is always offered first so it wins ties.
func NewNegotiator(supported []domain.Language, def domain.Language) *Negotiator {
	ordered := []domain.Language{def}
	for _, l := range supported {
		if l != def {
			ordered = append(ordered, l)
		}
	}
	tags := make([]language.Tag, 0, len(ordered))
	for _, l := range ordered {
		tags = append(tags, language.Make(l.String()))
	}
	return &Negotiator{
		supported: ordered,
		def:       def,
		matcher:   language.NewMatcher(tags),
	}
}

// Default returns the fallback language.
func (n *Negotiator) Default() domain.Language {
	return n.def
}

// Supported returns the supported languages, default first.
func (n *Negotiator) Supported() []domain.Language {
	return append([]domain.Language(nil), n.supported...)
}

// Parse returns the supported language for code, or false.
func (n *Negotiator) Parse(code string) (domain.Language, bool) {
	l := domain.ParseLanguage(code)
	for _, s := range n.supported {
		if s == l {
			return s, true
		}
	}
	return "", false
}

// Match resolves an Accept-Language header value. Unsupported or empty input yields the default.
func (n *Negotiator) Match(acceptLanguage string) domain.Language {
	if acceptLanguage == "" {
		return n.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return n.def
	}
	_, idx, conf := n.matcher.Match(tags...)
	if conf == language.No {
		return n.def
	}
	return n.supported[idx]
}
