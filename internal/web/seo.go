package web

import (
	"encoding/json"
	"html/template"
	"net/url"
	"strings"

	"firetechnics/site/internal/domain"
)

// descriptionLength is the rune limit of meta descriptions.
const descriptionLength = 160

type alternate struct {
	Lang string
	Href string
}

// pageTitle suffixes title with the site name. The home page carries the site name alone.
func pageTitle(title, site string) string {
	title = strings.TrimSpace(title)
	if title == "" || title == site {
		return site
	}
	return title + " | " + site
}

// ogLocale maps a content language to the Belgian Open Graph locale.
func ogLocale(lang domain.Language) string {
	return lang.String() + "_BE"
}

func absoluteURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// alternates lists one hreflang link per supported language.
func alternates(base, path string, langs []domain.Language) []alternate {
	out := make([]alternate, 0, len(langs))
	for _, l := range langs {
		out = append(out, alternate{
			Lang: l.String(),
			Href: absoluteURL(base, path) + "?hl=" + url.QueryEscape(l.String()),
		})
	}
	return out
}

// organizationJSONLD returns the EducationalOrganization schema. json.Marshal escapes
// <, > and &, so the result is safe inside a script element.
func organizationJSONLD(name, base string, lang domain.Language) template.JS {
	b, err := json.Marshal(map[string]any{
		"@context":   "https://schema.org",
		"@type":      "EducationalOrganization",
		"name":       name,
		"url":        base,
		"inLanguage": lang.String(),
		"areaServed": "BE",
	})
	if err != nil {
		return ""
	}
	return template.JS(b)
}
