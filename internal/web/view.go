package web

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/locale"
	"firetechnics/site/internal/navigation"
)

// page is the data every template receives. View specific data goes in Data.
type page struct {
	Lang        domain.Language
	Languages   []langLink
	Site        string
	Title       string
	Heading     string
	Description string
	Canonical   string
	OGLocale    string
	Alternates  []alternate
	JSONLD      template.JS

	View   navigation.View
	Back   string
	Scroll scrollAttrs
	Retry  string
	Notice string
	Data   any

	tr locale.Translator
}

// T looks up a UI string in the page language.
func (p *page) T(key string) string {
	return p.tr(key)
}

type langLink struct {
	Code   string
	Label  string
	URL    string
	Active bool
}

// scrollAttrs is rendered as data-scroll attributes on <body> for the client script.
type scrollAttrs struct {
	Kind    string
	Anchor  string
	DelayMS int64
}

func scrollFrom(sc navigation.Scroll) scrollAttrs {
	switch sc.Kind {
	case navigation.ScrollTop:
		return scrollAttrs{Kind: "top"}
	case navigation.ScrollAnchor:
		return scrollAttrs{Kind: "anchor", Anchor: sc.Anchor, DelayMS: sc.Delay.Milliseconds()}
	}
	return scrollAttrs{Kind: "none"}
}

// newPage fills the shared layout data. heading is the page title without the site suffix.
func (s *Server) newPage(r *http.Request, v *visit, heading string) *page {
	lang := s.langFrom(r)
	site := s.cfg.Site

	p := &page{
		Lang:       lang,
		Site:       site.Name,
		Title:      pageTitle(heading, site.Name),
		Heading:    heading,
		Canonical:  absoluteURL(site.BaseURL, r.URL.Path),
		OGLocale:   ogLocale(lang),
		Alternates: alternates(site.BaseURL, r.URL.Path, s.languages.Supported()),
		JSONLD:     organizationJSONLD(site.Name, site.BaseURL, lang),
		Back:       "/back",
		Scroll:     scrollAttrs{Kind: "none"},
		tr:         s.bundle.For(lang),
	}

	next := r.URL.RequestURI()
	for _, l := range s.languages.Supported() {
		p.Languages = append(p.Languages, langLink{
			Code:   l.String(),
			Label:  s.bundle.T(l, "lang."+l.String()),
			URL:    "/lang/" + l.String() + "?next=" + url.QueryEscape(next),
			Active: l == lang,
		})
	}

	if v != nil {
		p.View = v.trans.To.View
		p.Scroll = scrollFrom(v.trans.Scroll)
	}
	if sess := sessionFrom(r); sess != nil {
		for _, f := range sess.Flashes(flashScroll) {
			if anchor, ok := f.(string); ok && anchor != "" {
				p.Scroll = scrollAttrs{Kind: "anchor", Anchor: anchor, DelayMS: s.navOpts.AnchorDelay.Milliseconds()}
			}
		}
	}
	return p
}

// DelayAttr formats the scroll delay for the data attribute.
func (a scrollAttrs) DelayAttr() string {
	return strconv.FormatInt(a.DelayMS, 10)
}

type categoryLink struct {
	Category domain.Category
	Label    string
	Lead     string
	URL      string
}

type homeData struct {
	Categories []categoryLink
	Programs   []programOption
	Contact    string
	ContactOK  bool
}

type programOption struct {
	ID       string
	Name     string
	Selected bool
}

type itemCard struct {
	ID          string
	Name        string
	Excerpt     string
	ImageURL    string
	URL         string
	Certificate string
}

type catalogData struct {
	Category domain.Category
	Items    []itemCard
}

type certificateBadge struct {
	Name   string
	PDFURL string
}

type levelCard struct {
	Order    int
	Name     string
	Duration string
	Excerpt  string
	ImageURL string
	URL      string
}

type itemData struct {
	ID           string
	Name         string
	Description  template.HTML
	ImageURL     string
	Category     domain.Category
	CategoryURL  string
	Certificate  *certificateBadge
	Levels       []levelCard
	LevelsFailed bool
	ContactURL   string
}

type levelData struct {
	Name            string
	ParentName      string
	ParentURL       string
	Order           int
	Description     template.HTML
	Duration        string
	Goals           template.HTML
	Competencies    []string
	SessionsPerWeek int
	Images          []string
	ShowPagination  bool
	VideoEmbed      string
	VideoURL        string
	HasVideo        bool
	CloseURL        string
	EnrollURL       string
}

type galleryTab struct {
	Tag    domain.GalleryTag
	Label  string
	Count  int
	URL    string
	Active bool
}

type galleryData struct {
	Tabs   []galleryTab
	Images []domain.GalleryImage
}

type certificateEntry struct {
	Name        string
	Description string
	PDFURL      string
}

type certificateGroup struct {
	Label        string
	Other        bool
	Certificates []certificateEntry
}

type certificatesData struct {
	Groups []certificateGroup
}
