// Package web serves the catalog as a server-rendered site. Every browsing state is an
// addressable page; the per-visitor back stack lives in the navigation snapshot keyed
// by the cookie session id.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	"firetechnics/site/internal/catalog"
	"firetechnics/site/internal/config"
	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/gallery"
	"firetechnics/site/internal/handoff"
	"firetechnics/site/internal/locale"
	"firetechnics/site/internal/navigation"
	"firetechnics/site/internal/richtext"
	"firetechnics/site/internal/state"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "gallery", "certificates", "catalog", "item", "level", "error"}

// InquirySubmitter accepts contact form submissions.
type InquirySubmitter interface {
	SubmitInquiry(ctx context.Context, inquiry domain.Inquiry) (domain.Inquiry, error)
}

// Deps are the collaborators of the web layer.
type Deps struct {
	Catalog    *catalog.Store
	Gallery    *gallery.Aggregator
	Handoffs   handoff.Store
	States     state.StateManager
	Inquiries  InquirySubmitter
	Bundle     *locale.Bundle
	Negotiator *locale.Negotiator
	Renderer   *richtext.Renderer
}

type Server struct {
	cfg       *config.Config
	catalog   *catalog.Store
	gallery   *gallery.Aggregator
	handoffs  handoff.Store
	states    state.StateManager
	inquiries InquirySubmitter
	bundle    *locale.Bundle
	languages *locale.Negotiator
	rich      *richtext.Renderer

	navOpts navigation.Options
	tracker *navigation.Tracker
	cookies *sessions.CookieStore
	pages   map[string]*template.Template
}

func NewServer(cfg *config.Config, d Deps) (*Server, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	rich := d.Renderer
	if rich == nil {
		rich = richtext.NewRenderer()
	}

	return &Server{
		cfg:       cfg,
		catalog:   d.Catalog,
		gallery:   d.Gallery,
		handoffs:  d.Handoffs,
		states:    d.States,
		inquiries: d.Inquiries,
		bundle:    d.Bundle,
		languages: d.Negotiator,
		rich:      rich,
		navOpts: navigation.Options{
			DeepLinkFetch: cfg.Navigation.DeepLinkFetch,
			AnchorDelay:   time.Duration(cfg.Navigation.AnchorDelayMS) * time.Millisecond,
		},
		tracker: navigation.NewTracker(),
		cookies: newCookieStore(cfg.Server),
		pages:   pages,
	}, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMid.RequestID)
	r.Use(chiMid.RealIP)
	r.Use(s.AccessLog)
	r.Use(chiMid.Recoverer)
	r.Use(chiMid.Compress(5))
	r.Use(chiMid.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})

	r.Group(func(r chi.Router) {
		r.Use(s.Session)
		r.Use(s.Locale)

		r.Get("/", s.home)
		r.Get("/gallery", s.galleryPage)
		r.Get("/certificates", s.certificatesPage)

		r.Get("/category/{category}", s.catalogList)
		r.Get("/formations/{category}", s.catalogList)

		r.Get("/item/{id}", s.itemDetail)
		r.Get("/formation/{id}", s.itemDetail)
		r.Get("/item/{id}/level/{order}", s.levelDetail)
		r.Get("/formation/{id}/level/{order}", s.levelDetail)
		r.Get("/item/{id}/level/{order}/close", s.closeLevel)
		r.Get("/item/{id}/level/{order}/enroll", s.enroll)

		r.Get("/back", s.back)
		r.Get("/lang/{code}", s.switchLang)
		r.Post("/contact", s.contact)

		r.NotFound(s.notFound)
	})

	return r
}

// visit is the navigation context of one request.
type visit struct {
	session string
	ctrl    *navigation.Controller
	trans   navigation.Transition
	ticket  navigation.Ticket
}

// begin restores the visitor's navigation snapshot. A missing or unreadable snapshot
// starts a fresh session at Home.
func (s *Server) begin(r *http.Request) *visit {
	sid := sessionID(r)
	snap, err := s.states.Load(r.Context(), sid)
	if err != nil {
		log.Warnf("Failed to load navigation state for %s: %v", sid, err)
	}
	return &visit{session: sid, ctrl: navigation.Restore(s.navOpts, snap)}
}

// apply records a transition and registers the load that follows it.
func (s *Server) apply(v *visit, t navigation.Transition) {
	v.trans = t
	v.ticket = s.tracker.Begin(v.session, t.To.Key())
	if t.Redirected {
		log.Debugf("Navigation %s -> %s redirected: %v", t.From.Path(), t.To.Path(), t.Reason)
	}
}

// commit saves the snapshot unless a newer request of the same session superseded
// this one while it was loading.
func (s *Server) commit(ctx context.Context, v *visit) {
	if !s.tracker.Done(v.ticket) {
		log.Debugf("Discarding stale navigation result %s for %s", v.ticket.Key, v.session)
		return
	}
	if err := s.states.Save(ctx, v.session, v.ctrl.Snapshot()); err != nil {
		log.Warnf("Failed to save navigation state for %s: %v", v.session, err)
	}
}

// redirectTo commits v and sends the visitor to its current state.
func (s *Server) redirectTo(w http.ResponseWriter, r *http.Request, v *visit, target string) {
	s.commit(r.Context(), v)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// followRedirect handles a transition that replaced the requested state.
func (s *Server) followRedirect(w http.ResponseWriter, r *http.Request, v *visit) bool {
	if !v.trans.Redirected {
		return false
	}
	s.redirectTo(w, r, v, v.trans.To.Path())
	return true
}

// fail routes a load failure through the controller: missing data redirects to an
// ancestor, transient failures render a retry page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, v *visit, err error) {
	t := v.ctrl.Recover(err)
	v.trans = t
	if t.Redirected {
		s.redirectTo(w, r, v, t.To.Path())
		return
	}

	log.Warnf("⚠️ Failed to load %s: %v", r.URL.Path, err)
	p := s.newPage(r, v, s.t(r, "error.unavailable"))
	p.Retry = r.URL.RequestURI()
	s.render(w, r, v, http.StatusServiceUnavailable, "error", p)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	p := s.newPage(r, nil, s.t(r, "error.not_found"))
	s.render(w, r, nil, http.StatusNotFound, "error", p)
}

func (s *Server) t(r *http.Request, key string) string {
	return s.bundle.T(s.langFrom(r), key)
}

func (s *Server) localeContext(r *http.Request) locale.Context {
	return locale.NewContext(s.langFrom(r), s.catalog.DefaultLanguage())
}

// render executes a page into a buffer first, so a template failure never sends a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, v *visit, status int, name string, p *page) {
	if v != nil {
		s.commit(r.Context(), v)
	}

	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Errorf("❌ Failed to render %s: %v", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
