package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/gallery"
	"firetechnics/site/internal/handoff"
	"firetechnics/site/internal/navigation"
)

const excerptLength = 140

// Contact form outcomes carried in ?contact=.
const (
	contactSent    = "sent"
	contactInvalid = "invalid"
	contactError   = "error"
)

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	v := s.begin(r)
	s.apply(v, v.ctrl.Enter(navigation.Home()))

	ctx := r.Context()
	lc := s.localeContext(r)
	selected := r.URL.Query().Get("program")

	data := homeData{Contact: r.URL.Query().Get("contact")}
	data.ContactOK = data.Contact == contactSent
	for _, c := range domain.Categories {
		data.Categories = append(data.Categories, categoryLink{
			Category: c,
			Label:    s.t(r, "nav."+c.String()),
			Lead:     s.t(r, "home."+c.String()),
			URL:      navigation.CatalogList(c).Path(),
		})

		items, err := s.catalog.ListByCategory(ctx, c)
		if err != nil {
			log.Warnf("⚠️ Contact form programs for %s unavailable: %v", c, err)
			continue
		}
		for _, it := range items {
			data.Programs = append(data.Programs, programOption{
				ID:       it.ID,
				Name:     lc.Text(it.Text, "name"),
				Selected: it.ID == selected,
			})
		}
	}

	p := s.newPage(r, v, "")
	p.Heading = s.t(r, "home.title")
	p.Description = s.t(r, "home.lead")
	p.Data = data
	s.render(w, r, v, http.StatusOK, "home", p)
}

func (s *Server) galleryPage(w http.ResponseWriter, r *http.Request) {
	v := s.begin(r)
	s.apply(v, v.ctrl.Enter(navigation.Gallery()))

	tag := domain.ParseGalleryTag(r.URL.Query().Get("tag"))
	res := s.gallery.ListImages(r.Context(), s.localeContext(r))
	counts := gallery.Counts(res.Images)

	data := galleryData{Images: gallery.FilterByCategory(res.Images, tag)}
	for _, t := range domain.GalleryTags {
		u := "/gallery"
		if t != domain.GalleryTagAll {
			u += "?tag=" + url.QueryEscape(t.String())
		}
		data.Tabs = append(data.Tabs, galleryTab{
			Tag:    t,
			Label:  s.t(r, "gallery.tag."+t.String()),
			Count:  counts[t],
			URL:    u,
			Active: t == tag,
		})
	}

	p := s.newPage(r, v, s.t(r, "gallery.title"))
	if res.Degraded() {
		p.Notice = s.t(r, "gallery.partial")
		p.Retry = r.URL.RequestURI()
	}
	p.Data = data
	s.render(w, r, v, http.StatusOK, "gallery", p)
}

func (s *Server) certificatesPage(w http.ResponseWriter, r *http.Request) {
	v := s.begin(r)
	s.apply(v, v.ctrl.Enter(navigation.Certificates()))

	groups, err := s.catalog.GroupCertificatesByResolvedCategory(r.Context(), s.localeContext(r), s.t(r, "certificates.other"))
	if err != nil {
		s.fail(w, r, v, err)
		return
	}

	lc := s.localeContext(r)
	data := certificatesData{Groups: make([]certificateGroup, 0, len(groups))}
	for _, g := range groups {
		out := certificateGroup{Label: g.Label, Other: g.Other}
		for _, b := range g.Certificates {
			out.Certificates = append(out.Certificates, certificateEntry{
				Name:        lc.Text(b.Text, "name"),
				Description: s.rich.Excerpt(lc.Text(b.Text, "description"), excerptLength),
				PDFURL:      b.PDFURL,
			})
		}
		data.Groups = append(data.Groups, out)
	}

	p := s.newPage(r, v, s.t(r, "certificates.title"))
	p.Data = data
	s.render(w, r, v, http.StatusOK, "certificates", p)
}

func (s *Server) catalogList(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "category")
	category, err := domain.ParseCategory(raw)
	if err != nil {
		// Unknown values reach the controller, which sends the visitor Home.
		category = domain.Category(strings.ToLower(raw))
	} else if category.String() != raw {
		http.Redirect(w, r, navigation.CatalogList(category).Path(), http.StatusMovedPermanently)
		return
	}

	v := s.begin(r)
	s.apply(v, v.ctrl.Enter(navigation.CatalogList(category)))
	if s.followRedirect(w, r, v) {
		return
	}

	ctx := r.Context()
	items, err := s.catalog.ListByCategory(ctx, category)
	if err != nil {
		s.fail(w, r, v, err)
		return
	}

	certs, err := s.catalog.CertificatesFor(ctx, items...)
	if err != nil {
		log.Warnf("⚠️ Certificates for %s partially unavailable: %v", category, err)
	}

	lc := s.localeContext(r)
	data := catalogData{Category: category, Items: make([]itemCard, 0, len(items))}
	for _, it := range items {
		card := itemCard{
			ID:       it.ID,
			Name:     lc.Text(it.Text, "name"),
			Excerpt:  s.rich.Excerpt(lc.Text(it.Text, "description"), excerptLength),
			ImageURL: it.ImageURL,
			URL:      navigation.ItemDetail(it.ID, category).Path(),
		}
		if b, ok := certs[it.BrevetID]; ok && it.BrevetID != "" {
			card.Certificate = lc.Text(b.Text, "name")
		}
		data.Items = append(data.Items, card)
	}

	p := s.newPage(r, v, s.t(r, "catalog.title."+category.String()))
	p.Description = s.t(r, "home."+category.String())
	p.Data = data
	s.render(w, r, v, http.StatusOK, "catalog", p)
}

// fromCategory is the list a visitor opening itemID came from, if any.
func fromCategory(cur navigation.State, itemID string) domain.Category {
	switch {
	case cur.View == navigation.ViewCatalogList:
		return cur.Category
	case cur.ItemID == itemID:
		return cur.Category
	}
	return ""
}

func (s *Server) itemDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v := s.begin(r)
	s.apply(v, v.ctrl.Enter(navigation.ItemDetail(id, fromCategory(v.ctrl.Current(), id))))
	if s.followRedirect(w, r, v) {
		return
	}

	ctx := r.Context()
	item, err := s.catalog.GetItem(ctx, id)
	if err != nil {
		s.fail(w, r, v, err)
		return
	}

	lang := s.langFrom(r)
	lc := s.localeContext(r)
	description := lc.Text(item.Text, "description")
	data := itemData{
		ID:          item.ID,
		Name:        lc.Text(item.Text, "name"),
		Description: s.rich.Render(description),
		ImageURL:    item.ImageURL,
		Category:    item.Category,
		CategoryURL: navigation.CatalogList(item.Category).Path(),
		ContactURL:  "/?program=" + url.QueryEscape(item.ID) + "#" + navigation.AnchorContact,
	}

	if item.BrevetID != "" {
		certs, err := s.catalog.CertificatesFor(ctx, item)
		if err != nil {
			log.Warnf("⚠️ Certificate %s unavailable: %v", item.BrevetID, err)
		}
		if b, ok := certs[item.BrevetID]; ok {
			data.Certificate = &certificateBadge{Name: lc.Text(b.Text, "name"), PDFURL: b.PDFURL}
		}
	}

	levels, err := s.catalog.ListSubLevels(ctx, item.ID)
	if err != nil {
		log.Warnf("⚠️ Levels of %s unavailable: %v", item.ID, err)
		data.LevelsFailed = true
	}
	from := v.trans.To.Category
	for _, l := range levels {
		token, err := s.handoffs.Put(ctx, handoff.Package(l, item, lang))
		if err != nil {
			log.Warnf("Failed to store handoff for %s/%d, linking by id: %v", item.ID, l.DisplayOrder, err)
			token = ""
		}
		data.Levels = append(data.Levels, levelCard{
			Order:    l.DisplayOrder,
			Name:     lc.Text(l.Text, "name"),
			Duration: lc.Text(l.Text, "duration"),
			Excerpt:  s.rich.Excerpt(lc.Text(l.Text, "description"), excerptLength),
			ImageURL: l.ImageURL,
			URL:      navigation.SubLevelDetail(item.ID, l.DisplayOrder, token, from).Path(),
		})
	}

	p := s.newPage(r, v, data.Name)
	p.Description = s.rich.Excerpt(description, descriptionLength)
	if data.LevelsFailed {
		p.Notice = s.t(r, "error.unavailable")
		p.Retry = r.URL.RequestURI()
	}
	p.Data = data
	s.render(w, r, v, http.StatusOK, "item", p)
}

func levelOrder(r *http.Request) int {
	n, err := strconv.Atoi(chi.URLParam(r, "order"))
	if err != nil {
		return 0
	}
	return n
}

// levelDetail renders a level from its handoff payload, or by fetching the item and
// level when the visitor arrived without one.
func (s *Server) levelDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order := levelOrder(r)
	token := r.URL.Query().Get("h")

	v := s.begin(r)
	s.apply(v, v.ctrl.Enter(navigation.SubLevelDetail(id, order, token, fromCategory(v.ctrl.Current(), id))))
	if s.followRedirect(w, r, v) {
		return
	}

	ctx := r.Context()
	payload, ok := s.lookupHandoff(r, token, id, order)
	if !ok {
		if !s.navOpts.DeepLinkFetch {
			s.fail(w, r, v, domain.ErrMissingHandoffData)
			return
		}
		item, err := s.catalog.GetItem(ctx, id)
		if err != nil {
			s.fail(w, r, v, err)
			return
		}
		level, err := s.catalog.FindLevel(ctx, id, order)
		if err != nil {
			s.fail(w, r, v, err)
			return
		}
		payload = handoff.Package(level, item, s.langFrom(r))
	}

	lv := handoff.Unpackage(payload, s.localeContext(r))
	closeURL := "/item/" + url.PathEscape(id) + "/level/" + strconv.Itoa(order)
	data := levelData{
		Name:            lv.Name,
		ParentName:      lv.ParentName,
		ParentURL:       navigation.ItemDetail(id, "").Path(),
		Order:           lv.DisplayOrder,
		Description:     s.rich.Render(lv.Description),
		Duration:        lv.Duration,
		Goals:           s.rich.Render(lv.Goals),
		Competencies:    lv.Competencies,
		SessionsPerWeek: lv.SessionsPerWeek,
		Images:          lv.Images,
		ShowPagination:  lv.ShowPagination,
		VideoEmbed:      lv.VideoEmbed,
		VideoURL:        lv.VideoURL,
		HasVideo:        lv.HasVideo(),
		CloseURL:        closeURL + "/close",
		EnrollURL:       closeURL + "/enroll",
	}

	heading := lv.Name
	if lv.ParentName != "" {
		heading = lv.Name + " | " + lv.ParentName
	}
	p := s.newPage(r, v, heading)
	p.Description = s.rich.Excerpt(lv.Description, descriptionLength)
	p.Back = data.CloseURL
	p.Data = data
	s.render(w, r, v, http.StatusOK, "level", p)
}

// lookupHandoff returns the payload stored under token when it belongs to the
// addressed level.
func (s *Server) lookupHandoff(r *http.Request, token, id string, order int) (handoff.Payload, bool) {
	if token == "" {
		return handoff.Payload{}, false
	}
	p, err := s.handoffs.Get(r.Context(), token)
	if err != nil {
		log.Debugf("Handoff %s unusable: %v", token, err)
		return handoff.Payload{}, false
	}
	if !p.Matches(id, order) {
		log.Debugf("Handoff %s belongs to %s/%d, not %s/%d", token, p.Parent.ID, p.Level.DisplayOrder, id, order)
		return handoff.Payload{}, false
	}
	return p, true
}

func (s *Server) closeLevel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v := s.begin(r)
	if cur := v.ctrl.Current(); cur.View != navigation.ViewSubLevelDetail {
		// The visitor is not on a level view, e.g. after a restart lost the state:
		// enter the level first so closing returns to its item.
		entered := v.ctrl.Enter(navigation.SubLevelDetail(id, levelOrder(r), "", ""))
		if entered.To.View != navigation.ViewSubLevelDetail {
			s.apply(v, entered)
			s.redirectTo(w, r, v, navigation.ItemDetail(id, "").Path())
			return
		}
	}
	t := v.ctrl.Dispatch(navigation.Event{Kind: navigation.EventClose})
	s.apply(v, t)
	s.redirectTo(w, r, v, t.To.Path())
}

// enroll leaves a level for the contact form on Home. The form is left empty.
func (s *Server) enroll(w http.ResponseWriter, r *http.Request) {
	v := s.begin(r)
	t := v.ctrl.Dispatch(navigation.Event{Kind: navigation.EventEnroll})
	s.apply(v, t)

	if sess := sessionFrom(r); sess != nil && t.Scroll.Kind == navigation.ScrollAnchor {
		sess.AddFlash(t.Scroll.Anchor, flashScroll)
	}
	s.redirectTo(w, r, v, t.To.Path()+"#"+t.Scroll.Anchor)
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	v := s.begin(r)
	t := v.ctrl.Dispatch(navigation.Event{Kind: navigation.EventBack})
	s.apply(v, t)
	s.redirectTo(w, r, v, t.To.Path())
}

// switchLang stores the language preference and returns to the page the visitor was
// on. The page re-resolves its content from the cache.
func (s *Server) switchLang(w http.ResponseWriter, r *http.Request) {
	if lang, ok := s.languages.Parse(chi.URLParam(r, "code")); ok {
		s.rememberLang(w, sessionFrom(r), lang)
	}

	next := r.URL.Query().Get("next")
	if !localPath(next) {
		v := s.begin(r)
		next = v.ctrl.Current().Path()
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// localPath accepts only same-site absolute paths.
func localPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Host == "" && u.Scheme == ""
}

func (s *Server) contact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/?contact="+contactError+"#"+navigation.AnchorContact, http.StatusSeeOther)
		return
	}

	inquiry := domain.Inquiry{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Phone:   r.PostForm.Get("phone"),
		Program: r.PostForm.Get("program"),
		Message: r.PostForm.Get("message"),
		Lang:    s.langFrom(r),
	}
	if inquiry.Program != "" {
		if item, err := s.catalog.GetItem(r.Context(), inquiry.Program); err == nil {
			inquiry.Program = s.localeContext(r).Text(item.Text, "name")
		}
	}

	outcome := contactSent
	saved, err := s.inquiries.SubmitInquiry(r.Context(), inquiry)
	switch {
	case errors.Is(err, domain.ErrInvalidInquiry):
		log.Debugf("Rejected inquiry: %v", err)
		outcome = contactInvalid
	case err != nil:
		log.Errorf("❌ Failed to submit inquiry: %v", err)
		outcome = contactError
	default:
		log.Infof("📨 Inquiry %s accepted", saved.ID)
	}

	if sess := sessionFrom(r); sess != nil {
		sess.AddFlash(navigation.AnchorContact, flashScroll)
	}
	http.Redirect(w, r, "/?contact="+outcome+"#"+navigation.AnchorContact, http.StatusSeeOther)
}
