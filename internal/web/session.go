package web

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	"firetechnics/site/internal/config"
	"firetechnics/site/internal/domain"
)

const (
	sessionName  = "firetechnics"
	langCookie   = "lang"
	keySessionID = "sid"
	keyLang      = "lang"
	flashScroll  = "scroll"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
	ctxKeyLang
)

// newCookieStore builds the signed session cookie store. An empty key generates a
// process-ephemeral one, so sessions do not survive a restart.
func newCookieStore(cfg config.ServerConfig) *sessions.CookieStore {
	key := []byte(cfg.SessionKey)
	if len(key) == 0 {
		log.Warn("⚠️ server.session_key is empty, using an ephemeral session key")
		key = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// saveOnWrite saves the session right before the first byte of the response, so
// handlers may change it up to the point they render or redirect.
type saveOnWrite struct {
	http.ResponseWriter
	r       *http.Request
	session *sessions.Session
	saved   bool
	status  int
}

func (w *saveOnWrite) save() {
	if w.saved {
		return
	}
	w.saved = true
	if err := w.session.Save(w.r, w.ResponseWriter); err != nil {
		log.Warnf("Failed to save session: %v", err)
	}
}

func (w *saveOnWrite) WriteHeader(code int) {
	w.save()
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *saveOnWrite) Write(b []byte) (int, error) {
	if !w.saved {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Session loads the cookie session and assigns a session id on first visit. A cookie
// that no longer decodes, after a key rotation for instance, starts a fresh session.
func (s *Server) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.cookies.Get(r, sessionName)
		if err != nil {
			log.Debugf("Discarding undecodable session cookie: %v", err)
		}
		if id, _ := sess.Values[keySessionID].(string); id == "" {
			sess.Values[keySessionID] = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), ctxKeySession, sess)
		r = r.WithContext(ctx)
		next.ServeHTTP(&saveOnWrite{ResponseWriter: w, r: r, session: sess}, r)
	})
}

// Locale resolves the active language: ?hl= override, then the session, then the
// lang cookie, then Accept-Language, then the default.
func (s *Server) Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		lang, ok := s.languages.Parse(r.URL.Query().Get("hl"))
		if ok {
			s.rememberLang(w, sess, lang)
		} else if lang, ok = s.languages.Parse(stringValue(sess, keyLang)); !ok {
			if c, err := r.Cookie(langCookie); err == nil {
				lang, ok = s.languages.Parse(c.Value)
			}
			if !ok {
				lang = s.languages.Match(r.Header.Get("Accept-Language"))
			}
			if sess != nil {
				sess.Values[keyLang] = lang.String()
			}
		}

		w.Header().Set("Content-Language", lang.String())
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyLang, lang)))
	})
}

func (s *Server) rememberLang(w http.ResponseWriter, sess *sessions.Session, lang domain.Language) {
	if sess != nil {
		sess.Values[keyLang] = lang.String()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     langCookie,
		Value:    lang.String(),
		Path:     "/",
		MaxAge:   365 * 24 * 3600,
		HttpOnly: true,
		Secure:   s.cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionFrom(r *http.Request) *sessions.Session {
	sess, _ := r.Context().Value(ctxKeySession).(*sessions.Session)
	return sess
}

func sessionID(r *http.Request) string {
	return stringValue(sessionFrom(r), keySessionID)
}

func stringValue(sess *sessions.Session, key string) string {
	if sess == nil {
		return ""
	}
	v, _ := sess.Values[key].(string)
	return v
}

func (s *Server) langFrom(r *http.Request) domain.Language {
	if l, ok := r.Context().Value(ctxKeyLang).(domain.Language); ok {
		return l
	}
	return s.languages.Default()
}
