package web

import (
	"net/http"
	"time"

	chiMid "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// AccessLog emits one structured entry per request.
func (s *Server) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMid.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := log.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  chiMid.GetReqID(r.Context()),
			"bytes":       ww.BytesWritten(),
			"lang":        ww.Header().Get("Content-Language"),
		})
		switch {
		case status >= 500:
			entry.Warn("request")
		case r.URL.Path == "/healthz":
			entry.Debug("request")
		default:
			entry.Info("request")
		}
	})
}
