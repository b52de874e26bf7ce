package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"firetechnics/site/internal/config"
	"firetechnics/site/internal/domain"
)

func TestSendPostsTemplateParams(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sendPath || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	r := NewEmailJSRelay(config.RelayConfig{
		BaseURL: srv.URL, ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub",
	})

	err := r.Send(context.Background(), domain.Inquiry{
		ID: "i1", Name: "Jan", Email: "jan@example.be", Program: "EPI", Message: "Info", Lang: domain.LanguageNL,
	})
	require.NoError(t, err)
	require.Equal(t, "svc", got.ServiceID)
	require.Equal(t, "pub", got.UserID)
	require.Equal(t, "jan@example.be", got.TemplateParams["from_email"])
	require.Equal(t, "EPI", got.TemplateParams["program"])
	require.Equal(t, "nl", got.TemplateParams["language"])
}

func TestSendReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The template ID is invalid"))
	}))
	defer srv.Close()

	r := NewEmailJSRelay(config.RelayConfig{BaseURL: srv.URL, ServiceID: "svc", TemplateID: "bad", PublicKey: "pub"})
	err := r.Send(context.Background(), domain.Inquiry{ID: "i2"})
	require.ErrorContains(t, err, "template ID is invalid")
}

func TestSendWithoutCredentials(t *testing.T) {
	err := NewEmailJSRelay(config.RelayConfig{BaseURL: "http://127.0.0.1:1"}).Send(context.Background(), domain.Inquiry{})
	require.ErrorIs(t, err, ErrNotConfigured)
}
