package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEndpointSupplierRotate(t *testing.T) {
	s := NewEndpointSupplier([]string{"http://a/", " http://b ", ""})

	require.Equal(t, 2, s.Len())
	require.Equal(t, "http://a", s.Current())
	require.Equal(t, "http://a", s.Current())
	require.Equal(t, "http://b", s.Rotate())
	require.Equal(t, "http://a", s.Rotate())
}

func TestEndpointSupplierEmpty(t *testing.T) {
	s := NewEndpointSupplier(nil)
	require.Equal(t, "", s.Current())
	require.Equal(t, "", s.Rotate())
}

func TestValidatedSupplierDropsBrokenEndpoints(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "secret" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	s := NewValidatedEndpointSupplier(context.Background(), []string{broken.URL, ok.URL}, "/rest/v1/", "secret")
	require.Equal(t, 1, s.Len())
	require.Equal(t, ok.URL, s.Current())
}

func TestValidatedSupplierKeepsAllWhenNoneAnswer(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	s := NewValidatedEndpointSupplier(context.Background(), []string{broken.URL, broken.URL + "/"}, "/", "")
	require.Equal(t, 2, s.Len())
}
