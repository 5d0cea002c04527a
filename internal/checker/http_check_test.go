package checker

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCheckReturnsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	check := NewHTTPCheck(2 * time.Second)
	status, err := check(srv.URL)

	// A 500 is a successful probe; the status is the caller's problem.
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestHTTPCheckFollowsRedirects(t *testing.T) {
	hops := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hops < 3 {
			hops++
			http.Redirect(w, r, srv.URL, http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	check := NewHTTPCheck(2 * time.Second)
	status, err := check(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestHTTPCheckRedirectCap(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL, http.StatusFound)
	}))
	defer srv.Close()

	check := NewHTTPCheck(2 * time.Second)
	_, err := check(srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many redirects")
}

func TestHTTPCheckNetworkError(t *testing.T) {
	check := NewHTTPCheck(500 * time.Millisecond)
	_, err := check("http://127.0.0.1:1")
	assert.Error(t, err)
}
