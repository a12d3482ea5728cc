package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPage_ReturnsBodyAndFinalURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			http.Redirect(w, r, "/landing", http.StatusFound)
		case "/landing":
			w.Write([]byte("<html><body>hi</body></html>"))
		}
	}))
	defer srv.Close()

	c := NewClient(Options{})
	page, err := c.FetchPage(context.Background(), srv.URL+"/")

	require.NoError(t, err)
	assert.Contains(t, string(page.HTML), "hi")
	assert.Equal(t, "/landing", page.URL.Path)
}

func TestFetchPage_SendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
	}))
	defer srv.Close()

	c := NewClient(Options{})
	_, err := c.FetchPage(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Contains(t, gotAccept, "text/html")
}

func TestFetchAsset_SendsRefererAndReturnsContentType(t *testing.T) {
	var gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	c := NewClient(Options{})
	body, ctype, err := c.FetchAsset(context.Background(), srv.URL+"/a.png", "https://page.test/")

	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, "image/png", ctype)
	assert.Equal(t, "https://page.test/", gotReferer)
}

func TestFetch_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Options{})

	_, _, err := c.FetchAsset(context.Background(), srv.URL+"/gone.png", "")
	assert.ErrorContains(t, err, "404")

	_, err = c.FetchResource(context.Background(), srv.URL+"/gone.css")
	assert.ErrorContains(t, err, "404")
}

func TestFetch_TimeoutAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Options{Timeout: 20 * time.Millisecond})

	_, err := c.FetchPage(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetch_RateLimitSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	c := NewClient(Options{RateLimit: 20})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.FetchResource(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	// 20 req/s with burst 1 means at least ~100ms for the second and third.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
