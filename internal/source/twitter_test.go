package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSMDove/feedpulse/internal/model"
)

func TestTwitterSourceFallsBackAcrossInstances(t *testing.T) {
	now := time.Now()

	// First instance responds but yields an empty feed.
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssXML())
	}))
	defer empty.Close()

	var full *httptest.Server
	full = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/someuser/rss", r.URL.Path)
		var items []feedItem
		for i := 0; i < 5; i++ {
			items = append(items, feedItem{
				title:     fmt.Sprintf("tweet %d", i),
				link:      fmt.Sprintf("%s/someuser/status/%d", full.URL, i),
				published: now.Add(-time.Duration(i) * time.Hour),
				imageURL:  "https://img.example/t.jpg",
			})
		}
		fmt.Fprint(w, rssXML(items...))
	}))
	defer full.Close()

	s := NewTwitterSource(testSource(model.PlatformTwitter, "https://x.com/someuser"), testClient(), nil)
	s.instances = []string{empty.URL, full.URL}

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 5)
	for _, it := range items {
		assert.Contains(t, it.Link, "https://twitter.com/someuser/status/")
	}
}

func TestCanonicalTweetURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "https://nitter.net/jack/status/20#m", want: "https://twitter.com/jack/status/20"},
		{in: "http://lightbrd.com/jack/status/20", want: "https://twitter.com/jack/status/20"},
		{in: "not a url", want: "not a url"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, canonicalTweetURL(tc.in), tc.in)
	}
}

func TestTwitterSourceAllInstancesFail(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	s := NewTwitterSource(testSource(model.PlatformTwitter, "@someuser"), testClient(), nil)
	s.instances = []string{down.URL, down.URL}

	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all mirror instances failed")
	assert.Contains(t, err.Error(), down.URL)
}

func TestTwitterUsername(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://twitter.com/jack", want: "jack"},
		{in: "https://x.com/jack/status/123", want: "jack"},
		{in: "https://x.com/@jack", want: "jack"},
		{in: "@jack", want: "jack"},
		{in: "jack", want: "jack"},
		{in: "https://example.com/not-twitter", wantErr: true},
	}

	for _, tc := range cases {
		got, err := twitterUsername(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
