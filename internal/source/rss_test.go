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

func TestRSSSourceFiltersAndNormalizes(t *testing.T) {
	now := time.Now()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssXML(
			feedItem{title: "fresh article", link: srv.URL + "/a", published: now.Add(-2 * time.Hour), imageURL: "https://img.example/a.jpg"},
			feedItem{title: "stale article", link: srv.URL + "/b", published: now.Add(-20 * 24 * time.Hour), imageURL: "https://img.example/b.jpg"},
			feedItem{title: "50% off sale on gadgets", link: srv.URL + "/c", published: now.Add(-time.Hour), imageURL: "https://img.example/c.jpg"},
		))
	}))
	defer srv.Close()

	s := NewRSSSource(testSource(model.PlatformRSS, srv.URL), testClient(), nil)
	items, err := s.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "fresh article", items[0].Title)
	assert.Equal(t, srv.URL+"/a", items[0].Link)
	assert.Equal(t, "https://img.example/a.jpg", items[0].ImageURL)
}

func TestRSSSourceNewestFirstAndCapped(t *testing.T) {
	now := time.Now()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var items []feedItem
		// Oldest first on the wire; the adapter must re-sort.
		for i := 25; i >= 1; i-- {
			items = append(items, feedItem{
				title:     fmt.Sprintf("item %d", i),
				link:      fmt.Sprintf("%s/%d", srv.URL, i),
				published: now.Add(-time.Duration(i) * time.Hour),
				imageURL:  "https://img.example/x.jpg",
			})
		}
		fmt.Fprint(w, rssXML(items...))
	}))
	defer srv.Close()

	s := NewRSSSource(testSource(model.PlatformRSS, srv.URL), testClient(), nil)
	items, err := s.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, items, defaultItemCap)
	assert.Equal(t, "item 1", items[0].Title)
	assert.True(t, items[0].Published.After(items[len(items)-1].Published))
}

func TestRSSSourceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewRSSSource(testSource(model.PlatformRSS, srv.URL), testClient(), nil)
	_, err := s.Fetch(context.Background())
	require.Error(t, err)
}
