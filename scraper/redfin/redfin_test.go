package redfin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"undervalued-homes/models"
	"undervalued-homes/utils"
)

const guardedBody = `{}&&{"version":1,"payload":{"homes":[
	{"mlsStatus":"Active","price":{"value":250000},"sqFt":{"value":1250},"pricePerSqFt":{"value":200},"streetLine":{"value":"12 Elm St"}},
	{"mlsStatus":"Pending","price":{"value":null}}
]}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL+"/stingray/api/gis", &http.Client{}, utils.NewLoggerWithLevel("error"))
}

func TestSearchStripsGuardAndKeepsOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(guardedBody))
	})

	homes, err := c.Search(context.Background(), models.SearchQuery{NumHomes: "10", PropertyType: "1", RegionID: "30868"})
	require.NoError(t, err)
	require.Len(t, homes, 2)
	assert.Equal(t, "Active", homes[0]["mlsStatus"])
	assert.Equal(t, "Pending", homes[1]["mlsStatus"])
	assert.Equal(t, map[string]any{"value": 250000.0}, homes[0]["price"])
}

func TestSearchForwardsQueryVerbatim(t *testing.T) {
	var got url.Values
	var ua string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(`{}&&{"payload":{"homes":[]}}`))
	})

	_, err := c.Search(context.Background(), models.SearchQuery{NumHomes: "350", PropertyType: "1,2", RegionID: "abc 1"})
	require.NoError(t, err)

	assert.Equal(t, "350", got.Get("num_homes"))
	assert.Equal(t, "1,2", got.Get("uipt"))
	assert.Equal(t, "abc 1", got.Get("region_id"))
	assert.Equal(t, "9", got.Get("status"))
	assert.Equal(t, "2", got.Get("region_type"))
	assert.NotEmpty(t, ua)
}

func TestSearchNonSuccessStatus(t *testing.T) {
	for _, code := range []int{http.StatusForbidden, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})

		_, err := c.Search(context.Background(), models.SearchQuery{})
		assert.True(t, errors.Is(err, ErrUpstreamFetch), "status %d: got %v", code, err)
	}
}

func TestSearchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c := NewWithHTTPClient(endpoint, &http.Client{}, utils.NewLoggerWithLevel("error"))
	_, err := c.Search(context.Background(), models.SearchQuery{})
	assert.ErrorIs(t, err, ErrUpstreamFetch)
}

func TestSearchHonorsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewWithHTTPClient(srv.URL, &http.Client{Timeout: 50 * time.Millisecond}, utils.NewLoggerWithLevel("error"))
	_, err := c.Search(context.Background(), models.SearchQuery{})
	assert.ErrorIs(t, err, ErrUpstreamFetch)
}

func TestDecodeHomes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr error
	}{
		{"guarded", `{}&&{"payload":{"homes":[{"a":1}]}}`, 1, nil},
		{"unguarded", `{"payload":{"homes":[{"a":1},{"b":2}]}}`, 2, nil},
		{"surrounding whitespace", "\n {}&&{\"payload\":{\"homes\":[]}} \n", 0, nil},
		{"not json", `{}&&<html>blocked</html>`, 0, ErrMalformedPayload},
		{"no payload", `{}&&{"errorMessage":"bad region"}`, 0, ErrMalformedPayload},
		{"no homes", `{}&&{"payload":{"regions":[]}}`, 0, ErrMalformedPayload},
		{"null homes", `{}&&{"payload":{"homes":null}}`, 0, ErrMalformedPayload},
		{"empty", ``, 0, ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			homes, err := DecodeHomes([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, homes, tt.want)
		})
	}
}

func TestSearchURLBadEndpoint(t *testing.T) {
	c := NewWithHTTPClient("://nope", &http.Client{}, utils.NewLoggerWithLevel("error"))
	_, err := c.SearchURL(models.SearchQuery{})
	assert.ErrorIs(t, err, ErrUpstreamFetch)
}

func TestNewWithHTTPClientDefaultsTimeout(t *testing.T) {
	c := NewWithHTTPClient("http://example.invalid", &http.Client{}, utils.NewLoggerWithLevel("error"))
	assert.Equal(t, 20*time.Second, c.http.Timeout)
}
