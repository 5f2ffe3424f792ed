package plausible

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.Client(), server.URL, zerolog.Nop())
}

func TestFetchStats_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stats/aggregate", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "example.com", q.Get("site_id"))
		assert.Equal(t, "day", q.Get("period"))
		assert.Equal(t, "2024-05-01", q.Get("date"))
		assert.Equal(t, "visitors,pageviews,bounce_rate,visit_duration", q.Get("metrics"))
		assert.Equal(t, "Bearer pk", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"results":{
			"visitors":{"value":42},
			"pageviews":{"value":99},
			"bounce_rate":{"value":37.5},
			"visit_duration":{"value":61.8}
		}}`))
	})

	snap, err := client.FetchStats(context.Background(), "example.com", "pk", "2024-05-01")
	require.NoError(t, err)

	assert.Equal(t, "example.com", snap.Site)
	assert.Equal(t, int64(42), snap.Visitors)
	assert.Equal(t, int64(99), snap.Pageviews)
	assert.InDelta(t, 37.5, snap.BounceRate, 0.001)
	assert.Equal(t, int64(61), snap.VisitDuration)
	assert.Equal(t, "2024-05-01", snap.Marker())
}

func TestFetchStats_MissingMetricIsMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"visitors":{"value":1}}}`))
	})

	_, err := client.FetchStats(context.Background(), "example.com", "", "2024-05-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestFetchStats_HTTPErrors(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusNotFound, common.ErrNotFound},
		{http.StatusUnauthorized, common.ErrTransientFetch},
		{http.StatusInternalServerError, common.ErrTransientFetch},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			_, err := client.FetchStats(context.Background(), "example.com", "", "2024-05-01")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListSites(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sites", r.URL.Path)
		_, _ = w.Write([]byte(`[{"domain":"example.com"},{"domain":""},{"domain":"example.org"}]`))
	})

	sites, err := client.ListSites(context.Background(), "pk")
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "example.org"}, sites)
}
