package riot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newRecordingClient returns a client whose backoff sleeps are captured
// instead of executed.
func newRecordingClient(slept *[]time.Duration) *Client {
	c := New(Config{APIKey: "test-key"}, zap.NewNop())
	c.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return c
}

func TestGetHonorsRetryAfterThenSucceeds(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newRecordingClient(&slept)

	var out map[string]bool
	require.NoError(t, c.get(context.Background(), srv.URL, &out))
	require.True(t, out["ok"])
	require.Equal(t, 2, calls)
	require.Equal(t, []time.Duration{5 * time.Second}, slept)
	require.Zero(t, c.retries, "a 429 must not consume retry budget")
}

func TestGetDefaultsRetryAfterToOneSecond(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newRecordingClient(&slept)

	var out []string
	require.NoError(t, c.get(context.Background(), srv.URL, &out))
	require.Equal(t, []time.Duration{time.Second}, slept)
}

func TestGetFailsAfterRetryBudget(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newRecordingClient(&slept)

	var out any
	err := c.get(context.Background(), srv.URL, &out)
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusInternalServerError, fe.Status)
	require.Equal(t, srv.URL, fe.URL)
	require.Equal(t, 3, calls, "first attempt plus two retries")
	require.Empty(t, slept, "server errors retry immediately, without backoff")
}

func TestGetSuccessResetsRetryCounter(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newRecordingClient(&slept)

	var out map[string]any
	require.NoError(t, c.get(context.Background(), srv.URL, &out))
	require.Zero(t, c.retries)
	require.Equal(t, 2, calls)
}

func TestGetSendsAPIKeyHeader(t *testing.T) {
	t.Parallel()

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Riot-Token")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newRecordingClient(&slept)

	var out map[string]any
	require.NoError(t, c.get(context.Background(), srv.URL, &out))
	require.Equal(t, "test-key", got)
}

func TestGetStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key"}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out any
	err := c.get(ctx, srv.URL, &out)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}
