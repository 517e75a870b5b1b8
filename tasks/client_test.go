package tasks_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-nagbot/retry"
	"github.com/jrsteele09/go-nagbot/tasks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const tasksPage = `{"value":[
	{"id":"t1","title":"File taxes","dueDateTime":"2024-01-10T00:00:00Z","categories":["nag"],"importance":"high"},
	{"id":"t2","title":"Untagged","dueDateTime":"2024-01-10T00:00:00Z","categories":["home"]},
	{"id":"t3","title":"Nagged","dueDateTime":"2024-01-10T00:00:00Z","lastNaggedAt":"2024-01-05T08:00:00Z","categories":["nag","work"]}
]}`

func newClient(srv *httptest.Server) *tasks.Client {
	return tasks.NewClient(srv.URL+"/",
		tasks.WithRetryPolicy(retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond}),
		tasks.WithLogger(zerolog.Nop()),
	)
}

func TestClient_FetchTagged(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" || r.URL.Query().Get("tag") != "nag" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, tasksPage)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	items, err := newClient(srv).FetchTagged(context.Background(), "token-1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "t1", items[0].ID)
	require.Equal(t, "File taxes", items[0].Title)
	require.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), items[0].DueAt.UTC())
	require.True(t, items[0].LastNaggedAt.IsZero())
	require.Contains(t, string(items[0].Raw), `"importance":"high"`)

	require.Equal(t, "t3", items[1].ID)
	require.Equal(t, time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC), items[1].LastNaggedAt.UTC())
	require.Equal(t, []string{"nag", "work"}, items[1].Tags)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"value":[]}`)
	}))
	defer srv.Close()

	items, err := newClient(srv).FetchTagged(context.Background(), "token-1")
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, int32(3), calls.Load())
}

func TestClient_SurfacesAPIErrorAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(srv).FetchTagged(context.Background(), "token-1")
	require.ErrorIs(t, err, retry.ErrRetryExhausted)

	var apiErr *tasks.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, http.MethodGet, apiErr.Method)
	require.Equal(t, int32(3), calls.Load())
}

func TestClient_Patch(t *testing.T) {
	var got map[string]any
	var path, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	nagged := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	err := newClient(srv).Patch(context.Background(), "token-1", "t 1", tasks.Patch{LastNaggedAt: nagged, Tags: []string{"nag"}})
	require.NoError(t, err)

	require.Equal(t, "/tasks/t 1", path)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, "2024-01-11T09:00:00Z", got["lastNaggedAt"])
	require.Equal(t, []any{"nag"}, got["categories"])

	require.Error(t, newClient(srv).Patch(context.Background(), "token-1", "", tasks.Patch{}))
}

func TestClient_Post(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["title"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := newClient(srv).Post(context.Background(), "token-1", "/tasks", map[string]string{"title": "x"}, &out)
	require.NoError(t, err)
	require.Equal(t, "x", out["echo"])
}
