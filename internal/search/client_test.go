package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSearchSuccessPreservesOrder(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "voicesearch/test", r.Header.Get("User-Agent"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery = req["query"]

		_, _ = io.WriteString(w, `{"success": true, "lezioni": [
			{"id": 7, "materia": "Matematica", "data": "2023-05-15", "ora_inizio": "09:00", "ora_fine": "10:00", "id_corso": "C1", "luogo": "Aula 3"},
			{"id": "12", "materia": "Fisica", "data": "2023-05-15", "ora_inizio": "11:00", "ora_fine": "12:30", "id_corso": 4, "luogo": null}
		]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, WithUserAgent("voicesearch/test"))
	outcome := client.Search(context.Background(), "15 maggio 2023")

	require.Equal(t, "15 maggio 2023", gotQuery)
	require.Equal(t, OutcomeSuccess, outcome.Kind)
	require.Empty(t, outcome.Reason)
	require.Equal(t, []Lesson{
		{ID: "7", Subject: "Matematica", Date: "2023-05-15", StartTime: "09:00", EndTime: "10:00", CourseID: "C1", Location: "Aula 3"},
		{ID: "12", Subject: "Fisica", Date: "2023-05-15", StartTime: "11:00", EndTime: "12:30", CourseID: "4"},
	}, outcome.Lessons)
}

func TestSearchEmptyListIsEmptyOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success": true, "lezioni": []}`)
	}))
	defer server.Close()

	outcome := NewClient(server.URL, nil).Search(context.Background(), "1 gennaio 2099")
	require.Equal(t, OutcomeEmpty, outcome.Kind)
	require.Empty(t, outcome.Lessons)
}

func TestSearchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{name: "non 2xx", status: http.StatusInternalServerError, body: `{"success": false}`, reason: "HTTP 500"},
		{name: "service failure", status: http.StatusOK, body: `{"success": false, "error": "db locked"}`, reason: "service reported failure: db locked"},
		{name: "malformed json", status: http.StatusOK, body: `{"success": tru`, reason: "decode response"},
		{name: "missing success", status: http.StatusOK, body: `{"lezioni": []}`, reason: "missing success field"},
		{name: "bad id", status: http.StatusOK, body: `{"success": true, "lezioni": [{"id": {"x": 1}}]}`, reason: "decode response"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer server.Close()

			outcome := NewClient(server.URL, nil).Search(context.Background(), "oggi")
			require.Equal(t, OutcomeFailure, outcome.Kind)
			require.Contains(t, outcome.Reason, tc.reason)
			require.Empty(t, outcome.Lessons)
		})
	}
}

func TestSearchTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	outcome := NewClient(url, nil).Search(context.Background(), "15 maggio 2023")
	require.Equal(t, OutcomeFailure, outcome.Kind)
	require.Contains(t, outcome.Reason, "request failed")
}

func TestSearchWithoutEndpointFails(t *testing.T) {
	outcome := NewClient("  ", nil).Search(context.Background(), "oggi")
	require.Equal(t, OutcomeFailure, outcome.Kind)
	require.Contains(t, outcome.Reason, "not configured")
}

func TestSearchTimeoutIsFailureWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, nil, WithTimeout(50*time.Millisecond))
	outcome := client.Search(context.Background(), "oggi")

	require.Equal(t, OutcomeFailure, outcome.Kind)
	require.Equal(t, int32(1), calls.Load())
}

func TestSearchRejectsOverlappingCall(t *testing.T) {
	var calls atomic.Int32
	var once sync.Once
	entered := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		once.Do(func() { close(entered) })
		<-release
		_, _ = io.WriteString(w, `{"success": true, "lezioni": []}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	first := make(chan Outcome, 1)
	go func() { first <- client.Search(context.Background(), "oggi") }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first search never reached the server")
	}

	second := client.Search(context.Background(), "domani")
	require.Equal(t, OutcomeFailure, second.Kind)
	require.Equal(t, ErrInFlight.Error(), second.Reason)

	close(release)
	require.Equal(t, OutcomeEmpty, (<-first).Kind)
	require.Equal(t, int32(1), calls.Load())

	// The guard clears once the first call returns.
	third := client.Search(context.Background(), "dopodomani")
	require.Equal(t, OutcomeEmpty, third.Kind)
}

func TestSearchCanceledContextFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success": true, "lezioni": []}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := NewClient(server.URL, nil).Search(ctx, "oggi")
	require.Equal(t, OutcomeFailure, outcome.Kind)
}

func TestSuccessWithNoLessonsIsEmpty(t *testing.T) {
	require.Equal(t, OutcomeEmpty, Success(nil).Kind)
	require.Equal(t, "empty", Success(nil).Kind.String())
	require.Equal(t, "failure", Failure("x %d", 1).Kind.String())
	require.Equal(t, "x 1", Failure("x %d", 1).Reason)
}
