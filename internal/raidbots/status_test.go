package raidbots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/wishlist-sync/internal/types"
)

type capturedRequest struct {
	path      string
	userAgent string
}

func newStatusServer(t *testing.T, status int, body string) (*StatusClient, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := NewStatusClient(&Options{BaseURL: server.URL, UserAgent: "test-agent"})
	return client, captured
}

func TestQueryJobStatus_Running(t *testing.T) {
	client, req := newStatusServer(t, http.StatusOK,
		`{"job":{"state":"active","progress":42.5},"queue":{"position":3,"total":17}}`)

	job, err := client.QueryJobStatus(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "/api/job/abc123", req.path)
	assert.Equal(t, "test-agent", req.userAgent)
	assert.Equal(t, "abc123", job.ID)
	assert.Equal(t, types.JobRunning, job.State)
	require.NotNil(t, job.Progress)
	assert.InDelta(t, 42.5, *job.Progress, 0.001)
	require.NotNil(t, job.QueuePosition)
	assert.Equal(t, 3, *job.QueuePosition)
	require.NotNil(t, job.QueueTotal)
	assert.Equal(t, 17, *job.QueueTotal)
}

func TestQueryJobStatus_MissingProgressIsNotAnError(t *testing.T) {
	client, _ := newStatusServer(t, http.StatusOK, `{"job":{"state":"queued"}}`)

	job, err := client.QueryJobStatus(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, types.JobQueued, job.State)
	assert.Nil(t, job.Progress)
	assert.Nil(t, job.QueuePosition)
	assert.Nil(t, job.QueueTotal)
}

func TestQueryJobStatus_Terminal(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   types.JobState
	}{
		{"complete state", http.StatusOK, `{"job":{"state":"complete","progress":100}}`, types.JobComplete},
		{"no job found body", http.StatusOK, `{"message":"No job found"}`, types.JobNotFound},
		{"404 response", http.StatusNotFound, `{"message":"No job found"}`, types.JobNotFound},
		{"404 without body", http.StatusNotFound, ``, types.JobNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newStatusServer(t, tt.status, tt.body)

			job, err := client.QueryJobStatus(context.Background(), "abc123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, job.State)
			assert.True(t, job.State.IsTerminal())
		})
	}
}

func TestQueryJobStatus_UnknownBodyIsNonTerminal(t *testing.T) {
	client, _ := newStatusServer(t, http.StatusOK, `{"message":"rate limited"}`)

	job, err := client.QueryJobStatus(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, types.JobUnknown, job.State)
	assert.False(t, job.State.IsTerminal())
}

func TestQueryJobStatus_TransientErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{"server error", http.StatusBadGateway, `bad gateway`, http.StatusBadGateway},
		{"rate limited", http.StatusTooManyRequests, ``, http.StatusTooManyRequests},
		{"garbage body", http.StatusOK, `<html>`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newStatusServer(t, tt.status, tt.body)

			job, err := client.QueryJobStatus(context.Background(), "abc123")
			require.Error(t, err)
			assert.Nil(t, job)

			var rbErr *Error
			require.ErrorAs(t, err, &rbErr)
			assert.Equal(t, tt.wantStatus, rbErr.StatusCode)
		})
	}
}

func TestQueryJobStatus_Unreachable(t *testing.T) {
	client := NewStatusClient(&Options{BaseURL: "http://127.0.0.1:1"})

	_, err := client.QueryJobStatus(context.Background(), "abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP request failed")
}
