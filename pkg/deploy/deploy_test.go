package deploy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirePostsRequestAndParsesAck(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(Response{DeployID: "d-1", LiveURL: "https://notes.example.app"})
	}))
	defer server.Close()

	trigger := NewTrigger(server.URL)
	ack, err := trigger.Fire(context.Background(), Request{AppName: "notes", RepoURL: "https://github.com/acme/notes.git"})
	require.NoError(t, err)

	assert.Equal(t, "notes", got.AppName)
	assert.Equal(t, "https://notes.example.app", ack.LiveURL)
}

func TestFireServerErrorIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	trigger := NewTrigger(server.URL)
	_, err := trigger.Fire(context.Background(), Request{AppName: "notes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFireDisabledIsNoOp(t *testing.T) {
	trigger := NewTrigger("")
	assert.False(t, trigger.Enabled())

	ack, err := trigger.Fire(context.Background(), Request{AppName: "notes"})
	require.NoError(t, err)
	assert.Empty(t, ack.LiveURL)
}

func TestFireUnparseableAckStillSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	trigger := NewTrigger(server.URL)
	ack, err := trigger.Fire(context.Background(), Request{AppName: "notes"})
	require.NoError(t, err)
	assert.NotNil(t, ack)
}
