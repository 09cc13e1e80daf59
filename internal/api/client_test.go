// ABOUTME: Tests for the REST client: envelope decoding, auth header, error taxonomy
// ABOUTME: Uses httptest servers as stand-ins for the backend

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, func() string { return "test-token" }, nil)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data": []}`))
	}))

	_, _, err := client.ListConversations(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestClient_DecodesEnvelopeData(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [{"id": "c1", "title": "Contract review", "context": "legal", "message_count": 4}],
			"pagination": {"page": 1, "per_page": 10, "total": 1}
		}`))
	}))

	conversations, pagination, err := client.ListConversations(context.Background(), 1, 10)
	require.NoError(t, err)

	require.Len(t, conversations, 1)
	assert.Equal(t, "c1", conversations[0].ID)
	assert.Equal(t, "Contract review", conversations[0].Title)
	assert.Equal(t, "legal", conversations[0].Context)
	assert.Equal(t, 4, conversations[0].MessageCount)

	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Total)
}

func TestClient_SendMessage_GeneratesIdempotencyKey(t *testing.T) {
	var received SendMessageRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"data": {"conversation_id": "c1", "message_id": "m1", "status": "accepted"}}`))
	}))

	result, err := client.SendMessage(context.Background(), &SendMessageRequest{
		Content: "Olá",
		Context: "legal",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, received.IdempotencyKey)
	assert.Equal(t, "Olá", received.Content)
	assert.Equal(t, "m1", result.MessageID)
	assert.Equal(t, "accepted", result.Status)
}

func TestClient_SendMessage_KeepsProvidedIdempotencyKey(t *testing.T) {
	var received SendMessageRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"data": {"status": "duplicate"}}`))
	}))

	_, err := client.SendMessage(context.Background(), &SendMessageRequest{
		Content:        "retry",
		IdempotencyKey: "fixed-key",
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed-key", received.IdempotencyKey)
}

func TestClient_AuthError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "token expired"}}`))
	}))

	_, _, err := client.ListConversations(context.Background(), 1, 10)
	require.Error(t, err)

	assert.Equal(t, KindAuth, KindOf(err))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "token expired", apiErr.Message)
	assert.False(t, apiErr.Retryable())
}

func TestClient_ValidationError_CarriesFields(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": {"message": "validation failed", "fields": {"term": "required"}}}`))
	}))

	_, err := client.CreateGlossaryTerm(context.Background(), &GlossaryTerm{})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindValidation, apiErr.Kind)
	assert.Equal(t, "required", apiErr.Fields["term"])
	assert.False(t, apiErr.Retryable())
}

func TestClient_ServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.DeleteConversation(context.Background(), "c1")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindServer, apiErr.Kind)
	assert.True(t, apiErr.Retryable())
	// Body was empty; message falls back to the status text
	assert.Equal(t, "Internal Server Error", apiErr.Message)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	client := New(srv.URL, time.Second, nil, nil)
	_, _, err := client.ListConversations(context.Background(), 1, 10)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Zero(t, apiErr.Status)
	assert.True(t, apiErr.Retryable())
}

func TestClient_RequestHandoff_EchoesID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req HandoffRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		req.Status = "pending"
		resp := map[string]any{"data": req}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))

	result, err := client.RequestHandoff(context.Background(), &HandoffRecord{
		ID:       "h1",
		Priority: "urgent",
		Reason:   "needs human review",
	})
	require.NoError(t, err)
	assert.Equal(t, "h1", result.ID)
	assert.Equal(t, "pending", result.Status)
}

func TestClient_ApproveProfessional(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data": {"id": "p1", "status": "approved"}}`))
	}))

	pro, err := client.ApproveProfessional(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "/professionals/p1/approve", gotPath)
	assert.Equal(t, "approved", pro.Status)
}
