// ABOUTME: Chat endpoints: send message, list/delete conversations, fetch history
// ABOUTME: Sends are guarded by idempotency keys and are never auto-retried

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Conversation is the wire representation of a conversation thread.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Context      string    `json:"context"`
	MessageCount int       `json:"message_count"`
	Pinned       bool      `json:"pinned"`
	Favorite     bool      `json:"favorite"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MessageRecord is the wire representation of a stored message.
type MessageRecord struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	Role           string       `json:"role"`
	Content        string       `json:"content"`
	CreatedAt      time.Time    `json:"created_at"`
	Meta           *MessageMeta `json:"meta,omitempty"`
}

// MessageMeta carries optional model metadata for assistant messages.
type MessageMeta struct {
	Model        string  `json:"model,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	InputTokens  int32   `json:"input_tokens,omitempty"`
	OutputTokens int32   `json:"output_tokens,omitempty"`
	CostUSD      float64 `json:"cost_usd,omitempty"`
}

// Attachment describes a file attached to an outgoing message.
// Only metadata travels in the send request; upload is a separate concern.
type Attachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// SendMessageRequest is the body for POST /messages.
type SendMessageRequest struct {
	ConversationID string       `json:"conversation_id,omitempty"`
	Content        string       `json:"content"`
	Context        string       `json:"context,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	IdempotencyKey string       `json:"idempotency_key"`
}

// SendMessageResult is the acknowledgment for an accepted message.
// The assistant's reply arrives via the push channel or a streamed body,
// not in this response.
type SendMessageResult struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Status         string `json:"status"`
}

// SendMessage posts a user message. An idempotency key is generated when
// the caller does not provide one, so a timed-out send can be repeated by
// the user without producing a duplicate on the backend.
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResult, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	var result SendMessageResult
	if _, err := c.do(ctx, http.MethodPost, "/messages", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListConversations fetches a page of the user's conversations.
func (c *Client) ListConversations(ctx context.Context, page, perPage int) ([]Conversation, *Pagination, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	var conversations []Conversation
	pagination, err := c.do(ctx, http.MethodGet, "/conversations", query, nil, &conversations)
	if err != nil {
		return nil, nil, err
	}
	return conversations, pagination, nil
}

// GetMessages fetches the stored messages of one conversation, oldest first.
func (c *Client) GetMessages(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var messages []MessageRecord
	if _, err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(conversationID)+"/messages", query, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteConversation removes a conversation and its messages on the backend.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/conversations/"+url.PathEscape(id), nil, nil, nil)
	return err
}

// UpdateConversation renames or re-flags a conversation.
func (c *Client) UpdateConversation(ctx context.Context, conv *Conversation) (*Conversation, error) {
	var updated Conversation
	if _, err := c.do(ctx, http.MethodPut, "/conversations/"+url.PathEscape(conv.ID), nil, conv, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// HandoffRecord is the wire representation of a human-handoff request.
type HandoffRecord struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Requester      string    `json:"requester"`
	Priority       string    `json:"priority"`
	Reason         string    `json:"reason"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// RequestHandoff posts a handoff request. The backend echoes the
// client-generated id so optimistic local copies can be reconciled.
func (c *Client) RequestHandoff(ctx context.Context, req *HandoffRecord) (*HandoffRecord, error) {
	var result HandoffRecord
	if _, err := c.do(ctx, http.MethodPost, "/handoffs", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
