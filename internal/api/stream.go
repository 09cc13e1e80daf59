// ABOUTME: Streaming message send over an SSE-framed response body
// ABOUTME: Parses event/data frames into typed chunks on a channel

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StreamChunk is one parsed event from a streamed message response.
type StreamChunk struct {
	Event string // "text", "done", "error"
	Text  string
	Meta  *MessageMeta // populated on "done" when the backend reports it
	Err   string       // populated on "error"
}

// StreamMessage posts a user message and streams the assistant reply as it
// is generated. The returned channel closes when the stream ends or ctx is
// cancelled; cancelling ctx aborts the underlying request, which is how
// user-initiated stop reaches the backend.
func (c *Client) StreamMessage(ctx context.Context, req *SendMessageRequest) (<-chan StreamChunk, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if token := c.token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	// No client timeout here: the stream stays open as long as the
	// backend generates. Cancellation comes from ctx.
	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		env, _ := decodeEnvelope(resp.Body)
		resp.Body.Close()
		return nil, categorize(resp.StatusCode, env)
	}

	chunks := make(chan StreamChunk, 16)
	go func() {
		defer close(chunks)
		defer resp.Body.Close()
		c.readStream(ctx, resp.Body, chunks)
	}()
	return chunks, nil
}

// readStream parses SSE frames from body into chunks until EOF or cancel.
func (c *Client) readStream(ctx context.Context, body io.Reader, chunks chan<- StreamChunk) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var eventType string
	var dataLines []string

	flush := func() bool {
		if eventType == "" || len(dataLines) == 0 {
			return true
		}
		chunk, ok := parseChunk(eventType, strings.Join(dataLines, "\n"))
		eventType = ""
		dataLines = nil
		if !ok {
			return true // unknown event type, skip
		}

		select {
		case chunks <- chunk:
			return chunk.Event != "done" && chunk.Event != "error"
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()

		// Empty line signals end of event
		if line == "" {
			if !flush() {
				return
			}
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data:"))
			continue
		}
	}
	flush()
}

// parseChunk decodes one SSE frame into a StreamChunk.
// Returns ok=false for event types this client does not consume.
func parseChunk(eventType, data string) (StreamChunk, bool) {
	switch eventType {
	case "text":
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return StreamChunk{}, false
		}
		return StreamChunk{Event: "text", Text: payload.Text}, true

	case "done":
		var payload struct {
			Text string       `json:"text"`
			Meta *MessageMeta `json:"meta"`
		}
		// Tolerate an empty or malformed done payload
		_ = json.Unmarshal([]byte(data), &payload)
		return StreamChunk{Event: "done", Text: payload.Text, Meta: payload.Meta}, true

	case "error":
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal([]byte(data), &payload)
		return StreamChunk{Event: "error", Err: payload.Message}, true

	default:
		return StreamChunk{}, false
	}
}
