package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

// ChatStub serves an OpenAI-compatible /v1/chat/completions endpoint that
// answers with canned assistant messages in order, repeating the last one.
// SetStatus makes requests fail with an HTTP error instead.
type ChatStub struct {
	*httptest.Server

	mu       sync.Mutex
	replies  []string
	requests []openai.ChatCompletionRequest
	status   int
}

// NewChatStub starts a stub that lives for the duration of the test
func NewChatStub(t testing.TB, replies ...string) *ChatStub {
	t.Helper()
	stub := &ChatStub{replies: replies}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		stub.mu.Lock()
		stub.requests = append(stub.requests, req)
		status := stub.status
		reply := ""
		if n := len(stub.requests); len(stub.replies) > 0 {
			reply = stub.replies[min(n, len(stub.replies))-1]
		}
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"message": "stub failure", "type": "server_error"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-stub",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
		})
	}))
	t.Cleanup(stub.Close)
	return stub
}

// BaseURL is the API root to configure a client with
func (s *ChatStub) BaseURL() string {
	return s.URL + "/v1"
}

// Requests returns the completion requests received so far
func (s *ChatStub) Requests() []openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), s.requests...)
}

// SetStatus makes later requests fail with status, or succeed again with 0
func (s *ChatStub) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}
