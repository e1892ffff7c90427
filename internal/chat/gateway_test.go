package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(srv *httptest.Server) *OpenAIGateway {
	return &OpenAIGateway{
		apiKey: "test-key",
		model:  "gpt-3.5-turbo",
		url:    srv.URL,
		client: srv.Client(),
	}
}

func TestOpenAIGatewayComplete(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hold W less"}},
			},
			"usage": map[string]int{"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52},
		})
	}))
	defer srv.Close()

	result, err := testGateway(srv).Complete(context.Background(), []Message{
		{Role: "system", Content: "coach"},
		{Role: "user", Content: "why do I die first every round?"},
	}, 256)
	require.NoError(t, err)

	assert.Equal(t, "hold W less", result.Message)
	assert.Equal(t, 52, result.Usage.TotalTokens)
	assert.Equal(t, 256, got.MaxTokens)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.Len(t, got.Messages, 2)
}

func TestOpenAIGatewayUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "provider overloaded"},
		})
	}))
	defer srv.Close()

	_, err := testGateway(srv).Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 64)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusTooManyRequests, upstreamErr.StatusCode)
	assert.Contains(t, upstreamErr.Message, "overloaded")
}

func TestOpenAIGatewayMissingKey(t *testing.T) {
	g := NewOpenAIGateway("", "gpt-3.5-turbo")
	_, err := g.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 64)
	assert.Error(t, err)
}
