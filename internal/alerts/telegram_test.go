package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewTelegramSender(WithBaseURL(srv.URL))
	err := sender.Send(context.Background(), "bot-token", "-100123", "<b>hello</b>")
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "-100123", gotPayload["chat_id"])
	assert.Equal(t, "<b>hello</b>", gotPayload["text"])
	assert.Equal(t, "HTML", gotPayload["parse_mode"])
	assert.NotContains(t, gotPayload, "message_thread_id")
}

func TestTelegramSendWithThread(t *testing.T) {
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewTelegramSender(WithBaseURL(srv.URL))
	err := sender.Send(context.Background(), "bot-token", "-100123:42", "hi")
	require.NoError(t, err)

	assert.Equal(t, "-100123", gotPayload["chat_id"])
	assert.Equal(t, float64(42), gotPayload["message_thread_id"])
}

func TestTelegramSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sender := NewTelegramSender(WithBaseURL(srv.URL))
	err := sender.Send(context.Background(), "bad-token", "chat", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestTelegramSendMissingDestination(t *testing.T) {
	sender := NewTelegramSender()
	assert.Error(t, sender.Send(context.Background(), "", "chat", "hi"))
	assert.Error(t, sender.Send(context.Background(), "token", "", "hi"))
}

func TestSplitChatID(t *testing.T) {
	chat, thread := splitChatID("-100123")
	assert.Equal(t, "-100123", chat)
	assert.Zero(t, thread)

	chat, thread = splitChatID("-100123:42")
	assert.Equal(t, "-100123", chat)
	assert.Equal(t, 42, thread)

	// A malformed suffix falls back to the raw id.
	chat, thread = splitChatID("-100123:xyz")
	assert.Equal(t, "-100123:xyz", chat)
	assert.Zero(t, thread)
}
