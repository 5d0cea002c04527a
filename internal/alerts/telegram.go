package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramSender delivers rendered alert messages through the Telegram bot
// API. It decides nothing about content; callers hand it final text.
type TelegramSender struct {
	client  *http.Client
	baseURL string
}

// TelegramOption configures a TelegramSender.
type TelegramOption func(*TelegramSender)

// WithBaseURL overrides the Telegram API endpoint (used in tests).
func WithBaseURL(url string) TelegramOption {
	return func(s *TelegramSender) { s.baseURL = strings.TrimSuffix(url, "/") }
}

func NewTelegramSender(opts ...TelegramOption) *TelegramSender {
	s := &TelegramSender{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultTelegramAPI,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts an HTML-formatted message to the destination chat. The chat id
// may carry an optional topic suffix ("chat:thread") which maps to
// Telegram's message_thread_id.
func (s *TelegramSender) Send(ctx context.Context, token, chatID, text string) error {
	if token == "" || chatID == "" {
		return fmt.Errorf("telegram token and chat id are required")
	}

	chat, threadID := splitChatID(chatID)
	payload := map[string]any{
		"chat_id":    chat,
		"text":       text,
		"parse_mode": "HTML",
	}
	if threadID != 0 {
		payload["message_thread_id"] = threadID
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

// splitChatID separates an optional message-thread suffix from a chat id.
// "-100123:42" addresses thread 42 in chat -100123; a bare id targets the
// main chat.
func splitChatID(raw string) (string, int) {
	parts := strings.SplitN(raw, ":", 2)
	chat := strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		if threadID, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && threadID > 0 {
			return chat, threadID
		}
	}
	return strings.TrimSpace(raw), 0
}
