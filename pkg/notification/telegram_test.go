package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/raykavin/dexscout/pkg/logger"
	"github.com/stretchr/testify/require"
)

type botAPI struct {
	mu       sync.Mutex
	messages []map[string]any
	failSend bool
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		fmt.Fprint(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Scout","username":"scout_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if b.failSend {
			fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}

		var params map[string]any
		_ = json.NewDecoder(r.Body).Decode(&params)
		b.mu.Lock()
		b.messages = append(b.messages, params)
		b.mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":-100},"text":"ok"}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestTelegram_SendAndStart(t *testing.T) {
	api := &botAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	bot, err := NewTelegram("123:abc", WithAPIURL(server.URL), WithLogger(logger.Nop{}))
	require.NoError(t, err)
	require.NoError(t, bot.Start(context.Background()))

	require.NoError(t, bot.Send(context.Background(), "-100", "*hello*"))
	require.Len(t, api.messages, 1)
	require.Equal(t, "-100", api.messages[0]["chat_id"])
	require.Equal(t, "*hello*", api.messages[0]["text"])
	require.Equal(t, "Markdown", api.messages[0]["parse_mode"])
}

func TestTelegram_SendFailure(t *testing.T) {
	api := &botAPI{failSend: true}
	server := httptest.NewServer(api)
	defer server.Close()

	bot, err := NewTelegram("123:abc", WithAPIURL(server.URL))
	require.NoError(t, err)

	err = bot.Send(context.Background(), "-100", "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to send telegram message")
}

func TestTelegram_InvalidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer server.Close()

	_, err := NewTelegram("bad", WithAPIURL(server.URL))
	require.Error(t, err)
}

func TestTelegram_SendCancelled(t *testing.T) {
	server := httptest.NewServer(&botAPI{})
	defer server.Close()

	bot, err := NewTelegram("123:abc", WithAPIURL(server.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, bot.Send(ctx, "-100", "text"), context.Canceled)
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(logger.Nop{})
	require.NoError(t, n.Start(context.Background()))
	require.NoError(t, n.Send(context.Background(), "dry-run", "text"))
}
