package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	sent     []map[string]any
	failures int
	updates  string
	served   bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if f.failures > 0 {
			f.failures--
			http.Error(w, "flood", http.StatusTooManyRequests)
			return
		}
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.sent = append(f.sent, payload)
		fmt.Fprint(w, `{"ok":true}`)
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		if !f.served && f.updates != "" {
			f.served = true
			fmt.Fprint(w, f.updates)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBotAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestNotifier(api *fakeBotAPI) (*TelegramNotifier, *httptest.Server) {
	srv := httptest.NewServer(api)
	n := NewTelegramNotifier("TOKEN", "")
	n.APIBase = srv.URL
	n.Client = srv.Client()
	return n, srv
}

func TestSend(t *testing.T) {
	api := &fakeBotAPI{}
	n, srv := newTestNotifier(api)
	defer srv.Close()

	if err := n.Send(context.Background(), 99, "<b>hi</b>"); err != nil {
		t.Fatal(err)
	}
	if api.sentCount() != 1 {
		t.Fatalf("expected 1 message, got %d", api.sentCount())
	}
	got := api.sent[0]
	if got["chat_id"] != float64(99) || got["parse_mode"] != "HTML" || got["text"] != "<b>hi</b>" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestSend_APIError(t *testing.T) {
	api := &fakeBotAPI{failures: 1}
	n, srv := newTestNotifier(api)
	defer srv.Close()

	err := n.Send(context.Background(), 1, "x")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestSendWithRetry_RecoversAfterFailure(t *testing.T) {
	api := &fakeBotAPI{failures: 1}
	n, srv := newTestNotifier(api)
	defer srv.Close()

	if err := n.SendWithRetry(context.Background(), 1, "x", 1); err != nil {
		t.Fatal(err)
	}
	if api.sentCount() != 1 {
		t.Errorf("expected delivery on retry, got %d", api.sentCount())
	}
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	api := &fakeBotAPI{failures: 5}
	n, srv := newTestNotifier(api)
	defer srv.Close()

	err := n.SendWithRetry(context.Background(), 1, "x", 0)
	if err == nil || !strings.Contains(err.Error(), "retries exhausted") {
		t.Errorf("expected exhausted error, got %v", err)
	}
}

func TestStartPolling_RepliesPerChat(t *testing.T) {
	api := &fakeBotAPI{updates: `{"ok":true,"result":[
		{"update_id":10,"message":{"text":" /history ","chat":{"id":5}}},
		{"update_id":11,"message":{"text":"","chat":{"id":6}}}
	]}`}
	n, srv := newTestNotifier(api)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var calls []string
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, chatID int64, text string) string {
			mu.Lock()
			calls = append(calls, fmt.Sprintf("%d:%s", chatID, text))
			mu.Unlock()
			return "reply"
		})
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for api.sentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("no reply sent")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 || calls[0] != "5:/history" {
		t.Errorf("unexpected handler calls %v", calls)
	}
	if api.sent[0]["chat_id"] != float64(5) {
		t.Errorf("reply sent to wrong chat: %v", api.sent[0])
	}
}
