package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// PerplexityServer serves the scoring wire format from score.
func PerplexityServer(t testing.TB, score func(text string) float64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]float64{"perplexity": score(req.Text)})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// LengthScore scores texts by their byte length, so shorter texts rank first.
func LengthScore(text string) float64 {
	return float64(len(text))
}

// ChatServer replays replies as chat completion content, repeating the last
// reply once the script runs out. Calls reports how many requests arrived.
type ChatServer struct {
	*httptest.Server

	mu      sync.Mutex
	replies []string
	calls   int
}

// NewChatServer starts a chat completion server for the scripted replies.
func NewChatServer(t testing.TB, replies ...string) *ChatServer {
	t.Helper()

	cs := &ChatServer{replies: replies}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.Close)
	return cs
}

// Calls returns the number of completion requests served.
func (cs *ChatServer) Calls() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.calls
}

func (cs *ChatServer) handle(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	idx := cs.calls
	cs.calls++
	reply := ""
	if len(cs.replies) > 0 {
		if idx >= len(cs.replies) {
			idx = len(cs.replies) - 1
		}
		reply = cs.replies[idx]
	}
	cs.mu.Unlock()

	resp := map[string]any{
		"choices": []map[string]any{{
			"message":       map[string]string{"role": "assistant", "content": reply},
			"finish_reason": "stop",
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
