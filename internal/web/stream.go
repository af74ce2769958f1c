package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const streamWriteTimeout = 10 * time.Second

// StreamHub fans ledger commit notifications out to websocket
// subscribers, one subscription channel per connection.
type StreamHub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewStreamHub() *StreamHub {
	return &StreamHub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Notify wakes every subscriber of the account. Non-blocking: a slow
// subscriber coalesces pending notifications into one.
func (h *StreamHub) Notify(accountID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[accountID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *StreamHub) subscribe(accountID string) chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	if h.subs[accountID] == nil {
		h.subs[accountID] = make(map[chan struct{}]struct{})
	}
	h.subs[accountID][ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *StreamHub) unsubscribe(accountID string, ch chan struct{}) {
	h.mu.Lock()
	delete(h.subs[accountID], ch)
	if len(h.subs[accountID]) == 0 {
		delete(h.subs, accountID)
	}
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleAccountStream pushes an account summary snapshot on connect and
// after every committed trade, transfer or mark touching the account.
func (s *Server) handleAccountStream(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	// Reject unknown accounts before upgrading.
	if _, err := s.accounts.Summary(r.Context(), accountID); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ch := s.hub.subscribe(accountID)
	defer s.hub.unsubscribe(accountID, ch)

	// Read pump: drains client frames and signals disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := func() error {
		summary, err := s.accounts.Summary(r.Context(), accountID)
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(summary)
	}

	if err := push(); err != nil {
		s.logger.Error("Failed to push summary", zap.String("account_id", accountID), zap.Error(err))
		return
	}

	for {
		select {
		case <-ch:
			if err := push(); err != nil {
				s.logger.Warn("Dropping summary stream", zap.String("account_id", accountID), zap.Error(err))
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
