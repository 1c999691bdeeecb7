package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// SSEMessage is one tick of the live menu view feed.
type SSEMessage struct {
	ViewsPerSecond float64 `json:"views_per_second"`
	TotalViews     int64   `json:"total_views"`
}

// SSEBroker fans the served-menu rate out to connected dashboards.
type SSEBroker struct {
	logger   *slog.Logger
	clients  map[chan []byte]struct{}
	mu       sync.RWMutex
	views    chan int
	interval time.Duration
}

// NewSSEBroker creates a new SSEBroker and starts its processing loop, which
// stops when ctx ends.
func NewSSEBroker(ctx context.Context, logger *slog.Logger, interval time.Duration) *SSEBroker {
	if interval <= 0 {
		interval = time.Second
	}
	broker := &SSEBroker{
		logger:   logger.With("component", "sse_broker"),
		clients:  make(map[chan []byte]struct{}),
		views:    make(chan int, 1000),
		interval: interval,
	}
	go broker.run(ctx)
	return broker
}

// ServeHTTP streams SSEMessage events until the client goes away.
func (b *SSEBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	messageChan := make(chan []byte, 4)
	b.addClient(messageChan)
	defer b.removeClient(messageChan)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messageChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: views\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// ReportViews records served menus. It never blocks the request path.
func (b *SSEBroker) ReportViews(count int) {
	select {
	case b.views <- count:
	default:
		b.logger.Warn("view counter channel is full, dropping report")
	}
}

// Clients returns the number of connected dashboards.
func (b *SSEBroker) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *SSEBroker) addClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
	b.logger.Info("SSE client connected", "clients", len(b.clients))
}

func (b *SSEBroker) removeClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
		b.logger.Info("SSE client disconnected", "clients", len(b.clients))
	}
}

func (b *SSEBroker) broadcast(msg []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- msg:
		default:
			// slow client, skip this tick
		}
	}
}

func (b *SSEBroker) run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	var window int
	var total int64
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-b.views:
			window += n
			total += int64(n)
		case now := <-ticker.C:
			rate := 0.0
			if elapsed := now.Sub(last).Seconds(); elapsed > 0 {
				rate = float64(window) / elapsed
			}
			data, err := json.Marshal(SSEMessage{ViewsPerSecond: rate, TotalViews: total})
			if err != nil {
				b.logger.Error("failed to marshal SSE message", "error", err)
				continue
			}
			b.broadcast(data)
			last = now
			window = 0
		}
	}
}
