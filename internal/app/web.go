package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial_replay/internal/config"
	"github.com/relabs-tech/inertial_replay/internal/source"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsWriteTimeout = 5 * time.Second

// frameFeed holds the latest polled frame and fans it out to websocket
// subscribers. Slow subscribers miss frames rather than stall the poller.
type frameFeed struct {
	mu   sync.RWMutex
	last Frame
	have bool
	subs map[chan Frame]struct{}
}

func newFrameFeed() *frameFeed {
	return &frameFeed{subs: make(map[chan Frame]struct{})}
}

func (f *frameFeed) publish(frame Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = frame
	f.have = true
	for ch := range f.subs {
		select {
		case ch <- frame:
		default:
		}
	}
}

func (f *frameFeed) latest() (Frame, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last, f.have
}

// subscribe registers a channel primed with the latest frame, if any.
func (f *frameFeed) subscribe() chan Frame {
	ch := make(chan Frame, 1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.have {
		ch <- f.last
	}
	f.subs[ch] = struct{}{}
	return ch
}

func (f *frameFeed) unsubscribe(ch chan Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, ch)
}

func (f *frameFeed) handleFrame(w http.ResponseWriter, r *http.Request) {
	frame, ok := f.latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(frame); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (f *frameFeed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := f.subscribe()
	defer f.unsubscribe(ch)

	// The client never sends anything useful; reading only detects close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case frame := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

func (f *frameFeed) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/frame", f.handleFrame)
	mux.HandleFunc("/ws", f.handleWS)
	return mux
}

// pollInto polls src every interval and publishes to feed until ctx is done.
func pollInto(ctx context.Context, src source.Source, interval time.Duration, feed *frameFeed) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			feed.publish(Poll(src, t))
		}
	}
}

// RunWeb serves the polled frames over HTTP: /api/frame returns the latest
// frame as JSON, /ws streams every frame over a websocket.
func RunWeb(ctx context.Context, src source.Source, cfg *config.Config) error {
	feed := newFrameFeed()
	go pollInto(ctx, src, time.Duration(cfg.PollInterval)*time.Millisecond, feed)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: feed.routes(),
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Printf("web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
