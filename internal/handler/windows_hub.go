package handler

import (
	"io"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type hubEvent struct {
	name string
	data interface{}
}

// WindowsHub tracks open application windows as SSE subscribers. It backs
// the notification click routing: Navigate focuses the most recently opened
// window by pushing a navigate directive down its stream.
type WindowsHub struct {
	mu     sync.Mutex
	subs   []chan hubEvent
	logger *zap.Logger
}

func NewWindowsHub(logger *zap.Logger) *WindowsHub {
	return &WindowsHub{logger: logger}
}

// Subscribe registers the caller as an open window and streams events until
// it disconnects.
func (h *WindowsHub) Subscribe(c *gin.Context) {
	ch := make(chan hubEvent, 8)
	h.add(ch)
	defer h.remove(ch)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-ch:
			c.SSEvent(ev.name, ev.data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Broadcast pushes an event to every open window.
func (h *WindowsHub) Broadcast(name string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- hubEvent{name, data}:
		default:
			// Slow consumer; skip rather than block the caller.
		}
	}
}

// Navigate focuses the most recently opened window on url. Returns false
// when no window is open, telling the caller to open a new one.
func (h *WindowsHub) Navigate(url string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := len(h.subs) - 1; i >= 0; i-- {
		select {
		case h.subs[i] <- hubEvent{"navigate", gin.H{"url": url}}:
			return true
		default:
		}
	}
	return false
}

func (h *WindowsHub) add(ch chan hubEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, ch)
}

func (h *WindowsHub) remove(ch chan hubEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.subs {
		if existing == ch {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			break
		}
	}
}
