// Package sse streams content change notifications to HTTP clients as
// Server-Sent Events.
//
// Events on the stream:
//
//	content.saved    a post, page, category or tag was written (models.Change)
//	content.deleted  one was removed (models.Change)
//	feed.updated     at most one per throttle interval after any change
//	index.synced     the watcher finished a resync (index.Stats)
//
// A client may subscribe with a locale; content events for other locales are
// then withheld. Legacy (locale-less) changes and the other events reach
// everyone.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/folio/internal/models"
)

const (
	clientBuffer = 64

	// DefaultKeepAlive is the interval between comment frames on an idle stream.
	DefaultKeepAlive = 25 * time.Second
)

// Event is one message on the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// subscriber is a client channel and the locale it follows ("" for all).
type subscriber struct {
	ch     chan []byte
	locale string
}

func (s subscriber) wants(c models.Change) bool {
	return s.locale == "" || c.Locale == "" || c.Locale == s.locale
}

// Broker fans events out to subscribed clients.
type Broker struct {
	feedMin   time.Duration
	keepAlive time.Duration

	joinCh   chan subscriber
	leaveCh  chan chan []byte
	eventCh  chan Event
	changeCh chan models.Change
	countCh  chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. feedThrottle is the minimum interval between two
// "feed.updated" events.
func NewBroker(feedThrottle time.Duration) *Broker {
	if feedThrottle <= 0 {
		feedThrottle = 2 * time.Second
	}
	b := &Broker{
		feedMin:   feedThrottle,
		keepAlive: DefaultKeepAlive,
		joinCh:    make(chan subscriber),
		leaveCh:   make(chan chan []byte),
		eventCh:   make(chan Event, 256),
		changeCh:  make(chan models.Change, 256),
		countCh:   make(chan chan int),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go b.loop()
	return b
}

// SetKeepAlive changes the idle comment interval of streams opened afterwards.
func (b *Broker) SetKeepAlive(d time.Duration) {
	if d > 0 {
		b.keepAlive = d
	}
}

func frame(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, payload)), nil
}

// offer hands msg to ch unless the client is too far behind.
func offer(ch chan []byte, msg []byte) {
	select {
	case ch <- msg:
	default:
	}
}

func (b *Broker) loop() {
	defer close(b.stopped)

	subs := make(map[chan []byte]subscriber)
	var lastFeed time.Time

	toAll := func(ev Event) {
		msg, err := frame(ev)
		if err != nil {
			return
		}
		for ch := range subs {
			offer(ch, msg)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range subs {
				close(ch)
			}
			return

		case s := <-b.joinCh:
			subs[s.ch] = s

		case ch := <-b.leaveCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case ev := <-b.eventCh:
			toAll(ev)

		case c := <-b.changeCh:
			if msg, err := frame(Event{Type: "content." + c.Op, Data: c}); err == nil {
				for ch, s := range subs {
					if s.wants(c) {
						offer(ch, msg)
					}
				}
			}
			if now := time.Now(); now.Sub(lastFeed) >= b.feedMin {
				lastFeed = now
				toAll(Event{Type: "feed.updated", Data: map[string]string{}})
			}

		case resp := <-b.countCh:
			resp <- len(subs)
		}
	}
}

// send delivers v on ch to the loop. It reports false once the broker is closed.
func send[T any](b *Broker, ch chan T, v T) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case ch <- v:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client following locale ("" for every locale). The
// returned channel is closed by Unsubscribe or Close.
func (b *Broker) Subscribe(locale string) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !send(b, b.joinCh, subscriber{ch: ch, locale: locale}) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	send(b, b.leaveCh, ch)
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	resp := make(chan int, 1)
	if !send(b, b.countCh, resp) {
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to every client.
func (b *Broker) Publish(ev Event) {
	send(b, b.eventCh, ev)
}

// Notify streams a content change to the clients following its locale and
// schedules a throttled "feed.updated".
func (b *Broker) Notify(c models.Change) {
	send(b, b.changeCh, c)
}

// ServeHTTP streams events to one client (GET /api/events[?locale=xx]). Idle
// streams get a comment frame every keep-alive interval so proxies keep them open.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	ch := b.Subscribe(r.URL.Query().Get("locale"))
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(b.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
