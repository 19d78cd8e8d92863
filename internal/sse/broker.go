// Package sse streams build notifications to live-reload clients.
//
// Every document change is sent as a document.<kind> event as soon as it is
// published. Changes are also collected for a window that opens with the
// first change. When the window closes, one site.updated event lists every
// URL built and every key removed or failed in it. A full build therefore
// reaches clients as a single site.updated.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"
)

// Document event kinds.
const (
	KindBuilt   = "built"
	KindRemoved = "removed"
	KindFailed  = "failed"
)

// EventSiteUpdated names the coalesced event.
const EventSiteUpdated = "site.updated"

// DocumentEvent is the payload of a document.<kind> event.
type DocumentEvent struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// SiteUpdate is the payload of a site.updated event. Slices are sorted and
// never nil.
type SiteUpdate struct {
	URLs    []string `json:"urls"`
	Removed []string `json:"removed"`
	Failed  []string `json:"failed"`
}

type change struct {
	kind string
	DocumentEvent
}

// batch accumulates the changes of one window.
type batch struct {
	urls    map[string]struct{}
	removed map[string]struct{}
	failed  map[string]struct{}
}

func newBatch() *batch {
	return &batch{
		urls:    map[string]struct{}{},
		removed: map[string]struct{}{},
		failed:  map[string]struct{}{},
	}
}

func (b *batch) add(c change) {
	switch c.kind {
	case KindBuilt:
		if c.URL != "" {
			b.urls[c.URL] = struct{}{}
		}
		delete(b.failed, c.Key)
		delete(b.removed, c.Key)
	case KindRemoved:
		b.removed[c.Key] = struct{}{}
	case KindFailed:
		b.failed[c.Key] = struct{}{}
	}
}

func (b *batch) update() SiteUpdate {
	return SiteUpdate{URLs: sorted(b.urls), Removed: sorted(b.removed), Failed: sorted(b.failed)}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Broker fans build notifications out to SSE clients. A single goroutine
// owns the client set and the pending batch.
type Broker struct {
	window time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	changeCh      chan change
	countCh       chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that coalesces changes over window.
func NewBroker(window time.Duration) *Broker {
	if window <= 0 {
		window = 2 * time.Second
	}
	b := &Broker{
		window:        window,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		changeCh:      make(chan change, 256),
		countCh:       make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

// frame encodes one SSE message.
func frame(name string, data any) []byte {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", name, payload))
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	send := func(msg []byte) {
		if msg == nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// slow client, drop
			}
		}
	}

	pending := newBatch()
	var timer *time.Timer
	var flush <-chan time.Time

	for {
		select {
		case <-b.stopCh:
			if timer != nil {
				timer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case c := <-b.changeCh:
			send(frame("document."+c.kind, c.DocumentEvent))
			pending.add(c)
			if flush == nil {
				timer = time.NewTimer(b.window)
				flush = timer.C
			}

		case <-flush:
			send(frame(EventSiteUpdated, pending.update()))
			pending = newBatch()
			timer, flush = nil, nil

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel. A pending batch is
// discarded.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The channel is closed by Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// Clients returns the number of connected clients.
func (b *Broker) Clients() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// PublishDocumentEvent sends a document.<kind> event and adds the change to
// the next site.updated. Unknown kinds are ignored.
func (b *Broker) PublishDocumentEvent(kind, key, url string) {
	switch kind {
	case KindBuilt, KindRemoved, KindFailed:
	default:
		return
	}
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- change{kind: kind, DocumentEvent: DocumentEvent{Key: key, URL: url}}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until the request ends.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
