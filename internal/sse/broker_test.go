package sse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

// next reads one message or fails after a second.
func next(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

// siteUpdate decodes the data line of a site.updated message.
func siteUpdate(t *testing.T, msg string) SiteUpdate {
	t.Helper()
	if !strings.HasPrefix(msg, "event: "+EventSiteUpdated+"\n") {
		t.Fatalf("message = %q, want %s", msg, EventSiteUpdated)
	}
	data := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(msg, "\n", 3)[1], "data: "))
	var u SiteUpdate
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return u
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if n := b.Clients(); n != 0 {
		t.Fatalf("Clients = %d, want 0", n)
	}
	ch := b.Subscribe()
	if n := b.Clients(); n != 1 {
		t.Fatalf("Clients = %d, want 1", n)
	}
	b.Unsubscribe(ch)
	if n := b.Clients(); n != 0 {
		t.Fatalf("Clients after unsubscribe = %d, want 0", n)
	}
}

func TestDocumentEventDelivered(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent(KindBuilt, "a", "/a")
	msg := next(t, ch)
	if !strings.Contains(msg, "event: document.built") || !strings.Contains(msg, `"key":"a","url":"/a"`) {
		t.Errorf("message = %q", msg)
	}

	b.PublishDocumentEvent(KindFailed, "b", "")
	if msg := next(t, ch); msg != "event: document.failed\ndata: {\"key\":\"b\"}\n\n" {
		t.Errorf("message = %q", msg)
	}
}

func TestBurstCoalescesIntoOneSiteUpdate(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent(KindBuilt, "b", "/b")
	b.PublishDocumentEvent(KindBuilt, "a", "/a")
	b.PublishDocumentEvent(KindBuilt, "a", "/a")
	b.PublishDocumentEvent(KindRemoved, "gone", "")
	b.PublishDocumentEvent(KindFailed, "bad", "")

	for i := 0; i < 5; i++ {
		if msg := next(t, ch); !strings.HasPrefix(msg, "event: document.") {
			t.Fatalf("message %d = %q, want a document event", i, msg)
		}
	}
	got := siteUpdate(t, next(t, ch))
	want := SiteUpdate{URLs: []string{"/a", "/b"}, Removed: []string{"gone"}, Failed: []string{"bad"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("site update = %+v, want %+v", got, want)
	}

	select {
	case msg := <-ch:
		t.Errorf("unexpected message %q", msg)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestLaterBuildClearsFailure(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent(KindFailed, "a", "")
	b.PublishDocumentEvent(KindBuilt, "a", "/a")
	next(t, ch)
	next(t, ch)

	got := siteUpdate(t, next(t, ch))
	if len(got.Failed) != 0 || !reflect.DeepEqual(got.URLs, []string{"/a"}) {
		t.Errorf("site update = %+v", got)
	}
}

func TestNewWindowAfterFlush(t *testing.T) {
	b := NewBroker(50 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent(KindBuilt, "a", "/a")
	next(t, ch)
	if u := siteUpdate(t, next(t, ch)); !reflect.DeepEqual(u.URLs, []string{"/a"}) {
		t.Fatalf("first update = %+v", u)
	}

	b.PublishDocumentEvent(KindBuilt, "b", "/b")
	next(t, ch)
	if u := siteUpdate(t, next(t, ch)); !reflect.DeepEqual(u.URLs, []string{"/b"}) {
		t.Errorf("second update = %+v, want only /b", u)
	}
}

func TestUnknownKindIgnored(t *testing.T) {
	b := NewBroker(50 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("renamed", "a", "/a")
	select {
	case msg := <-ch:
		t.Errorf("unexpected message %q", msg)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler did not subscribe")
		}
		time.Sleep(10 * time.Millisecond)
	}

	b.PublishDocumentEvent(KindBuilt, "x", "/x")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if body := w.Body.String(); !strings.Contains(body, "event: document.built") {
		t.Errorf("body = %q, missing document.built", body)
	}

	deadline = time.Now().Add(time.Second)
	for b.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// buffer holds 64
	for i := 0; i < 300; i++ {
		b.PublishDocumentEvent(KindBuilt, "a", "/a")
	}
	if n := b.Clients(); n != 1 {
		t.Errorf("Clients = %d, want 1", n)
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := NewBroker(time.Hour)
	ch := b.Subscribe()
	b.PublishDocumentEvent(KindBuilt, "a", "/a")
	b.Close()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if n := b.Clients(); n != 0 {
					t.Errorf("Clients after Close = %d, want 0", n)
				}
				b.PublishDocumentEvent(KindBuilt, "x", "/x")
				b.Close()
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed")
		}
	}
}
