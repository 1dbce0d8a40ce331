package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/folio/internal/models"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe("")
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "index.synced", Data: map[string]int{"indexed": 3}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: index.synced") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"indexed":3`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestNotify_FeedThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	b.Notify(models.Change{Op: models.ChangeSaved, Kind: models.TypePost, Locale: "en", Slug: "a"})
	b.Notify(models.Change{Op: models.ChangeDeleted, Kind: models.TypePage, Locale: "en", Slug: "b"})

	time.Sleep(50 * time.Millisecond)
	var feed, saved, deleted int
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			switch {
			case strings.Contains(s, "event: feed.updated"):
				feed++
			case strings.Contains(s, "event: content.saved"):
				saved++
			case strings.Contains(s, "event: content.deleted"):
				deleted++
			}
		default:
			break loop
		}
	}

	if saved != 1 || deleted != 1 {
		t.Errorf("change events = %d saved, %d deleted, want 1 each", saved, deleted)
	}
	if feed != 1 {
		t.Errorf("feed events = %d, want 1 (throttled)", feed)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
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

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Notify(models.Change{Op: models.ChangeSaved, Kind: models.TypePost, Slug: "x"})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: content.saved") || !strings.Contains(body, `"slug":"x"`) {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	for i := 0; i < clientBuffer+6; i++ {
		b.Publish(Event{Type: "test", Data: i})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe("")
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	b.Publish(Event{Type: "ignored"})
	b.Notify(models.Change{Op: models.ChangeSaved})
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount after close = %d", n)
	}
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestNotify_LocaleFilter(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	de := b.Subscribe("de")
	defer b.Unsubscribe(de)
	all := b.Subscribe("")
	defer b.Unsubscribe(all)

	b.Notify(models.Change{Op: models.ChangeSaved, Kind: models.TypePost, Locale: "en", Slug: "en-only"})
	b.Notify(models.Change{Op: models.ChangeSaved, Kind: models.TypePost, Locale: "de", Slug: "de-post"})
	b.Notify(models.Change{Op: models.ChangeDeleted, Kind: models.TypePost, Slug: "legacy"})
	time.Sleep(50 * time.Millisecond)

	got := strings.Join(drain(de), "")
	if strings.Contains(got, "en-only") {
		t.Errorf("de subscriber received an en change: %q", got)
	}
	if !strings.Contains(got, "de-post") || !strings.Contains(got, "legacy") {
		t.Errorf("de subscriber missed its changes: %q", got)
	}
	if !strings.Contains(got, "event: feed.updated") {
		t.Errorf("feed.updated should reach every subscriber: %q", got)
	}

	if n := strings.Count(strings.Join(drain(all), ""), "event: content."); n != 3 {
		t.Errorf("unfiltered subscriber got %d content events, want 3", n)
	}
}

func TestSSEHandler_RetryAndKeepAlive(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	b.SetKeepAlive(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events?locale=en", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("stream should start with a retry hint: %q", body)
	}
	if !strings.Contains(body, ": keep-alive\n\n") {
		t.Errorf("idle stream should carry keep-alive comments: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
}
