package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gharkharcha/internal/services"
)

type mockNotifier struct {
	mu         sync.Mutex
	fn         func(services.ChangeKind)
	registered chan struct{}
	cancelled  bool
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{registered: make(chan struct{})}
}

func (n *mockNotifier) OnChange(fn func(services.ChangeKind)) func() {
	n.mu.Lock()
	n.fn = fn
	n.mu.Unlock()
	close(n.registered)
	return func() {
		n.mu.Lock()
		n.cancelled = true
		n.mu.Unlock()
	}
}

func (n *mockNotifier) emit(kind services.ChangeKind) {
	n.mu.Lock()
	fn := n.fn
	n.mu.Unlock()
	fn(kind)
}

// streamRecorder adds CloseNotify to the recorder and signals every write.
type streamRecorder struct {
	*httptest.ResponseRecorder
	written chan struct{}
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ResponseRecorder: httptest.NewRecorder(), written: make(chan struct{}, 16)}
}

func (r *streamRecorder) CloseNotify() <-chan bool { return make(chan bool) }

func (r *streamRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseRecorder.Write(b)
	r.signal()
	return n, err
}

func (r *streamRecorder) WriteString(s string) (int, error) {
	n, err := r.ResponseRecorder.WriteString(s)
	r.signal()
	return n, err
}

func (r *streamRecorder) signal() {
	select {
	case r.written <- struct{}{}:
	default:
	}
}

func TestEventsHandler_Stream(t *testing.T) {
	t.Run("forwards change events until the client leaves", func(t *testing.T) {
		notifier := newMockNotifier()
		handler := NewEventsHandler(notifier)
		r := gin.New()
		r.GET("/events", handler.Stream)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
		rec := newStreamRecorder()

		done := make(chan struct{})
		go func() {
			r.ServeHTTP(rec, req)
			close(done)
		}()

		select {
		case <-notifier.registered:
		case <-time.After(2 * time.Second):
			t.Fatal("handler never subscribed")
		}
		notifier.emit(services.ChangeExpenses)

		select {
		case <-rec.written:
		case <-time.After(2 * time.Second):
			t.Fatal("event was never written")
		}
		cancel()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("stream did not end after the client left")
		}

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "event:change") || !strings.Contains(body, `"kind":"expenses"`) {
			t.Errorf("unexpected stream body %q", body)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
			t.Errorf("expected event stream content type, got %s", ct)
		}
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		if !notifier.cancelled {
			t.Error("expected the change listener to be removed")
		}
	})

	t.Run("sends keep-alive pings", func(t *testing.T) {
		notifier := newMockNotifier()
		handler := NewEventsHandler(notifier)
		handler.keepAlive = 10 * time.Millisecond
		r := gin.New()
		r.GET("/events", handler.Stream)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
		rec := newStreamRecorder()

		done := make(chan struct{})
		go func() {
			r.ServeHTTP(rec, req)
			close(done)
		}()

		select {
		case <-rec.written:
		case <-time.After(2 * time.Second):
			t.Fatal("no ping was written")
		}
		cancel()
		<-done

		if !strings.Contains(rec.Body.String(), "event:ping") {
			t.Errorf("expected a ping event, got %q", rec.Body.String())
		}
	})
}
