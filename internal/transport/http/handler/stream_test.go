package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iams-api/internal/application/notification"
	"github.com/iams-api/internal/domain"
	"github.com/iams-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamRecorder is a ResponseWriter safe to read while the handler writes.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	buf    bytes.Buffer
}

func newStreamRecorder() *streamRecorder { return &streamRecorder{header: http.Header{}} }

func (s *streamRecorder) Header() http.Header { return s.header }

func (s *streamRecorder) WriteHeader(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code == 0 {
		s.code = code
	}
}

func (s *streamRecorder) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code == 0 {
		s.code = http.StatusOK
	}
	return s.buf.Write(p)
}

func (s *streamRecorder) Flush() {}

func (s *streamRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *streamRecorder) status() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

func startStream(t *testing.T, h http.Handler, r *http.Request) (*streamRecorder, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(r.Context())
	rec := newStreamRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(rec, r.WithContext(ctx))
	}()
	return rec, cancel, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not return")
	}
}

func TestStream_LifecycleAndEvents(t *testing.T) {
	p := newTestJWTProvider(t)
	reg := notification.NewRegistry()
	svc := notification.NewService(notification.ServiceDeps{Registry: reg})
	h := NewNotificationHandler(svc, 20*time.Millisecond)

	r := bearerReq(t, p, http.MethodGet, "/api/notifications/stream", "u1", domain.RoleUser, nil)
	rec, cancel, done := startStream(t, middleware.Auth(p)(http.HandlerFunc(h.Stream)), r)
	defer cancel()

	require.Eventually(t, func() bool { return reg.Len() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "event: connected\ndata: ")
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, http.StatusOK, rec.status())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	require.True(t, reg.Publish("u1", domain.Notification{NotificationID: "n1", UserID: "u1", Title: "first"}))
	require.True(t, reg.Publish("u1", domain.Notification{NotificationID: "n2", UserID: "u1", Title: "second"}))
	assert.False(t, reg.Publish("u2", domain.Notification{NotificationID: "x", UserID: "u2"}))

	require.Eventually(t, func() bool {
		b := rec.body()
		i1 := strings.Index(b, `"id":"n1"`)
		i2 := strings.Index(b, `"id":"n2"`)
		return i1 >= 0 && i2 > i1
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, rec.body(), "event: notification\ndata: {")
	assert.NotContains(t, rec.body(), `"id":"x"`)

	require.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "event: heartbeat\n")
	}, time.Second, 5*time.Millisecond)

	cancel()
	waitDone(t, done)
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.Publish("u1", domain.Notification{NotificationID: "n3"}))
}

func TestStream_QueryTokenAccepted(t *testing.T) {
	p := newTestJWTProvider(t)
	reg := notification.NewRegistry()
	h := NewNotificationHandler(notification.NewService(notification.ServiceDeps{Registry: reg}), time.Minute)

	token, err := p.Sign("u1", testTenant, domain.RoleUser)
	require.NoError(t, err)
	r, err := http.NewRequest(http.MethodGet, "/api/notifications/stream?access_token="+token, nil)
	require.NoError(t, err)

	rec, cancel, done := startStream(t, middleware.AuthWithQueryToken(p)(http.HandlerFunc(h.Stream)), r)
	require.Eventually(t, func() bool { return strings.Contains(rec.body(), `"userId":"u1"`) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, reg.Len())

	cancel()
	waitDone(t, done)
	assert.Equal(t, 0, reg.Len())
}

func TestStream_SecondConnectionReplacesFirst(t *testing.T) {
	p := newTestJWTProvider(t)
	reg := notification.NewRegistry()
	h := NewNotificationHandler(notification.NewService(notification.ServiceDeps{Registry: reg}), time.Minute)
	handler := middleware.Auth(p)(http.HandlerFunc(h.Stream))

	first, cancelFirst, doneFirst := startStream(t, handler,
		bearerReq(t, p, http.MethodGet, "/api/notifications/stream", "u1", domain.RoleUser, nil))
	require.Eventually(t, func() bool { return strings.Contains(first.body(), "event: connected") }, time.Second, 5*time.Millisecond)

	second, cancelSecond, doneSecond := startStream(t, handler,
		bearerReq(t, p, http.MethodGet, "/api/notifications/stream", "u1", domain.RoleUser, nil))
	require.Eventually(t, func() bool { return strings.Contains(second.body(), "event: connected") }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, reg.Len())

	cancelFirst()
	waitDone(t, doneFirst)
	assert.Equal(t, 1, reg.Len(), "closing the replaced stream must keep the newer one registered")

	require.True(t, reg.Publish("u1", domain.Notification{NotificationID: "n1"}))
	require.Eventually(t, func() bool { return strings.Contains(second.body(), `"id":"n1"`) }, time.Second, 5*time.Millisecond)
	assert.NotContains(t, first.body(), `"id":"n1"`)

	cancelSecond()
	waitDone(t, doneSecond)
	assert.Equal(t, 0, reg.Len())
}

func TestStream_MissingClaims(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationSvc{}, time.Second)
	rec := newStreamRecorder()
	r, err := http.NewRequest(http.MethodGet, "/api/notifications/stream", nil)
	require.NoError(t, err)
	h.Stream(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.status())
}
