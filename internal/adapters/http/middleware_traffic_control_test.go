package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealdesk/diligence-assistant/internal/config"
)

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	handler := newTestDeps().handler(config.Config{
		RateLimitRPS:   1,
		RateLimitBurst: 1,
	})

	req1 := httptest.NewRequest(http.MethodGet, "/v1/uploads", nil)
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/v1/uploads", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("healthz should bypass the rate limit, got %d", health.Code)
	}
}

// blockingHandler holds each request until release is closed.
type blockingHandler struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingHandler() *blockingHandler {
	return &blockingHandler{entered: make(chan struct{}, 4), release: make(chan struct{})}
}

func (h *blockingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.entered <- struct{}{}
	<-h.release
	w.WriteHeader(http.StatusNoContent)
}

// occupy starts a request that holds the only slot and waits until it runs.
func occupy(t *testing.T, handler http.Handler, blocker *blockingHandler) <-chan int {
	t.Helper()
	done := make(chan int, 1)
	go func() {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/chat", nil))
		done <- res.Code
	}()
	select {
	case <-blocker.entered:
	case <-time.After(time.Second):
		t.Fatalf("first request never started")
	}
	return done
}

func TestBackpressureRejectsWhenSlotNeverFrees(t *testing.T) {
	blocker := newBlockingHandler()
	handler := backpressureMiddleware(blocker, 1, 20*time.Millisecond)
	done := occupy(t, handler, blocker)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/chat", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(bytes.NewReader(res.Body.Bytes())).Decode(&body); err != nil {
		t.Fatalf("decode overload response: %v", err)
	}
	if body["detail"] != "server is overloaded, retry later" {
		t.Fatalf("unexpected detail %q", body["detail"])
	}

	close(blocker.release)
	if code := <-done; code != http.StatusNoContent {
		t.Fatalf("first request expected 204, got %d", code)
	}
}

func TestBackpressureAdmitsRequestWhenSlotFreesInTime(t *testing.T) {
	blocker := newBlockingHandler()
	handler := backpressureMiddleware(blocker, 1, time.Second)
	done := occupy(t, handler, blocker)

	second := make(chan int, 1)
	go func() {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/chat", nil))
		second <- res.Code
	}()

	time.Sleep(10 * time.Millisecond)
	close(blocker.release)

	if code := <-done; code != http.StatusNoContent {
		t.Fatalf("first request expected 204, got %d", code)
	}
	select {
	case code := <-second:
		if code != http.StatusNoContent {
			t.Fatalf("queued request expected 204, got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("queued request was never admitted")
	}
}

func TestBackpressureDropsCancelledWaiters(t *testing.T) {
	blocker := newBlockingHandler()
	handler := backpressureMiddleware(blocker, 1, time.Second)
	done := occupy(t, handler, blocker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/chat", nil).WithContext(ctx))
	if res.Body.Len() != 0 {
		t.Fatalf("cancelled waiter should not get a body, got %q", res.Body.String())
	}

	close(blocker.release)
	<-done
}
