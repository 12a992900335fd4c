package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/lingo-site/pkg/ratelimit"
)

type countingLimiter struct {
	name  string
	calls int
}

func (l *countingLimiter) GetLimitDetails() (int, time.Duration) { return 100, time.Minute }

func (l *countingLimiter) IsLimited(context.Context, string) (bool, error) {
	l.calls++
	return false, nil
}

func (l *countingLimiter) Close() error { return nil }

func TestControllerFullPath(t *testing.T) {
	root := NewRESTController("Root", "/", nil)
	blog := NewVersionedRESTController("Blog", "v1", "/blog/", nil)

	cases := []struct {
		controller *RESTController
		relative   string
		want       string
	}{
		{root, "health", "/health"},
		{root, "", "/"},
		{blog, "", "/v1/blog"},
		{blog, "posts/:slug", "/v1/blog/posts/:slug"},
		{blog, "/tags/", "/v1/blog/tags"},
	}

	for _, tc := range cases {
		if got := tc.controller.fullPath(tc.relative); got != tc.want {
			t.Errorf("fullPath(%q) on %s = %q, want %q", tc.relative, tc.controller.mountPoint, got, tc.want)
		}
	}
}

func TestRegister_DuplicateRoutePanics(t *testing.T) {
	rs := newTestRouterService(t)
	handler := func(*RequestContext) *ServiceResult { return OKResult(nil, "ok") }

	rs.MountController(NewRESTController("First", "/dup", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "", handler)
	}))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate route")
		}
	}()

	rs.MountController(NewRESTController("Second", "/dup", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "", handler)
	}))
}

func TestResolveLimiter_Precedence(t *testing.T) {
	rs := newTestRouterService(t)
	handlerLimiter := &countingLimiter{name: "handler"}
	controllerLimiter := &countingLimiter{name: "controller"}
	handler := func(*RequestContext) *ServiceResult { return OKResult(nil, "ok") }

	rs.MountController(NewRESTController("Limited", "/limited", func(rs *RouterService, c *RESTController) {
		c.RateLimitWith(rs, controllerLimiter)
		rs.AddGetHandler(c, handlerLimiter, "own", handler)
		rs.AddGetHandler(c, nil, "inherited", handler)
		rs.AddGetHandler(c, ratelimit.Unlimited{}, "free", handler)
	}))

	for _, p := range []string{"/limited/own", "/limited/inherited", "/limited/free"} {
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", p, w.Code)
		}
	}

	if handlerLimiter.calls != 1 {
		t.Fatalf("expected handler limiter to see 1 request, got %d", handlerLimiter.calls)
	}
	if controllerLimiter.calls != 1 {
		t.Fatalf("expected controller limiter to see 1 request, got %d", controllerLimiter.calls)
	}
}

func TestHandlerReturningNil_Returns500(t *testing.T) {
	rs := newTestRouterService(t)
	rs.MountController(NewRESTController("Broken", "/broken", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "", func(*RequestContext) *ServiceResult { return nil })
	}))

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestLimitBodyWith_OverridesGlobalCap(t *testing.T) {
	t.Setenv("MAX_REQUEST_BODY_BYTES", "16")
	rs := newTestRouterService(t)
	handler := func(*RequestContext) *ServiceResult { return OKResult(nil, "ok") }

	rs.MountController(NewRESTController("Relay", "/relay", func(rs *RouterService, c *RESTController) {
		c.LimitBodyWith(rs, NoBodyLimit)
		rs.AddPostHandler(c, nil, "", handler)
	}))
	rs.MountController(NewRESTController("Small", "/small", func(rs *RouterService, c *RESTController) {
		c.LimitBodyWith(rs, 64)
		rs.AddPostHandler(c, nil, "", handler)
	}))
	rs.MountController(NewRESTController("Capped", "/capped", func(rs *RouterService, c *RESTController) {
		rs.AddPostHandler(c, nil, "", handler)
	}))

	cases := []struct {
		path string
		size int
		want int
	}{
		{"/relay", 4096, http.StatusOK},
		{"/small", 32, http.StatusOK},
		{"/small", 65, http.StatusRequestEntityTooLarge},
		{"/capped", 32, http.StatusRequestEntityTooLarge},
		{"/capped", 8, http.StatusOK},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		body := bytes.Repeat([]byte("x"), tc.size)
		rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, tc.path, bytes.NewReader(body)))
		if w.Code != tc.want {
			t.Errorf("POST %s with %d bytes: expected %d, got %d", tc.path, tc.size, tc.want, w.Code)
		}
	}
}

func TestLimitBodyWith_DuplicatePanics(t *testing.T) {
	rs := newTestRouterService(t)
	c := NewRESTController("Relay", "/relay", nil)
	c.LimitBodyWith(rs, NoBodyLimit)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on second body limit for the same mount point")
		}
	}()
	c.LimitBodyWith(rs, 128)
}
