package analytics

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProxyRouter(t *testing.T, config ProxyConfig) *router.RouterService {
	t.Helper()
	t.Setenv("METRICS_ENABLED", "false")

	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	rs.MountController(NewProxyController(logger, config))

	return rs
}

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
	Header http.Header
}

func TestProxy_RelaysUpstreamResponse(t *testing.T) {
	captured := make(chan capturedRequest, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured <- capturedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body), Header: r.Header.Clone()}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Internal", "secret")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	defer upstream.Close()

	rs := newProxyRouter(t, ProxyConfig{APIHost: upstream.URL, AssetsHost: upstream.URL, Timeout: time.Second})

	req := httptest.NewRequest(http.MethodPost, "/ingest/e/?ip=1&ver=1.2", strings.NewReader(`{"event":"pageview"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Cookie", "session=abc")
	req.RemoteAddr = "203.0.113.9:5555"

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, `{"status":1}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("X-Internal"))

	got := <-captured
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/e/", got.Path)
	assert.Equal(t, "ip=1&ver=1.2", got.Query)
	assert.Equal(t, `{"event":"pageview"}`, got.Body)
	assert.Equal(t, "test-agent", got.Header.Get("User-Agent"))
	assert.Equal(t, "203.0.113.9", got.Header.Get("X-Forwarded-For"))
	assert.Empty(t, got.Header.Get("Cookie"))
}

func TestProxy_RelaysErrorStatusUnchanged(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad payload"))
	}))
	defer upstream.Close()

	rs := newProxyRouter(t, ProxyConfig{APIHost: upstream.URL, AssetsHost: upstream.URL, Timeout: time.Second})

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ingest/decide/", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad payload", w.Body.String())
}

func TestProxy_StaticPathsUseAssetsHost(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("api"))
	}))
	defer api.Close()

	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/static/array.js", r.URL.Path)
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte("assets"))
	}))
	defer assets.Close()

	rs := newProxyRouter(t, ProxyConfig{APIHost: api.URL, AssetsHost: assets.URL, Timeout: time.Second})

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ingest/static/array.js", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "assets", w.Body.String())
	assert.Equal(t, "application/javascript", w.Header().Get("Content-Type"))
}

func TestProxy_NetworkFailureReturnsFixed503(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := upstream.URL
	upstream.Close()

	rs := newProxyRouter(t, ProxyConfig{APIHost: deadURL, AssetsHost: deadURL, Timeout: time.Second})

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ingest/e/", strings.NewReader("{}")))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"code":503,"data":null,"message":"Analytics service unavailable"}`, w.Body.String())
}

func TestProxy_TimeoutReturns503(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	rs := newProxyRouter(t, ProxyConfig{APIHost: upstream.URL, AssetsHost: upstream.URL, Timeout: 50 * time.Millisecond})

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ingest/decide/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, proxyUnavailableMessage, resp["message"])
}

func TestProxy_InvalidHostDisablesProxy(t *testing.T) {
	rs := newProxyRouter(t, ProxyConfig{APIHost: "not a url", AssetsHost: "https://assets.example.com", Timeout: time.Second})

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ingest/decide/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProxy_TargetURL(t *testing.T) {
	proxy, err := NewProxy(log.NewLoggerWithJSONOutput(), ProxyConfig{
		APIHost:    "https://us.i.posthog.com",
		AssetsHost: "https://us-assets.i.posthog.com/",
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://us.i.posthog.com/e/?v=1", proxy.TargetURL("/e/", "v=1"))
	assert.Equal(t, "https://us.i.posthog.com/decide", proxy.TargetURL("decide", ""))
	assert.Equal(t, "https://us-assets.i.posthog.com/static/array.js", proxy.TargetURL("/static/array.js", ""))
}

func TestProxy_ForwardRelaysErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	proxy, err := NewProxy(log.NewLoggerWithJSONOutput(), ProxyConfig{
		APIHost:    upstream.URL,
		AssetsHost: upstream.URL,
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ingest/decide/", nil)

	proxy.Forward(c.Request.Context(), c, "/decide/")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestProxy_BypassesGlobalRateLimit(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	rs.MountController(NewProxyController(logger, ProxyConfig{APIHost: upstream.URL, AssetsHost: upstream.URL, Timeout: time.Second}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ingest/e/", strings.NewReader("{}")))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestProxy_ForwardsBodiesAboveGlobalCap(t *testing.T) {
	t.Setenv("MAX_REQUEST_BODY_BYTES", "1024")

	received := make(chan []byte, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	rs := newProxyRouter(t, ProxyConfig{APIHost: upstream.URL, AssetsHost: upstream.URL, Timeout: 5 * time.Second})

	payload := bytes.Repeat([]byte("r"), 2<<20)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ingest/s/", bytes.NewReader(payload)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, payload, <-received)
}
