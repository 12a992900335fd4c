package waitlist

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joinResponse struct {
	Code    int        `json:"code"`
	Data    JoinResult `json:"data"`
	Message string     `json:"message"`
}

func newTestRouter(t *testing.T, options ControllerOptions) *router.RouterService {
	t.Helper()
	t.Setenv("METRICS_ENABLED", "false")

	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})

	limiters := factory.NewDefaultRateLimiterFactory(nil, nil)
	for _, c := range NewWaitlistServiceFactory(nil, logger, limiters, options).CreateControllers() {
		rs.MountController(c)
	}

	return rs
}

func doJoin(t *testing.T, rs *router.RouterService, path, contentType, body string) (int, joinResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	var resp joinResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestJoinHandler(t *testing.T) {
	rs := newTestRouter(t, ControllerOptions{})

	t.Run("json body", func(t *testing.T) {
		code, resp := doJoin(t, rs, "/v1/waitlist", "application/json", `{"email":"jane@example.com"}`)

		assert.Equal(t, http.StatusOK, code)
		assert.True(t, resp.Data.OK)
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"email": {"jane@example.com"}, "source": {"hero"}}
		code, resp := doJoin(t, rs, "/v1/waitlist", "application/x-www-form-urlencoded", form.Encode())

		assert.Equal(t, http.StatusOK, code)
		assert.True(t, resp.Data.OK)
	})

	t.Run("invalid email", func(t *testing.T) {
		code, resp := doJoin(t, rs, "/v1/waitlist", "application/json", `{"email":"nope"}`)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, resp.Data.OK)
		assert.Equal(t, ErrorCodeInvalidEmail, resp.Data.Error)
	})

	t.Run("malformed json", func(t *testing.T) {
		code, resp := doJoin(t, rs, "/v1/waitlist", "application/json", `{"email":`)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, ErrorCodeInvalidEmail, resp.Data.Error)
	})
}

func TestJoinHandler_ProductionWithoutDatabase(t *testing.T) {
	rs := newTestRouter(t, ControllerOptions{Production: true})

	code, resp := doJoin(t, rs, "/v1/waitlist", "application/json", `{"email":"jane@example.com"}`)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, ErrorCodeServiceUnavailable, resp.Data.Error)
}

func TestTestJoinHandler(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rs := newTestRouter(t, ControllerOptions{})

		code, resp := doJoin(t, rs, "/api/test/waitlist", "application/json", `{"email":"jane@example.com"}`)

		assert.Equal(t, http.StatusNotFound, code)
		assert.False(t, resp.Data.OK)
		assert.Equal(t, ErrorCodeDisabled, resp.Data.Error)
	})

	t.Run("enabled", func(t *testing.T) {
		rs := newTestRouter(t, ControllerOptions{EnableTestRoutes: true})

		code, resp := doJoin(t, rs, "/api/test/waitlist", "application/json", `{"email":"e2e@example.com"}`)

		assert.Equal(t, http.StatusOK, code)
		assert.True(t, resp.Data.OK)
	})

	t.Run("malformed body", func(t *testing.T) {
		rs := newTestRouter(t, ControllerOptions{EnableTestRoutes: true})

		code, resp := doJoin(t, rs, "/api/test/waitlist", "application/json", `not json`)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, ErrorCodeInvalid, resp.Data.Error)
	})
}
