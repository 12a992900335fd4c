package analytics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const assetsPathPrefix = "/static/"

var (
	forwardedRequestHeaders = []string{
		"Content-Type",
		"Content-Encoding",
		"User-Agent",
		"Accept",
		"Accept-Language",
		"Origin",
		"Referer",
	}
	copiedResponseHeaders = []string{
		"Content-Type",
		"Cache-Control",
		"ETag",
		"Last-Modified",
	}
)

type ProxyConfig struct {
	APIHost    string
	AssetsHost string
	Timeout    time.Duration
}

// Proxy relays browser analytics traffic to the analytics vendor so that it is
// served from the site's own origin. It never retries.
type Proxy struct {
	logger     *log.Logger
	client     *http.Client
	apiHost    *url.URL
	assetsHost *url.URL
}

func NewProxy(logger *log.Logger, config ProxyConfig) (*Proxy, error) {
	apiHost, err := parseHost(config.APIHost)
	if err != nil {
		return nil, fmt.Errorf("invalid analytics api host: %w", err)
	}

	assetsHost, err := parseHost(config.AssetsHost)
	if err != nil {
		return nil, fmt.Errorf("invalid analytics assets host: %w", err)
	}

	var transport http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	if utils.IsTracingEnabled() {
		transport = otelhttp.NewTransport(transport)
	}

	return &Proxy{
		logger: logger,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
			// Redirects are relayed to the browser untouched.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		apiHost:    apiHost,
		assetsHost: assetsHost,
	}, nil
}

func parseHost(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}

// TargetURL maps a path below the proxy mount point to the upstream URL.
func (p *Proxy) TargetURL(path, rawQuery string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	host := p.apiHost
	if strings.HasPrefix(path, assetsPathPrefix) {
		host = p.assetsHost
	}

	target := *host
	target.Path = strings.TrimSuffix(host.Path, "/") + path
	target.RawPath = ""
	target.RawQuery = rawQuery

	return target.String()
}

// Forward relays one request upstream and streams the answer back.
func (p *Proxy) Forward(ctx context.Context, c *router.RequestContext, path string) {
	logger := log.GetLoggerInstanceFromContext(ctx, p.logger)
	target := p.TargetURL(path, c.Request.URL.RawQuery)

	var body io.Reader
	if c.Request.Body != nil && c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		body = c.Request.Body
	}

	req, err := http.NewRequestWithContext(ctx, c.Request.Method, target, body)
	if err != nil {
		logger.Error("Failed to build analytics proxy request", "target", target, "error", err)
		p.unavailable(c)
		return
	}
	if body != nil {
		req.ContentLength = c.Request.ContentLength
	}

	for _, name := range forwardedRequestHeaders {
		if value := c.GetHeader(name); value != "" {
			req.Header.Set(name, value)
		}
	}
	req.Header.Set("X-Forwarded-For", c.ClientIP())

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Warn("Analytics upstream unreachable", "target", target, "error", err)
		p.unavailable(c)
		return
	}
	defer resp.Body.Close()

	for _, name := range copiedResponseHeaders {
		if value := resp.Header.Get(name); value != "" {
			c.Header(name, value)
		}
	}

	c.Status(resp.StatusCode)
	c.Writer.WriteHeaderNow()
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		// Headers are already out, so the client just sees a truncated body.
		logger.Warn("Analytics proxy response interrupted", "target", target, "error", err)
	}
}

func (p *Proxy) unavailable(c *router.RequestContext) {
	c.JSON(http.StatusServiceUnavailable, router.ServiceUnavailableResult(proxyUnavailableMessage).ToJSON())
}
