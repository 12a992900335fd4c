package router

import (
	"os"
	"strings"

	"github.com/akeren/lingo-site/pkg/utils"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultHSTSMaxAge   = 31536000

	// The blog pages are plain server-rendered HTML; analytics scripts and
	// beacons go through the first-party /ingest proxy, so 'self' covers them.
	defaultContentSecurityPolicy = "default-src 'self'; img-src 'self' data: https:; media-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; script-src 'self'; connect-src 'self'; frame-ancestors 'none'"
)

// httpSettings is the transport configuration read from the environment once,
// when the router is created.
type httpSettings struct {
	port           string
	ginMode        string
	trustedProxies []string
	allowedOrigins []string
	maxBodyBytes   int64
	metricsEnabled bool

	contentSecurityPolicy string
	hstsEnabled           bool
	hstsMaxAge            int
	hstsIncludeSubdomains bool
}

func loadHTTPSettings() httpSettings {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))

	return httpSettings{
		port:           utils.GetEnvTrimmedOrDefault("APP_PORT", "8080"),
		ginMode:        utils.GetEnvTrimmed("GIN_MODE"),
		trustedProxies: parseTrustedProxiesEnv(os.Getenv("TRUSTED_PROXIES")),
		allowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGIN")),
		maxBodyBytes:   int64(utils.GetEnvInt("MAX_REQUEST_BODY_BYTES", defaultMaxBodyBytes)),
		metricsEnabled: utils.GetEnvBool("METRICS_ENABLED", true),

		contentSecurityPolicy: utils.GetEnvTrimmedOrDefault("CONTENT_SECURITY_POLICY", defaultContentSecurityPolicy),
		// HSTS defaults on in production and can be forced either way.
		hstsEnabled:           utils.GetEnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod"),
		hstsMaxAge:            utils.GetEnvInt("HSTS_MAX_AGE", defaultHSTSMaxAge),
		hstsIncludeSubdomains: utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true),
	}
}

func parseTrustedProxiesEnv(v string) []string {
	s := strings.TrimSpace(v)
	if s == "*" {
		// Explicit escape hatch for local/dev.
		return []string{"0.0.0.0/0", "::/0"}
	}
	// Empty disables trusted proxies: ClientIP() will use RemoteAddr.
	return splitList(s)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s httpSettings) originAllowed(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
