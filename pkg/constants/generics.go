package constants

import "time"

// RFC 3339 date-time format string.
// Use this format for all date-time serialization and communication with external systems.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// Calendar date format used by blog frontmatter.
const DateFormat = "2006-01-02"

// Default rate limiting configuration
const (
	// DefaultRateLimitRequests is the default number of requests allowed per time window
	DefaultRateLimitRequests = 100
	// DefaultRateLimitWindow is the default time window for rate limiting
	DefaultRateLimitWindowMinutes = 1
)

// DefaultRateLimitWindow returns the default rate limit window duration
func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// Site content defaults
const (
	DefaultBlogContentDir  = "content/blog"
	DefaultMusicDir        = "public/music"
	DefaultMusicPublicPath = "/music"

	DefaultAnalyticsAPIHost    = "https://us.i.posthog.com"
	DefaultAnalyticsAssetsHost = "https://us-assets.i.posthog.com"
	DefaultAnalyticsTimeout    = 10 * time.Second

	// DefaultWaitlistSource tags signups that do not name their page or flow.
	DefaultWaitlistSource = "landing"
)
