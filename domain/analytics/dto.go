package analytics

const (
	ErrorCodeInvalid = "invalid"

	proxyUnavailableMessage = "Analytics service unavailable"
)

type EventRequest struct {
	Event      string         `json:"event" binding:"required,max=128"`
	Properties map[string]any `json:"properties"`
	URL        string         `json:"url" binding:"omitempty,max=2048"`
	Referrer   string         `json:"referrer" binding:"omitempty,max=2048"`
	Timestamp  string         `json:"timestamp" binding:"omitempty,max=64"`
}

// WebVitalRequest mirrors the payload sent by the browser's web-vitals reporter.
// Value is a pointer so that a reading of zero passes the required check.
type WebVitalRequest struct {
	Name           string   `json:"name" binding:"required,oneof=CLS FCP FID INP LCP TTFB"`
	Value          *float64 `json:"value" binding:"required,gte=0"`
	Rating         string   `json:"rating" binding:"omitempty,oneof=good needs-improvement poor"`
	ID             string   `json:"id" binding:"omitempty,max=128"`
	NavigationType string   `json:"navigation_type" binding:"omitempty,max=32"`
	URL            string   `json:"url" binding:"omitempty,max=2048"`
}

type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
