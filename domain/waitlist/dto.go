package waitlist

import (
	"github.com/akeren/lingo-site/internal/models"
)

// Result codes returned to the browser. Anything more specific would leak whether
// an address is already registered.
const (
	ErrorCodeInvalidEmail       = "invalid_email"
	ErrorCodeServiceUnavailable = "service_unavailable"
	ErrorCodeDisabled           = "disabled"
	ErrorCodeInvalid            = "invalid"
)

// JoinRequest is bound from either a JSON body or a submitted form.
type JoinRequest struct {
	Email  string `json:"email" form:"email"`
	Source string `json:"source" form:"source"`
}

type JoinResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func joined() *JoinResult {
	return &JoinResult{OK: true}
}

func failed(code string) *JoinResult {
	return &JoinResult{OK: false, Error: code}
}

func ToWaitlistSignupModel(email, source string) *models.WaitlistSignup {
	return &models.WaitlistSignup{
		Email:  email,
		Source: source,
	}
}
