package waitlist

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/constants"
	"github.com/go-playground/validator/v10"
)

const maxSourceLength = 64

type WaitlistService interface {
	// Join records an email address on the waitlist. Failures are reported through
	// the result rather than an error so the handler can answer the browser directly.
	Join(ctx context.Context, req *JoinRequest) *JoinResult
}

type ServiceOptions struct {
	// Production rejects signups when no repository is configured instead of faking success.
	Production bool
	// DefaultSource is stored when the request carries no source.
	DefaultSource string
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	validate   *validator.Validate
	options    ServiceOptions
}

// NewWaitlistService accepts a nil repository for deployments without a database.
func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, options ServiceOptions) WaitlistService {
	if options.DefaultSource == "" {
		options.DefaultSource = constants.DefaultWaitlistSource
	}

	return &waitlistService{
		logger:     logger,
		repository: repository,
		validate:   validator.New(),
		options:    options,
	}
}

func (s *waitlistService) Join(ctx context.Context, req *JoinRequest) *JoinResult {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Warn("Join received empty request")
		return failed(ErrorCodeInvalidEmail)
	}

	email := NormalizeEmail(req.Email)
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		logger.Info("Rejected waitlist signup with invalid email")
		return failed(ErrorCodeInvalidEmail)
	}

	source := s.normalizeSource(req.Source)

	if s.repository == nil {
		if s.options.Production {
			logger.Error("Waitlist signup rejected, no database configured", "source", source)
			return failed(ErrorCodeServiceUnavailable)
		}

		logger.Info("Waitlist signup accepted without database", "email", MaskEmail(email), "source", source)
		return joined()
	}

	if _, err := s.repository.CreateSignup(ctx, ToWaitlistSignupModel(email, source)); err != nil {
		// Duplicates and storage failures look the same to the caller.
		logger.Warn("Waitlist signup not stored", "email", MaskEmail(email), "source", source, "error", err)
		return joined()
	}

	logger.Info("Waitlist signup stored", "email", MaskEmail(email), "source", source)
	return joined()
}

func (s *waitlistService) normalizeSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return s.options.DefaultSource
	}

	if utf8.RuneCountInString(source) > maxSourceLength {
		source = string([]rune(source)[:maxSourceLength])
	}

	return source
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaskEmail keeps the first character of the local part and the domain, e.g. j***@example.com.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}

	first, _ := utf8.DecodeRuneInString(email)
	return string(first) + "***" + email[at:]
}
