package waitlist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/internal/models"
	apperrors "github.com/akeren/lingo-site/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestWaitlistService_Join(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := NewMockWaitlistRepository(ctrl)
	logger := log.NewLoggerWithJSONOutput()
	service := NewWaitlistService(logger, mockRepo, ServiceOptions{Production: true})

	t.Run("stores normalized email with default source", func(t *testing.T) {
		mockRepo.EXPECT().
			CreateSignup(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, signup *models.WaitlistSignup) (*models.WaitlistSignup, error) {
				assert.Equal(t, "jane@example.com", signup.Email)
				assert.Equal(t, "landing", signup.Source)
				return signup, nil
			})

		result := service.Join(context.Background(), &JoinRequest{Email: "  Jane@Example.COM "})

		assert.True(t, result.OK)
		assert.Empty(t, result.Error)
	})

	t.Run("keeps caller source", func(t *testing.T) {
		mockRepo.EXPECT().
			CreateSignup(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, signup *models.WaitlistSignup) (*models.WaitlistSignup, error) {
				assert.Equal(t, "footer", signup.Source)
				return signup, nil
			})

		result := service.Join(context.Background(), &JoinRequest{Email: "jane@example.com", Source: " footer "})

		assert.True(t, result.OK)
	})

	t.Run("truncates long source", func(t *testing.T) {
		mockRepo.EXPECT().
			CreateSignup(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, signup *models.WaitlistSignup) (*models.WaitlistSignup, error) {
				assert.Len(t, signup.Source, maxSourceLength)
				return signup, nil
			})

		result := service.Join(context.Background(), &JoinRequest{Email: "jane@example.com", Source: strings.Repeat("s", 100)})

		assert.True(t, result.OK)
	})

	t.Run("invalid emails never reach the repository", func(t *testing.T) {
		for _, email := range []string{"", "   ", "not-an-email", "a@", "@example.com", strings.Repeat("a", 250) + "@example.com"} {
			result := service.Join(context.Background(), &JoinRequest{Email: email})

			assert.False(t, result.OK, email)
			assert.Equal(t, ErrorCodeInvalidEmail, result.Error, email)
		}
	})

	t.Run("nil request", func(t *testing.T) {
		result := service.Join(context.Background(), nil)

		assert.False(t, result.OK)
		assert.Equal(t, ErrorCodeInvalidEmail, result.Error)
	})

	t.Run("duplicate email still succeeds", func(t *testing.T) {
		mockRepo.EXPECT().
			CreateSignup(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.NewConflictError("waitlist signup already exists", nil))

		result := service.Join(context.Background(), &JoinRequest{Email: "jane@example.com"})

		assert.True(t, result.OK)
	})

	t.Run("storage failure is masked", func(t *testing.T) {
		mockRepo.EXPECT().
			CreateSignup(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.NewDatabaseError("database error", errors.New("connection reset")))

		result := service.Join(context.Background(), &JoinRequest{Email: "jane@example.com"})

		assert.True(t, result.OK)
		assert.Empty(t, result.Error)
	})
}

func TestWaitlistService_JoinWithoutDatabase(t *testing.T) {
	logger := log.NewLoggerWithJSONOutput()

	t.Run("production reports service unavailable", func(t *testing.T) {
		service := NewWaitlistService(logger, nil, ServiceOptions{Production: true})

		result := service.Join(context.Background(), &JoinRequest{Email: "jane@example.com"})

		assert.False(t, result.OK)
		assert.Equal(t, ErrorCodeServiceUnavailable, result.Error)
	})

	t.Run("development accepts without storing", func(t *testing.T) {
		service := NewWaitlistService(logger, nil, ServiceOptions{})

		result := service.Join(context.Background(), &JoinRequest{Email: "jane@example.com"})

		assert.True(t, result.OK)
	})

	t.Run("validation still applies", func(t *testing.T) {
		service := NewWaitlistService(logger, nil, ServiceOptions{})

		result := service.Join(context.Background(), &JoinRequest{Email: "nope"})

		assert.Equal(t, ErrorCodeInvalidEmail, result.Error)
	})
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "***", MaskEmail("@example.com"))
	assert.Equal(t, "***", MaskEmail("plain"))
}
