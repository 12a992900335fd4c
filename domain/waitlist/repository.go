package waitlist

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

import (
	"context"

	"github.com/akeren/lingo-site/internal/models"
	apperrors "github.com/akeren/lingo-site/pkg/errors"
	"gorm.io/gorm"
)

type WaitlistRepository interface {
	// CreateSignup inserts a new signup row. Rows are never updated or deleted.
	CreateSignup(ctx context.Context, signup *models.WaitlistSignup) (*models.WaitlistSignup, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) CreateSignup(ctx context.Context, signup *models.WaitlistSignup) (*models.WaitlistSignup, error) {
	if err := wr.db.WithContext(ctx).Create(signup).Error; err != nil {
		if apperrors.IsDuplicateKeyError(err) {
			return nil, apperrors.NewConflictError("waitlist signup already exists", err)
		}
		return nil, apperrors.NewDatabaseError("unable to create waitlist signup", err)
	}

	return signup, nil
}
