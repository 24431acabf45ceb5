// Package profilerepo stores user profiles in the users table.
package profilerepo

import (
	"context"
	"errors"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/user"
	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.ProfileRepository = (*GormProfileRepository)(nil)

type ProfileDTO struct {
	UID      string `gorm:"column:uid;primaryKey"`
	FullName string
	Email    string
	Role     string `gorm:"type:varchar(16);not null"`
}

func (ProfileDTO) TableName() string {
	return "users"
}

type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// Save inserts the profile or overwrites the stored one.
func (r *GormProfileRepository) Save(ctx context.Context, profile *user.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	dto := ProfileDTO{
		UID:      profile.UID().String(),
		FullName: profile.FullName(),
		Email:    profile.Email(),
		Role:     profile.Role().String(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&dto).Error
	if err != nil {
		return errs.NewStoreUnavailableError("users.save", err)
	}
	return nil
}

func (r *GormProfileRepository) Get(ctx context.Context, uid kernel.UserID) (*user.Profile, error) {
	if err := uid.Validate(); err != nil {
		return nil, err
	}

	var dto ProfileDTO
	if err := r.db.WithContext(ctx).First(&dto, "uid = ?", uid.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("uid", uid.String())
		}
		return nil, errs.NewStoreUnavailableError("users.get", err)
	}

	role, err := kernel.ParseRole(dto.Role)
	if err != nil {
		return nil, err
	}
	return user.NewProfile(kernel.UserID(dto.UID), dto.FullName, dto.Email, role)
}
