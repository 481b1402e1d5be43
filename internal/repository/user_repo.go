package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/models"
)

// UserRepository defines persistence operations for users and their profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateWithProfile(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates a GORM-backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return r.ensureProfile(ctx, user)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return models.User{}, err
	}

	return r.ensureProfile(ctx, user)
}

// ensureProfile backfills a default student profile for users created outside the
// registration path, so every read returns a user with a role.
func (r *userRepository) ensureProfile(ctx context.Context, user models.User) (models.User, error) {
	if user.Profile.ID != 0 {
		return user, nil
	}

	profile := models.Profile{UserID: user.ID, Role: models.RoleStudent}
	if err := r.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return models.User{}, err
	}
	user.Profile = profile

	return user, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// CreateWithProfile persists the user and its profile in one transaction so a failure
// between the two inserts leaves no orphaned user behind.
func (r *userRepository) CreateWithProfile(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Profile").Save(user).Error
}

func (r *userRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash).Error
}
