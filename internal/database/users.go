package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"makelaardij/server/internal/models"
)

// UserRepo returns (nil, nil) from lookups that find no user
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", strings.TrimSpace(strings.ToLower(email)))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", strings.TrimSpace(username))
}

func (r *UserRepo) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.first(ctx, "verification_token = ?", token)
}

// GetByValidResetToken only returns users whose reset token has not expired at now
func (r *UserRepo) GetByValidResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.first(ctx, "reset_token = ? AND reset_token_expiry > ?", token, now)
}

func (r *UserRepo) first(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) MarkVerified(ctx context.Context, id uint) error {
	return r.update(ctx, id, map[string]any{
		"is_verified":        true,
		"verification_token": nil,
	})
}

func (r *UserRepo) SetVerificationToken(ctx context.Context, id uint, token string) error {
	return r.update(ctx, id, map[string]any{"verification_token": token})
}

func (r *UserRepo) SetResetToken(ctx context.Context, id uint, token string, expiry time.Time) error {
	return r.update(ctx, id, map[string]any{
		"reset_token":        token,
		"reset_token_expiry": expiry,
	})
}

// ResetPassword replaces the password, clears the reset token and revokes issued tokens
func (r *UserRepo) ResetPassword(ctx context.Context, id uint, passwordHash string) error {
	return r.update(ctx, id, map[string]any{
		"password_hash":      passwordHash,
		"reset_token":        nil,
		"reset_token_expiry": nil,
		"token_version":      gorm.Expr("token_version + 1"),
	})
}

// UpdatePassword replaces the password and revokes issued tokens
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.update(ctx, id, map[string]any{
		"password_hash": passwordHash,
		"token_version": gorm.Expr("token_version + 1"),
	})
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id uint, patch models.ProfilePatch) (*models.User, error) {
	var updated *models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		patch.Apply(&u)
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		updated = &u
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

func (r *UserRepo) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return r.update(ctx, id, map[string]any{"last_login": at})
}

func (r *UserRepo) GetTokenVersion(ctx context.Context, id uint) (int, error) {
	var version int
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Select("token_version").
		Scan(&version).Error
	if err != nil {
		return 0, fmt.Errorf("get token version: %w", err)
	}
	return version, nil
}

func (r *UserRepo) BumpTokenVersion(ctx context.Context, id uint) error {
	return r.update(ctx, id, map[string]any{"token_version": gorm.Expr("token_version + 1")})
}

func (r *UserRepo) update(ctx context.Context, id uint, columns map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update user %d: user not found", id)
	}
	return nil
}
