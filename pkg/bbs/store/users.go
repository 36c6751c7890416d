package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marmos91/openbbs/pkg/bbs/credential"
	"github.com/marmos91/openbbs/pkg/bbs/models"
)

// ============================================
// USER OPERATIONS
// ============================================

func (s *GORMStore) CreateUser(ctx context.Context, name, password string) (models.Role, error) {
	name = models.NormalizeUsername(name)
	if name == "" || name == models.NormalizeUsername(models.AnonymousName) {
		return "", models.ErrInvalidUsername
	}

	// Derivation is slow; do it before taking the write transaction.
	verifier, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	salt, digest := verifier.Encode()

	role := models.RoleMember
	if s.isOperator(name) {
		role = models.RoleOperator
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     name,
		Role:         role,
		PasswordHash: digest,
		Salt:         salt,
		Iterations:   verifier.Iterations,
		LastLogin:    now,
		CreatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.ErrDuplicateUser
		}
		return tx.Create(user).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return "", models.ErrDuplicateUser
		}
		return "", err
	}

	return role, nil
}

func (s *GORMStore) Login(ctx context.Context, name, password string) (models.Role, time.Time, error) {
	name = models.NormalizeUsername(name)

	user, err := getByField[models.User](s.db, ctx, "username", name, models.ErrInvalidCredentials)
	if err != nil {
		return "", time.Time{}, err
	}

	verifier, err := credential.DecodeVerifier(user.Salt, user.PasswordHash, user.Iterations)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("corrupt verifier for %s: %w", name, err)
	}
	if !s.hasher.Verify(password, verifier) {
		return "", time.Time{}, models.ErrInvalidCredentials
	}

	var (
		role     models.Role
		previous time.Time
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.User
		if err := tx.Where("id = ?", user.ID).First(&current).Error; err != nil {
			return convertNotFoundError(err, models.ErrInvalidCredentials)
		}

		role = current.Role
		previous = current.LastLogin

		updates := map[string]any{"last_login": s.now()}
		if role == models.RoleMember && s.isOperator(name) {
			role = models.RoleOperator
			updates["role"] = role
		}
		return tx.Model(&current).Updates(updates).Error
	})
	if err != nil {
		return "", time.Time{}, err
	}

	return role, previous, nil
}

func (s *GORMStore) GetUser(ctx context.Context, name string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "username", models.NormalizeUsername(name), models.ErrUserNotFound)
}

func (s *GORMStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return listOrdered[models.User](s.db, ctx, "username ASC")
}

func (s *GORMStore) CountUsers(ctx context.Context) (int64, error) {
	return countWhere[models.User](s.db, ctx, "")
}

func (s *GORMStore) SetRole(ctx context.Context, name string, role models.Role) error {
	if !role.Persistable() {
		return models.ErrInvalidRole
	}
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", models.NormalizeUsername(name)).
		Update("role", role).Error
}

// userExists reports whether name is registered, within tx.
func userExists(tx *gorm.DB, name string) (bool, error) {
	var user models.User
	err := tx.Select("id").Where("username = ?", name).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
