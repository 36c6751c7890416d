package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/marmos91/openbbs/pkg/bbs/models"
)

// ============================================
// BAN OPERATIONS
// ============================================

func (s *GORMStore) CheckBanned(ctx context.Context, name, ip string) (string, bool, error) {
	name = models.NormalizeUsername(name)

	var ban models.Ban
	err := s.db.WithContext(ctx).
		Where("username = ? OR ip = ?", name, ip).
		Order("id ASC").
		First(&ban).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return ban.Reason, true, nil
}

func (s *GORMStore) Ban(ctx context.Context, reason string, name, ip *string) error {
	ban := &models.Ban{
		Username: normalizeOptional(name),
		IP:       trimOptional(ip),
		Reason:   reason,
	}
	if err := ban.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(ban).Error
}

func (s *GORMStore) Unban(ctx context.Context, name, ip *string) (int64, error) {
	name = normalizeOptional(name)
	ip = trimOptional(ip)

	var (
		clauses []string
		args    []any
	)
	if name != nil {
		clauses = append(clauses, "username = ?")
		args = append(args, *name)
	}
	if ip != nil {
		clauses = append(clauses, "ip = ?")
		args = append(args, *ip)
	}
	if len(clauses) == 0 {
		return 0, models.ErrInvalidBan
	}

	result := s.db.WithContext(ctx).Where(strings.Join(clauses, " OR "), args...).Delete(&models.Ban{})
	return result.RowsAffected, result.Error
}

func (s *GORMStore) ListBans(ctx context.Context) ([]*models.Ban, error) {
	return listOrdered[models.Ban](s.db, ctx, "id ASC")
}

func normalizeOptional(name *string) *string {
	if name == nil {
		return nil
	}
	n := models.NormalizeUsername(*name)
	if n == "" {
		return nil
	}
	return &n
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
