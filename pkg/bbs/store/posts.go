package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/marmos91/openbbs/pkg/bbs/models"
)

// ============================================
// POST OPERATIONS
// ============================================

func (s *GORMStore) CreatePost(ctx context.Context, post *models.Post) (uint, error) {
	if strings.TrimSpace(post.Body) == "" {
		return 0, models.ErrEmptyPost
	}

	post.ID = 0
	post.CreatedAt = s.now()

	if post.ReplyTo == nil {
		if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
			return 0, err
		}
		return post.ID, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Post
		if err := tx.Where("id = ?", *post.ReplyTo).First(&parent).Error; err != nil {
			return convertNotFoundError(err, models.ErrPostNotFound)
		}

		// Threads are one level deep.
		root := parent
		if parent.ReplyTo != nil {
			root = models.Post{}
			if err := tx.Where("id = ?", *parent.ReplyTo).First(&root).Error; err != nil {
				return convertNotFoundError(err, models.ErrPostNotFound)
			}
		}

		rootID := root.ID
		post.ReplyTo = &rootID
		post.Board = root.Board
		return tx.Create(post).Error
	})
	if err != nil {
		return 0, err
	}
	return post.ID, nil
}

// DeletePost removes a post. Deleting a thread root removes its replies too.
func (s *GORMStore) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("id = ? OR reply_to = ?", id, id).Delete(&models.Post{}).Error
	})
}

func (s *GORMStore) CountPosts(ctx context.Context, since time.Time) (int64, error) {
	if since.IsZero() {
		return countWhere[models.Post](s.db, ctx, "")
	}
	return countWhere[models.Post](s.db, ctx, "created_at > ?", since.UTC())
}

func (s *GORMStore) ListThreadRoots(ctx context.Context, board string) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.db.WithContext(ctx).
		Where("board = ? AND reply_to IS NULL", board).
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *GORMStore) ListThread(ctx context.Context, rootID uint) ([]models.Post, error) {
	posts := []models.Post{}

	var root models.Post
	err := s.db.WithContext(ctx).Where("id = ? AND reply_to IS NULL", rootID).First(&root).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return posts, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Where("reply_to = ?", rootID).
		Order("id ASC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return append([]models.Post{root}, posts...), nil
}
