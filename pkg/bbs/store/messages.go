package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/marmos91/openbbs/pkg/bbs/models"
)

// ============================================
// PRIVATE MESSAGE OPERATIONS
// ============================================

func (s *GORMStore) SendMessage(ctx context.Context, sender, receiver, body string) (bool, error) {
	sender = models.NormalizeUsername(sender)
	receiver = models.NormalizeUsername(receiver)

	delivered := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := userExists(tx, receiver)
		if err != nil || !exists {
			return err
		}
		msg := &models.PrivateMessage{
			Sender:   sender,
			Receiver: receiver,
			Body:     body,
			SentAt:   s.now(),
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		delivered = true
		return nil
	})
	return delivered, err
}

func (s *GORMStore) CountUnreadMessages(ctx context.Context, receiver string) (int64, error) {
	return countWhere[models.PrivateMessage](s.db, ctx, "receiver = ? AND read = ?", models.NormalizeUsername(receiver), false)
}

func (s *GORMStore) FetchInbox(ctx context.Context, receiver string) ([]models.PrivateMessage, error) {
	receiver = models.NormalizeUsername(receiver)

	messages := []models.PrivateMessage{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receiver = ?", receiver).
			Order("sent_at DESC, id DESC").
			Find(&messages).Error; err != nil {
			return err
		}
		return tx.Model(&models.PrivateMessage{}).
			Where("receiver = ? AND read = ?", receiver, false).
			Update("read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *GORMStore) PruneMessages(ctx context.Context, olderThan time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("read = ? AND sent_at <= ?", true, olderThan.UTC()).
		Delete(&models.PrivateMessage{})
	return result.RowsAffected, result.Error
}
