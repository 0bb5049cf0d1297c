package repositories

import (
	"time"

	"github.com/diwanhq/murasalat/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	GetByRecipientID(recipientUserID string, page, limit int) ([]models.Notification, int64, error)
	GetUnreadCount(recipientUserID string) (int64, error)
	MarkAsRead(notificationID, recipientUserID string) error
	MarkAllAsRead(recipientUserID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) GetByRecipientID(recipientUserID string, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	r.db.Model(&models.Notification{}).Where("recipient_user_id = ?", recipientUserID).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Where("recipient_user_id = ?", recipientUserID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientUserID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("recipient_user_id = ? AND is_read = false", recipientUserID).Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsRead(notificationID, recipientUserID string) error {
	now := time.Now()
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_user_id = ?", notificationID, recipientUserID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientUserID string) error {
	now := time.Now()
	return r.db.Model(&models.Notification{}).
		Where("recipient_user_id = ? AND is_read = false", recipientUserID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
}
