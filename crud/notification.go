package crud

import (
	"gorm.io/gorm"

	"flockApp/domain"
)

// NotificationService manages Notifications. Creation is not part of its
// surface: notifications are written by the follow and like toggles, inside
// the same transaction as the edge they announce.
// It implements the domain.NotificationService interface.
type NotificationService struct {
	notificationGorm
}

type notificationGorm struct {
	db *gorm.DB
}

// NewNotificationService returns an instance of NotificationService.
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		notificationGorm{
			db: db,
		},
	}
}

var _ domain.NotificationService = &NotificationService{}

// ByRecipient returns the user's notifications, newest first, with the
// sending user preloaded. Fetching marks the returned notifications as read.
func (ng *notificationGorm) ByRecipient(userID int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := ng.db.
		Preload("From").
		Where("to_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	err = ng.db.Model(&domain.Notification{}).
		Where("to_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// DeleteByRecipient permanently deletes all of the user's notifications.
func (ng *notificationGorm) DeleteByRecipient(userID int) error {
	return ng.db.Where("to_id = ?", userID).Delete(&domain.Notification{}).Error
}
