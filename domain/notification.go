package domain

import "time"

const (
	// NotificationTypeFollow expresses that someone started following the recipient.
	NotificationTypeFollow = "follow"
	// NotificationTypeLike expresses that someone liked one of the recipient's posts.
	NotificationTypeLike = "like"
)

// Notification tells a user that something happened that concerns them.
// Notifications are only ever created as a side effect of another action
// (being followed, having a post liked), never directly through the API.
type Notification struct {
	ID     int    `json:"id"`
	Type   string `json:"type" gorm:"notNull"`
	Read   bool   `json:"read" gorm:"notNull;default:false"`
	FromID int    `json:"-" gorm:"notNull;index"`
	From   User   `json:"from"`
	ToID   int    `json:"-" gorm:"notNull;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationService is a set of methods to work with the Notification model.
// There is no Create here on purpose: notifications come into existence inside
// the follow and like toggles.
type NotificationService interface {
	// ByRecipient returns the user's notifications, newest first, and marks
	// the returned ones as read.
	ByRecipient(userID int) ([]Notification, error)
	DeleteByRecipient(userID int) error
}
