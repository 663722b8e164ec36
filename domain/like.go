package domain

import "time"

// Like represents a many-to-many relationship between a User and a Post.
// The pair is unique, so a user cannot like the same post twice.
type Like struct {
	ID     int `json:"id"`
	UserID int `json:"user_id" gorm:"notNull;uniqueIndex:idx_like_pair"`
	PostID int `json:"post_id" gorm:"notNull;uniqueIndex:idx_like_pair"`

	CreatedAt time.Time `json:"created_at"`
}

// LikeService is a set of methods to manipulate and work with the Like model.
type LikeService interface {
	// Toggle flips a user's like on a post. It returns the like and true if
	// the call created it, or nil and false if the call removed it. Creating
	// the like also creates a "like" Notification for the post's owner (unless
	// the owner liked their own post), in the same database transaction.
	Toggle(userID, postID int) (*Like, bool, error)
}
