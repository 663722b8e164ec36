package domain

import "time"

// Follow represents a self-referential many-to-many relationship between two
// users. A Follow is created when one user decides to follow another user.
// The FollowerID is the ID of the user that follows, the FollowedID is the ID
// of the user being followed. The pair is unique, so a user cannot follow the
// same user twice.
type Follow struct {
	ID         int       `json:"id"`
	FollowerID int       `json:"follower_id" gorm:"notNull;index;uniqueIndex:idx_follow_pair"`
	FollowedID int       `json:"followed_id" gorm:"notNull;uniqueIndex:idx_follow_pair"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow model.
type FollowService interface {
	// Toggle flips the follow edge between two users. It returns the edge and
	// true if the call created it, or nil and false if the call removed it.
	// Creating the edge also creates a "follow" Notification for the followed
	// user, in the same database transaction.
	Toggle(followerID, followedID int) (*Follow, bool, error)
	Exists(followerID, followedID int) (bool, error)
	FollowedIDs(followerID int) ([]int, error)
}
