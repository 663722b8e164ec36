package domain

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a piece of content published by a user. A post carries text,
// an image, or both. The Image field holds the URL of the stored image file.
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id" gorm:"notNull;index"`
	User   User   `json:"user"`
	Text   string `json:"text"`
	Image  string `json:"image"`

	Comments []Comment `json:"comments" gorm:"foreignKey:PostID"`
	Likes    []Like    `json:"likes" gorm:"foreignKey:PostID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"`
}

// Comment represents a user's comment on a post.
type Comment struct {
	ID     int    `json:"id"`
	PostID int    `json:"post_id" gorm:"notNull;index"`
	UserID int    `json:"user_id" gorm:"notNull"`
	User   User   `json:"user"`
	Text   string `json:"text"`

	CreatedAt time.Time `json:"created_at"`
}

// PostService is a set of methods to manipulate and work with the Post model.
type PostService interface {
	ByID(id int) (*Post, error)
	Create(post *Post) error
	Delete(post *Post) error
	Comment(comment *Comment) error
	All() ([]Post, error)
	ByUser(userID int) ([]Post, error)
	ByFollowed(followedIDs []int) ([]Post, error)
	LikedBy(userID int) ([]Post, error)
	CountByUser(userID int) (int64, error)
}
