package domain

import (
	"time"
)

// User represents a member of the app. The Password and Remember fields only
// carry transient values on their way into the validation layer; what's stored
// are the bcrypt hash and the HMAC'd remember token.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username" gorm:"uniqueIndex;notNull"`
	Email    string `json:"email" gorm:"uniqueIndex;notNull"`
	Bio      string `json:"bio"`
	Link     string `json:"link"`

	// URLs of the user's stored profile and cover images. Empty if unset.
	Avatar string `json:"avatar"`
	Header string `json:"header"`

	Password     string `json:"-" gorm:"-"`
	PasswordHash string `json:"-"`
	Remember     string `json:"-" gorm:"-"`
	RememberHash string `json:"-"`

	// Aggregates filled in by the http layer, not stored.
	FollowerCount int64 `json:"follower_count" gorm:"-"`
	FollowedCount int64 `json:"followed_count" gorm:"-"`
	PostCount     int64 `json:"post_count" gorm:"-"`
	// Following reports whether the authed user follows this user.
	Following bool `json:"following" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate carries a profile mutation. Empty fields leave the stored
// value untouched. A password change requires both CurrentPassword and
// NewPassword. Avatar and Header carry base64 image payloads on the way in;
// by the time the update reaches the user service they have been swapped for
// the URLs of the freshly stored images.
type ProfileUpdate struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Bio             string `json:"bio"`
	Link            string `json:"link"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	Avatar          string `json:"avatar"`
	Header          string `json:"header"`
}

// UserService is a set of methods to manipulate and work with the User model.
// It also backs the auth system: password and remember-token handling live
// here, the http layer only deals with requests and cookies.
type UserService interface {
	Authenticate(username, password string) (*User, error)
	MakeRememberToken() (string, error)
	ByID(id int) (*User, error)
	ByUsername(username string) (*User, error)
	ByEmail(email string) (*User, error)
	ByRemember(token string) (*User, error)
	Create(user *User) error
	Update(user *User) error
	UpdateProfile(id int, upd *ProfileUpdate) (*User, error)
	Suggested(userID int) ([]User, error)
	CountFollowers(id int) (int64, error)
	CountFolloweds(id int) (int64, error)
}
