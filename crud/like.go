package crud

import (
	"gorm.io/gorm"

	"flockApp/domain"
	"flockApp/errs"
)

// LikeService manages Likes.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeValidator
}

// likeValidator runs validations on incoming Like data.
// On success, it passes the data on to likeGorm.
type likeValidator struct {
	likeGorm
}

// likeGorm runs the actual database operations on the likes table.
// It assumes that data has been validated.
type likeGorm struct {
	db *gorm.DB
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{
		likeValidator{
			likeGorm{
				db: db,
			},
		},
	}
}

var _ domain.LikeService = &LikeService{}

// Toggle flips the user's like on the given post. Creating the like also
// creates a "like" notification for the post's owner, unless the owner is
// liking their own post.
func (lv *likeValidator) Toggle(userID, postID int) (*domain.Like, bool, error) {
	var post domain.Post
	err := lv.db.First(&post, "id = ?", postID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
		}
		return nil, false, err
	}
	return lv.likeGorm.Toggle(userID, &post)
}

// Toggle looks up the current like state and flips it. The like and the
// notification written on like creation share one transaction.
func (lg *likeGorm) Toggle(userID int, post *domain.Post) (*domain.Like, bool, error) {
	like := &domain.Like{UserID: userID, PostID: post.ID}
	var liked bool
	err := lg.db.Transaction(func(tx *gorm.DB) error {
		var existing domain.Like
		err := tx.
			Where("user_id = ? AND post_id = ?", userID, post.ID).
			First(&existing).Error
		if err == nil {
			liked = false
			return tx.Delete(&existing).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(like).Error; err != nil {
			return err
		}
		if post.UserID != userID {
			notification := &domain.Notification{
				Type:   domain.NotificationTypeLike,
				FromID: userID,
				ToID:   post.UserID,
			}
			if err := tx.Create(notification).Error; err != nil {
				return err
			}
		}
		liked = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !liked {
		return nil, false, nil
	}
	return like, true, nil
}
