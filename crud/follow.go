package crud

import (
	"gorm.io/gorm"

	"flockApp/domain"
	"flockApp/errs"
)

// FollowService manages the follow edges between users.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator runs validations on incoming Follow data.
// On success, it passes the data on to followGorm.
type followValidator struct {
	followGorm
}

// followGorm runs the actual database operations on the follows table.
// It assumes that data has been validated.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

var _ domain.FollowService = &FollowService{}

// Toggle flips the follow edge from follower to followed. Creating the edge
// also creates a "follow" notification for the followed user.
func (fv *followValidator) Toggle(followerID, followedID int) (*domain.Follow, bool, error) {
	follow := &domain.Follow{FollowerID: followerID, FollowedID: followedID}
	err := runFollowValFns(follow,
		fv.followedIsNotFollower,
		fv.followedUserExists)
	if err != nil {
		return nil, false, err
	}
	return fv.followGorm.Toggle(follow)
}

// runFollowValFns runs any number of functions of type followValFn on the passed in Follow object.
func runFollowValFns(follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(follow); err != nil {
			return err
		}
	}
	return nil
}

type followValFn func(follow *domain.Follow) error

func (fv *followValidator) followedIsNotFollower(follow *domain.Follow) error {
	if follow.FollowerID == follow.FollowedID {
		return errs.Errorf(errs.EINVALID, "You cannot follow yourself.")
	}
	return nil
}

func (fv *followValidator) followedUserExists(follow *domain.Follow) error {
	err := fv.db.First(&domain.User{}, "id = ?", follow.FollowedID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.Errorf(errs.ENOTFOUND, "The user to be followed does not exist.")
		}
		return err
	}
	return nil
}

// Toggle looks up the current edge state and flips it. Both directions of the
// flip, and the notification written on edge creation, happen inside a single
// transaction, so the edge and the notification can never drift apart.
func (fg *followGorm) Toggle(follow *domain.Follow) (*domain.Follow, bool, error) {
	var following bool
	err := fg.db.Transaction(func(tx *gorm.DB) error {
		var existing domain.Follow
		err := tx.
			Where("follower_id = ? AND followed_id = ?", follow.FollowerID, follow.FollowedID).
			First(&existing).Error
		if err == nil {
			following = false
			return tx.Delete(&existing).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(follow).Error; err != nil {
			return err
		}
		notification := &domain.Notification{
			Type:   domain.NotificationTypeFollow,
			FromID: follow.FollowerID,
			ToID:   follow.FollowedID,
		}
		if err := tx.Create(notification).Error; err != nil {
			return err
		}
		following = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !following {
		return nil, false, nil
	}
	return follow, true, nil
}

// Exists reports whether follower currently follows followed.
func (fg *followGorm) Exists(followerID, followedID int) (bool, error) {
	var count int64
	err := fg.db.Model(&domain.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FollowedIDs returns the IDs of all users the given user is following.
func (fg *followGorm) FollowedIDs(followerID int) ([]int, error) {
	var ids []int
	err := fg.db.Model(&domain.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
