package crud

import (
	"unicode/utf8"

	"gorm.io/gorm"

	"flockApp/domain"
	"flockApp/errs"
)

// MaxPostLength is the maximum rune count of a post's text.
const MaxPostLength = 280

// PostService manages Posts and their Comments.
// It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs validations on incoming Post data.
// On success, it passes the data on to postGorm.
type postValidator struct {
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated.
type postGorm struct {
	db *gorm.DB
}

// NewPostService returns an instance of PostService.
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		postValidator{
			postGorm{
				db: db,
			},
		},
	}
}

var _ domain.PostService = &PostService{}

// Create runs validations needed for creating new Post database records.
func (pv *postValidator) Create(post *domain.Post) error {
	err := runPostValFns(post,
		pv.textOrImageRequired,
		pv.textMaxLength)
	if err != nil {
		return err
	}
	return pv.postGorm.Create(post)
}

// Comment validates and stores a comment on an existing post.
func (pv *postValidator) Comment(comment *domain.Comment) error {
	if comment.Text == "" {
		return errs.Errorf(errs.EINVALID, "A comment must not be empty.")
	}
	if _, err := pv.postGorm.ByID(comment.PostID); err != nil {
		return err
	}
	return pv.postGorm.Comment(comment)
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
func runPostValFns(post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

type postValFn func(post *domain.Post) error

func (pv *postValidator) textOrImageRequired(post *domain.Post) error {
	if post.Text == "" && post.Image == "" {
		return errs.Errorf(errs.EINVALID, "A post must have text or an image.")
	}
	return nil
}

func (pv *postValidator) textMaxLength(post *domain.Post) error {
	if utf8.RuneCountInString(post.Text) > MaxPostLength {
		return errs.Errorf(errs.EINVALID, "A post must not have more than 280 characters.")
	}
	return nil
}

// ByID retrieves a Post database record by ID, with its owner, comments and likes.
func (pg *postGorm) ByID(id int) (*domain.Post, error) {
	var post domain.Post
	err := pg.db.
		Preload("User").
		Preload("Comments.User").
		Preload("Likes").
		First(&post, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
		}
		return nil, err
	}
	return &post, nil
}

// Create stores the data from the Post object in a new database record.
func (pg *postGorm) Create(post *domain.Post) error {
	return pg.db.Create(post).Error
}

// Delete soft-deletes a post. Its comments and likes are removed for good.
func (pg *postGorm) Delete(post *domain.Post) error {
	return pg.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
}

// Comment stores a new comment record.
func (pg *postGorm) Comment(comment *domain.Comment) error {
	return pg.db.Create(comment).Error
}

// All returns every post, newest first.
func (pg *postGorm) All() ([]domain.Post, error) {
	var posts []domain.Post
	err := pg.feed().Find(&posts).Error
	return posts, err
}

// ByUser returns the given user's posts, newest first.
func (pg *postGorm) ByUser(userID int) ([]domain.Post, error) {
	var posts []domain.Post
	err := pg.feed().Where("user_id = ?", userID).Find(&posts).Error
	return posts, err
}

// ByFollowed returns the posts of the given users, newest first. The caller
// resolves the followed user IDs through the follow service.
func (pg *postGorm) ByFollowed(followedIDs []int) ([]domain.Post, error) {
	var posts []domain.Post
	if len(followedIDs) == 0 {
		return posts, nil
	}
	err := pg.feed().Where("user_id IN ?", followedIDs).Find(&posts).Error
	return posts, err
}

// LikedBy returns the posts the given user has liked, newest first.
func (pg *postGorm) LikedBy(userID int) ([]domain.Post, error) {
	var posts []domain.Post
	liked := pg.db.Model(&domain.Like{}).
		Select("post_id").
		Where("user_id = ?", userID)
	err := pg.feed().Where("id IN (?)", liked).Find(&posts).Error
	return posts, err
}

// CountByUser returns the number of posts the given user has published.
func (pg *postGorm) CountByUser(userID int) (int64, error) {
	var count int64
	err := pg.db.Model(&domain.Post{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// feed is the base query shared by all post listings.
func (pg *postGorm) feed() *gorm.DB {
	return pg.db.
		Preload("User").
		Preload("Comments.User").
		Preload("Likes").
		Order("created_at DESC")
}
