package crud

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockApp/domain"
	"flockApp/errs"
)

func TestCreatePostValidation(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")

	err := services.Post.Create(&domain.Post{UserID: alice.ID})
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	err = services.Post.Create(&domain.Post{UserID: alice.ID, Text: strings.Repeat("a", MaxPostLength+1)})
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	// An image-only post is fine.
	require.NoError(t, services.Post.Create(&domain.Post{UserID: alice.ID, Image: "/images/abc.png"}))
}

func TestCommentPost(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")
	bob := createTestUser(t, services.User, "bob")

	post := &domain.Post{UserID: bob.ID, Text: "hello"}
	require.NoError(t, services.Post.Create(post))

	err := services.Post.Comment(&domain.Comment{PostID: post.ID, UserID: alice.ID})
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	err = services.Post.Comment(&domain.Comment{PostID: 12345, UserID: alice.ID, Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))

	require.NoError(t, services.Post.Comment(&domain.Comment{PostID: post.ID, UserID: alice.ID, Text: "hi"}))

	fetched, err := services.Post.ByID(post.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Comments, 1)
	assert.Equal(t, "hi", fetched.Comments[0].Text)
	assert.Equal(t, alice.ID, fetched.Comments[0].User.ID)
}

func TestPostFeeds(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")
	bob := createTestUser(t, services.User, "bob")
	carol := createTestUser(t, services.User, "carol")

	bobPost := &domain.Post{UserID: bob.ID, Text: "from bob"}
	require.NoError(t, services.Post.Create(bobPost))
	carolPost := &domain.Post{UserID: carol.ID, Text: "from carol"}
	require.NoError(t, services.Post.Create(carolPost))

	_, _, err := services.Follow.Toggle(alice.ID, bob.ID)
	require.NoError(t, err)

	// The following feed only carries posts of followed users.
	followedIDs, err := services.Follow.FollowedIDs(alice.ID)
	require.NoError(t, err)
	feed, err := services.Post.ByFollowed(followedIDs)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, bobPost.ID, feed[0].ID)
	assert.Equal(t, bob.ID, feed[0].User.ID)

	// Following nobody means an empty feed.
	empty, err := services.Post.ByFollowed(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	// The liked feed only carries posts the user liked.
	_, _, err = services.Like.Toggle(alice.ID, carolPost.ID)
	require.NoError(t, err)
	liked, err := services.Post.LikedBy(alice.ID)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, carolPost.ID, liked[0].ID)

	all, err := services.Post.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byUser, err := services.Post.ByUser(bob.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, bobPost.ID, byUser[0].ID)
}

func TestDeletePost(t *testing.T) {
	services, db := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")
	bob := createTestUser(t, services.User, "bob")

	post := &domain.Post{UserID: bob.ID, Text: "hello"}
	require.NoError(t, services.Post.Create(post))
	require.NoError(t, services.Post.Comment(&domain.Comment{PostID: post.ID, UserID: alice.ID, Text: "hi"}))
	_, _, err := services.Like.Toggle(alice.ID, post.ID)
	require.NoError(t, err)

	require.NoError(t, services.Post.Delete(post))

	_, err = services.Post.ByID(post.ID)
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))

	var comments, likes int64
	require.NoError(t, db.Model(&domain.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	require.NoError(t, db.Model(&domain.Like{}).Where("post_id = ?", post.ID).Count(&likes).Error)
	assert.EqualValues(t, 0, comments)
	assert.EqualValues(t, 0, likes)
}

func TestCountByUser(t *testing.T) {
	services, _ := newTestServices(t)
	bob := createTestUser(t, services.User, "bob")

	require.NoError(t, services.Post.Create(&domain.Post{UserID: bob.ID, Text: "one"}))
	require.NoError(t, services.Post.Create(&domain.Post{UserID: bob.ID, Text: "two"}))

	count, err := services.Post.CountByUser(bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
