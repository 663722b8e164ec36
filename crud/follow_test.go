package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockApp/domain"
	"flockApp/errs"
)

func TestToggleFollow(t *testing.T) {
	services, db := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")
	bob := createTestUser(t, services.User, "bob")

	// First toggle creates the edge and notifies bob.
	follow, following, err := services.Follow.Toggle(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)
	require.NotNil(t, follow)
	assert.Equal(t, alice.ID, follow.FollowerID)
	assert.Equal(t, bob.ID, follow.FollowedID)

	exists, err := services.Follow.Exists(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.EqualValues(t, 1, countNotifications(t, db, bob.ID, domain.NotificationTypeFollow))

	// The edge is directed: bob does not follow alice.
	exists, err = services.Follow.Exists(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	// Second toggle removes the edge and does not notify again.
	follow, following, err = services.Follow.Toggle(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
	assert.Nil(t, follow)

	exists, err = services.Follow.Exists(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.EqualValues(t, 0, countFollows(t, db))
	assert.EqualValues(t, 1, countNotifications(t, db, bob.ID, domain.NotificationTypeFollow))
}

func TestToggleFollowTwiceRecreatesEdge(t *testing.T) {
	services, db := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")
	bob := createTestUser(t, services.User, "bob")

	for i := 0; i < 3; i++ {
		_, _, err := services.Follow.Toggle(alice.ID, bob.ID)
		require.NoError(t, err)
	}

	// follow, unfollow, follow: edge present again, one notification per creation.
	exists, err := services.Follow.Exists(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.EqualValues(t, 2, countNotifications(t, db, bob.ID, domain.NotificationTypeFollow))
}

func TestToggleFollowSelf(t *testing.T) {
	services, db := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")

	_, _, err := services.Follow.Toggle(alice.ID, alice.ID)
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	assert.EqualValues(t, 0, countFollows(t, db))
}

func TestToggleFollowMissingUser(t *testing.T) {
	services, db := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")

	_, _, err := services.Follow.Toggle(alice.ID, alice.ID+1000)
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))

	// No state mutation of any kind.
	assert.EqualValues(t, 0, countFollows(t, db))
	var notifications int64
	require.NoError(t, db.Model(&domain.Notification{}).Count(&notifications).Error)
	assert.EqualValues(t, 0, notifications)
}

func TestFollowedIDs(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")
	bob := createTestUser(t, services.User, "bob")
	carol := createTestUser(t, services.User, "carol")

	_, _, err := services.Follow.Toggle(alice.ID, bob.ID)
	require.NoError(t, err)
	_, _, err = services.Follow.Toggle(alice.ID, carol.ID)
	require.NoError(t, err)

	ids, err := services.Follow.FollowedIDs(alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{bob.ID, carol.ID}, ids)
}
