package crud

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockApp/domain"
	"flockApp/errs"
)

func TestAuthenticate(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")

	found, err := services.User.Authenticate("alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = services.User.Authenticate("alice", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	_, err = services.User.Authenticate("nobody", "secret123")
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestCreateUserTakenUsername(t *testing.T) {
	services, _ := newTestServices(t)
	createTestUser(t, services.User, "alice")

	err := services.User.Create(&domain.User{
		Username: "alice",
		Email:    "other@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, errs.ECONFLICT, errs.ErrorCode(err))
}

func TestUpdateProfilePasswordPairRequired(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")

	// Only the current password provided.
	_, err := services.User.UpdateProfile(alice.ID, &domain.ProfileUpdate{
		CurrentPassword: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	// Only the new password provided.
	_, err = services.User.UpdateProfile(alice.ID, &domain.ProfileUpdate{
		NewPassword: "hunter234",
	})
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestUpdateProfilePasswordChange(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")

	// Wrong current password.
	_, err := services.User.UpdateProfile(alice.ID, &domain.ProfileUpdate{
		CurrentPassword: "wrong-password",
		NewPassword:     "hunter234",
	})
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	// New password below the minimum length of 6.
	_, err = services.User.UpdateProfile(alice.ID, &domain.ProfileUpdate{
		CurrentPassword: "secret123",
		NewPassword:     "five5",
	})
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	// Exactly 6 characters is accepted.
	_, err = services.User.UpdateProfile(alice.ID, &domain.ProfileUpdate{
		CurrentPassword: "secret123",
		NewPassword:     "sixsix",
	})
	require.NoError(t, err)

	// The old password no longer works, the new one does.
	_, err = services.User.Authenticate("alice", "secret123")
	require.Error(t, err)
	found, err := services.User.Authenticate("alice", "sixsix")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)
}

func TestUpdateProfileMergeIfPresent(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")

	_, err := services.User.UpdateProfile(alice.ID, &domain.ProfileUpdate{
		Bio:  "gopher",
		Link: "https://example.com",
	})
	require.NoError(t, err)

	updated, err := services.User.ByID(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "gopher", updated.Bio)
	assert.Equal(t, "https://example.com", updated.Link)

	// Empty fields leave existing values untouched.
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "alice@example.com", updated.Email)
	assert.Equal(t, "Test alice", updated.Name)

	// A later partial update doesn't wipe the bio.
	_, err = services.User.UpdateProfile(alice.ID, &domain.ProfileUpdate{
		Name: "Alice",
	})
	require.NoError(t, err)
	updated, err = services.User.ByID(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "gopher", updated.Bio)
}

func TestUpdateProfileMissingUser(t *testing.T) {
	services, _ := newTestServices(t)

	_, err := services.User.UpdateProfile(12345, &domain.ProfileUpdate{Bio: "ghost"})
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestSuggested(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")

	others := make([]*domain.User, 0, 12)
	for _, name := range []string{"b1", "b2", "b3", "b4", "b5", "b6", "b7", "b8", "b9", "b10", "b11", "b12"} {
		others = append(others, createTestUser(t, services.User, name))
	}

	// Alice follows the first three.
	followed := map[int]bool{}
	for _, other := range others[:3] {
		_, _, err := services.Follow.Toggle(alice.ID, other.ID)
		require.NoError(t, err)
		followed[other.ID] = true
	}

	for i := 0; i < 10; i++ {
		suggested, err := services.User.Suggested(alice.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(suggested), SuggestedMax)
		for _, user := range suggested {
			assert.NotEqual(t, alice.ID, user.ID, "must never suggest the requesting user")
			assert.False(t, followed[user.ID], "must never suggest an already followed user")
		}
	}
}

// One HMAC instance serves every request, so hashing must be safe for
// concurrent use and always produce the same digest for the same input.
func TestHMACHashConcurrent(t *testing.T) {
	h := newHMAC("test-hmac-key")
	want := h.hash("remember-token")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, want, h.hash("remember-token"))
			}
		}()
	}
	wg.Wait()
}

func TestByRememberConcurrent(t *testing.T) {
	services, _ := newTestServices(t)
	alice := createTestUser(t, services.User, "alice")

	token, err := services.User.MakeRememberToken()
	require.NoError(t, err)
	alice.Remember = token
	require.NoError(t, services.User.Update(alice))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, err := services.User.ByRemember(token)
			assert.NoError(t, err)
			if assert.NotNil(t, found) {
				assert.Equal(t, alice.ID, found.ID)
			}
		}()
	}
	wg.Wait()
}
