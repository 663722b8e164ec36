package crud

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flockApp/domain"
)

// setupDB opens an in-memory sqlite database and migrates all tables.
// The connection pool is capped at one connection, because every sqlite
// :memory: connection is its own database.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Follow{},
		&domain.Notification{},
		&domain.Post{},
		&domain.Comment{},
		&domain.Like{},
	))
	return db
}

func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	services, err := NewServices(
		db,
		WithUser("test-hmac-key", "test-pepper"),
		WithFollow(),
		WithNotification(),
		WithPost(),
		WithLike(),
	)
	require.NoError(t, err)
	return services, db
}

func createTestUser(t *testing.T, us *UserService, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:     "Test " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	}
	require.NoError(t, us.Create(user))
	return user
}

func countFollows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.Follow{}).Count(&count).Error)
	return count
}

func countNotifications(t *testing.T, db *gorm.DB, toID int, notificationType string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).
		Where("to_id = ? AND type = ?", toID, notificationType).
		Count(&count).Error)
	return count
}
