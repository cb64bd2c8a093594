package repository

import (
	"testing"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/fieldline/workdesk/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedUser(t *testing.T, db *database.DB, email string) *models.User {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	repo := NewUserRepository(db.DB, logger)
	user := &models.User{Email: email, Name: "Seed", Role: models.RoleStaff, PasswordHash: "h"}
	require.NoError(t, repo.Create(nil, user))
	return user
}

func TestSessionRepositoryCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	logger, _ := zap.NewDevelopment()
	repo := NewSessionRepository(db.DB, logger)
	user := seedUser(t, db, "sess@homefix.test")

	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	session := &models.Session{
		Token:     "tok-abc",
		UserUID:   user.UID,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	require.NoError(t, repo.Create(nil, session))

	got, err := repo.GetByToken("tok-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.UID, got.UserUID)
	assert.True(t, got.ExpiresAt.Equal(now.Add(24*time.Hour)))

	missing, err := repo.GetByToken("tok-missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionRepositoryDelete(t *testing.T) {
	db := newTestDB(t)
	logger, _ := zap.NewDevelopment()
	repo := NewSessionRepository(db.DB, logger)
	user := seedUser(t, db, "del@homefix.test")

	now := time.Now().UTC()
	session := &models.Session{Token: "tok-del", UserUID: user.UID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(nil, session))

	require.NoError(t, repo.Delete("tok-del"))

	got, err := repo.GetByToken("tok-del")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting an unknown token is harmless.
	assert.NoError(t, repo.Delete("tok-del"))
}

func TestSessionRepositoryDeleteForUser(t *testing.T) {
	db := newTestDB(t)
	logger, _ := zap.NewDevelopment()
	repo := NewSessionRepository(db.DB, logger)
	alice := seedUser(t, db, "alice@homefix.test")
	bob := seedUser(t, db, "bob@homefix.test")

	now := time.Now().UTC()
	for _, tok := range []string{"a1", "a2"} {
		require.NoError(t, repo.Create(nil, &models.Session{Token: tok, UserUID: alice.UID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	}
	require.NoError(t, repo.Create(nil, &models.Session{Token: "b1", UserUID: bob.UID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	require.NoError(t, repo.DeleteForUser(nil, alice.UID))

	for _, tok := range []string{"a1", "a2"} {
		got, err := repo.GetByToken(tok)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	got, err := repo.GetByToken("b1")
	require.NoError(t, err)
	assert.NotNil(t, got, "other users keep their sessions")
}

func TestSessionRepositoryDeleteExpired(t *testing.T) {
	db := newTestDB(t)
	logger, _ := zap.NewDevelopment()
	repo := NewSessionRepository(db.DB, logger)
	user := seedUser(t, db, "exp@homefix.test")

	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(nil, &models.Session{Token: "stale", UserUID: user.UID, CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Create(nil, &models.Session{Token: "live", UserUID: user.UID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	deleted, err := repo.DeleteExpired(now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	got, err := repo.GetByToken("stale")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByToken("live")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
