package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialdeck/internal/models"
	"socialdeck/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func sampleProfile(userID string) *models.AvatarProfile {
	return &models.AvatarProfile{
		UserID:      userID,
		DisplayName: "Robin",
		Bio:         "Coffee and code",
		Traits:      []string{"creative", "curious"},
		Style: models.AvatarStyle{
			Hairstyle: "long", HairColor: "red", SkinTone: "light", Clothing: "hoodie", Accessories: "glasses",
		},
		Privacy:   models.PrivacySettings{ShowEmail: boolPtr(false), ShowBio: boolPtr(true), ShowTraits: boolPtr(true)},
		AvatarURL: "https://avataaars.io/?topType=LongHairStraight",
	}
}

func TestProfileRepository_SaveAndGet(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)
	repo := NewProfileRepository(db, rdb)
	ctx := context.Background()

	_, err := repo.GetByUserID(ctx, "u1")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	profile := sampleProfile("u1")
	require.NoError(t, repo.Save(ctx, profile))
	assert.True(t, mr.Exists("avatar_profile:u1"))

	got, err := repo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Robin", got.DisplayName)
	assert.Equal(t, []string{"creative", "curious"}, []string(got.Traits))
	assert.Equal(t, "hoodie", got.Style.Clothing)
	require.NotNil(t, got.Privacy.ShowEmail)
	assert.False(t, *got.Privacy.ShowEmail)

	// Upsert replaces the row.
	profile.Bio = "Updated"
	profile.Traits = []string{"bold"}
	require.NoError(t, repo.Save(ctx, profile))

	var stored models.AvatarProfile
	require.NoError(t, db.First(&stored, "user_id = ?", "u1").Error)
	assert.Equal(t, "Updated", stored.Bio)
	assert.Equal(t, []string{"bold"}, []string(stored.Traits))

	var count int64
	db.Model(&models.AvatarProfile{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProfileRepository_ReadsThroughWhenCacheEmpty(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)
	repo := NewProfileRepository(db, rdb)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleProfile("u2")))
	mr.FlushAll()

	got, err := repo.GetByUserID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Robin", got.DisplayName)
	assert.True(t, mr.Exists("avatar_profile:u2"))
}

func TestProfileRepository_WithoutRedis(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProfileRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleProfile("u3")))
	got, err := repo.GetByUserID(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, "u3", got.UserID)
}

func TestProfileRepository_SecondaryFailureIsNotFatal(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)
	repo := NewProfileRepository(db, rdb)
	mr.Close()

	require.NoError(t, repo.Save(context.Background(), sampleProfile("u4")))

	var stored models.AvatarProfile
	require.NoError(t, db.First(&stored, "user_id = ?", "u4").Error)
	assert.Equal(t, "Robin", stored.DisplayName)
}

func TestProfileRepository_FailedCacheRefreshDoesNotServeStaleProfile(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)
	failer := testutil.FailCommands(rdb, "set")
	repo := NewProfileRepository(db, rdb)
	ctx := context.Background()

	profile := sampleProfile("u5")
	profile.Traits = []string{"creative"}
	require.NoError(t, repo.Save(ctx, profile))
	require.True(t, mr.Exists("avatar_profile:u5"))

	failer.SetEnabled(true)
	profile.Traits = []string{"creative", "bold"}
	require.NoError(t, repo.Save(ctx, profile))
	assert.False(t, mr.Exists("avatar_profile:u5"))

	got, err := repo.GetByUserID(ctx, "u5")
	require.NoError(t, err)
	assert.Equal(t, []string{"creative", "bold"}, []string(got.Traits))

	// A later edit built on the read keeps the earlier one.
	got.Style.HairColor = "brown"
	require.NoError(t, repo.Save(ctx, got))

	var stored models.AvatarProfile
	require.NoError(t, db.First(&stored, "user_id = ?", "u5").Error)
	assert.Equal(t, []string{"creative", "bold"}, []string(stored.Traits))
	assert.Equal(t, "brown", stored.Style.HairColor)
}

func TestProfileRepository_Completion(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProfileRepository(db, nil)
	ctx := context.Background()

	_, err := repo.GetCompletion(ctx, "u1")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SaveCompletion(ctx, &models.ProfileCompletion{UserID: "u1", Score: 40, UpdatedAt: now}))
	require.NoError(t, repo.SaveCompletion(ctx, &models.ProfileCompletion{UserID: "u1", Score: 60, UpdatedAt: now}))

	got, err := repo.GetCompletion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 60, got.Score)
}

func TestProfileRepository_DatabaseErrors(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewProfileRepository(db, nil)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .* FROM "avatar_profiles"`).WillReturnError(errors.New("connection reset"))
	_, err := repo.GetByUserID(ctx, "u1")
	assert.ErrorContains(t, err, "connection reset")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "avatar_profiles"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()
	err = repo.Save(ctx, sampleProfile("u1"))
	assert.Equal(t, models.CodePersistence, models.ErrorCode(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
