package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"socialdeck/internal/models"
	"socialdeck/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArtifact(userID string, kind models.ArtifactKind, n int, at time.Time) *models.Artifact {
	return &models.Artifact{
		ID:        fmt.Sprintf("%s-%s-%d", userID, kind, n),
		UserID:    userID,
		Kind:      kind,
		Prompt:    fmt.Sprintf("prompt %d", n),
		Score:     70 + n,
		Text:      "text",
		Options:   map[string]any{"style": "bold"},
		CreatedAt: at,
	}
}

func TestArtifactRepository_CreateAndList(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)
	repo := NewArtifactRepository(db, rdb, 2)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newArtifact("u1", models.KindScript, i, base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, repo.Create(ctx, newArtifact("u1", models.KindImage, 9, base)))

	got, err := repo.ListRecent(ctx, "u1", models.KindScript, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "u1-script-2", got[0].ID)
	assert.Equal(t, "u1-script-0", got[2].ID)
	assert.Equal(t, "bold", got[0].Options["style"])

	limited, err := repo.ListRecent(ctx, "u1", models.KindScript, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	backup, err := mr.List("artifacts:u1:script")
	require.NoError(t, err)
	require.Len(t, backup, 2)
	var newest models.Artifact
	require.NoError(t, json.Unmarshal([]byte(backup[0]), &newest))
	assert.Equal(t, "u1-script-2", newest.ID)
}

func TestArtifactRepository_CaptionSegments(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewArtifactRepository(db, nil, 50)
	ctx := context.Background()

	a := newArtifact("u1", models.KindCaption, 1, time.Now())
	a.Segments = []models.CaptionSegment{{Index: 0, Text: "one two", StartMs: 0, EndMs: 800}}
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.ListRecent(ctx, "u1", models.KindCaption, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Segments, 1)
	assert.Equal(t, 800, got[0].Segments[0].EndMs)
}

func TestArtifactRepository_PrimaryFailure(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	_, rdb := testutil.NewRedis(t)
	repo := NewArtifactRepository(db, rdb, 50)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "artifacts"`).WillReturnError(errors.New("db unavailable"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), newArtifact("u1", models.KindImage, 1, time.Now()))
	assert.Equal(t, models.CodePersistence, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
