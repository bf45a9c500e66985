package handled

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/pkg/db/models"
	"github.com/minjaecho/commerce-pulse/pkg/enums"
)

func setupHandledDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE events_handled (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  handled_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func ledgerRow(eventID string) models.EventHandled {
	return models.EventHandled{
		EventID:       eventID,
		EventType:     enums.EventProductLiked,
		AggregateType: enums.AggregateProduct,
		AggregateID:   uuid.NewString(),
	}
}

func TestFilterHandledReturnsOnlyKnownIDs(t *testing.T) {
	db := setupHandledDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.MarkHandled(ctx, []models.EventHandled{ledgerRow("e1"), ledgerRow("e2")}))

	seen, err := repo.FilterHandled(ctx, []string{"e1", "e2", "e3"})
	require.NoError(t, err)
	assert.Len(t, seen, 2)
	assert.Contains(t, seen, "e1")
	assert.Contains(t, seen, "e2")
	assert.NotContains(t, seen, "e3")
}

func TestFilterHandledEmptyInput(t *testing.T) {
	db := setupHandledDB(t)
	repo := NewRepository(db)

	seen, err := repo.FilterHandled(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestMarkHandledIgnoresRacingDuplicates(t *testing.T) {
	db := setupHandledDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.MarkHandled(ctx, []models.EventHandled{ledgerRow("e1")}))
	require.NoError(t, repo.MarkHandled(ctx, []models.EventHandled{ledgerRow("e1"), ledgerRow("e2")}))

	var count int64
	require.NoError(t, db.Model(&models.EventHandled{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
