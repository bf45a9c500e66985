package handled

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/minjaecho/commerce-pulse/pkg/db/models"
)

// Repository manages the insert-only events_handled ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a handled-events repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FilterHandled returns the subset of eventIDs already present in the ledger.
func (r *Repository) FilterHandled(ctx context.Context, eventIDs []string) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(eventIDs))
	if len(eventIDs) == 0 {
		return seen, nil
	}
	var found []string
	err := r.db.WithContext(ctx).
		Model(&models.EventHandled{}).
		Where("event_id IN ?", eventIDs).
		Pluck("event_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// MarkHandled records the events as processed. Rows that raced in through
// another batch are skipped via the unique event_id constraint.
func (r *Repository) MarkHandled(ctx context.Context, rows []models.EventHandled) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

// DeleteHandledBefore prunes ledger rows older than the cutoff. Events
// that old are past any redelivery window, so the dedup guarantee holds.
func (r *Repository) DeleteHandledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("handled_at < ?", cutoff).
		Delete(&models.EventHandled{})
	return result.RowsAffected, result.Error
}
