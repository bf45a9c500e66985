package collector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/internal/handled"
	"github.com/minjaecho/commerce-pulse/internal/metrics"
	"github.com/minjaecho/commerce-pulse/pkg/db/models"
	"github.com/minjaecho/commerce-pulse/pkg/enums"
	pkgerrors "github.com/minjaecho/commerce-pulse/pkg/errors"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// HandlerParams groups dependencies for the batch handler.
type HandlerParams struct {
	Logger      *logger.Logger
	DB          txRunner
	HandledRepo *handled.Repository
	MetricsRepo *metrics.Repository
	Now         func() time.Time
}

// Handler folds inbound event batches into the counter and daily stores.
// It is shared by every consumer family; delta semantics come from the
// event type.
type Handler struct {
	logg        *logger.Logger
	db          txRunner
	handledRepo *handled.Repository
	metricsRepo *metrics.Repository
	now         func() time.Time
}

// NewHandler builds a batch handler with the required dependencies.
func NewHandler(params HandlerParams) (*Handler, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db runner is required")
	}
	if params.HandledRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "handled repo is required")
	}
	if params.MetricsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "metrics repo is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		logg:        params.Logger,
		db:          params.DB,
		handledRepo: params.HandledRepo,
		metricsRepo: params.MetricsRepo,
		now:         now,
	}, nil
}

// ProcessBatch applies a batch of events effect-exactly-once. Both upserts
// and the handled-ledger insert commit in one transaction; any failure
// rolls the whole batch back so the transport redelivers it.
func (h *Handler) ProcessBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	// Capture the processing date once so a batch spanning midnight does
	// not split across two daily rows.
	processingDate := metrics.DateOnly(h.now().UTC())

	var applied, duplicates int
	err := h.db.WithTx(ctx, func(tx *gorm.DB) error {
		ids := make([]string, 0, len(events))
		for _, event := range events {
			ids = append(ids, event.ID)
		}
		seen, err := h.handledRepo.WithTx(tx).FilterHandled(ctx, ids)
		if err != nil {
			return err
		}

		// First occurrence wins when the same id shows up twice in one
		// poll through redelivery.
		fresh := make([]Event, 0, len(events))
		inBatch := make(map[string]struct{}, len(events))
		for _, event := range events {
			if _, dup := seen[event.ID]; dup {
				continue
			}
			if _, dup := inBatch[event.ID]; dup {
				continue
			}
			inBatch[event.ID] = struct{}{}
			fresh = append(fresh, event)
		}
		duplicates = len(events) - len(fresh)
		applied = len(fresh)
		if len(fresh) == 0 {
			return nil
		}

		deltas := foldDeltas(fresh)
		if len(deltas) > 0 {
			metricsRepo := h.metricsRepo.WithTx(tx)
			if err := metricsRepo.ApplyCounterDeltas(ctx, deltas); err != nil {
				return err
			}
			if err := metricsRepo.ApplyDailyDeltas(ctx, processingDate, deltas); err != nil {
				return err
			}
		}

		rows := make([]models.EventHandled, 0, len(fresh))
		for _, event := range fresh {
			rows = append(rows, models.EventHandled{
				EventID:       event.ID,
				EventType:     event.Type,
				AggregateType: event.AggregateType(),
				AggregateID:   event.AggregateID(),
			})
		}
		return h.handledRepo.WithTx(tx).MarkHandled(ctx, rows)
	})
	if err != nil {
		return err
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"batch_size": len(events),
		"applied":    applied,
		"duplicates": duplicates,
	})
	h.logg.Info(logCtx, "event batch folded")
	return nil
}

// foldDeltas collapses events into one signed delta per product. Entities
// whose deltas net to zero are dropped so no write is issued for them.
func foldDeltas(events []Event) []metrics.Delta {
	folded := make(map[uuid.UUID]*metrics.Delta)
	order := make([]uuid.UUID, 0, len(events))

	bump := func(productID uuid.UUID) *metrics.Delta {
		if d, ok := folded[productID]; ok {
			return d
		}
		d := &metrics.Delta{ProductID: productID}
		folded[productID] = d
		order = append(order, productID)
		return d
	}

	for _, event := range events {
		switch event.Type {
		case enums.EventProductLiked:
			bump(event.ProductID).LikeDelta++
		case enums.EventProductUnliked:
			bump(event.ProductID).LikeDelta--
		case enums.EventProductViewed:
			bump(event.ProductID).ViewDelta++
		case enums.EventOrderCreated:
			// Order count rises once per order containing the product,
			// quantity by the summed line quantity.
			seenInOrder := make(map[uuid.UUID]struct{}, len(event.Items))
			for _, item := range event.Items {
				d := bump(item.ProductID)
				if _, ok := seenInOrder[item.ProductID]; !ok {
					seenInOrder[item.ProductID] = struct{}{}
					d.OrderDelta++
				}
				d.OrderQuantityDelta += item.Quantity
			}
		}
	}

	deltas := make([]metrics.Delta, 0, len(order))
	for _, productID := range order {
		if d := folded[productID]; !d.IsZero() {
			deltas = append(deltas, *d)
		}
	}
	return deltas
}
