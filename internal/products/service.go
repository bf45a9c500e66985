package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/pkg/db/models"
	"github.com/minjaecho/commerce-pulse/pkg/enums"
	pkgerrors "github.com/minjaecho/commerce-pulse/pkg/errors"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
	"github.com/minjaecho/commerce-pulse/pkg/outbox"
	"github.com/minjaecho/commerce-pulse/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams groups dependencies for the product service.
type ServiceParams struct {
	Logger *logger.Logger
	DB     txRunner
	Repo   *Repository
	Outbox eventEmitter
}

// Service exposes catalog reads and view tracking.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	TrackView(ctx context.Context, productID uuid.UUID) error
}

type service struct {
	logg   *logger.Logger
	db     txRunner
	repo   *Repository
	outbox eventEmitter
}

// NewService builds a product service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	return &service{
		logg:   params.Logger,
		db:     params.DB,
		repo:   params.Repo,
		outbox: params.Outbox,
	}, nil
}

// Get returns the product by id.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// TrackView queues the view-increased event for the product. A payload
// that cannot be serialized is logged and dropped; the view itself is
// still reported successful.
func (s *service) TrackView(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductViewed,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Version:       1,
			Data:          payloads.ProductViewedEvent{ProductID: productID},
		})
	})
	if err != nil {
		var serr *outbox.SerializationError
		if errors.As(err, &serr) {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"product_id": productID.String(),
				"error":      serr.Error(),
			})
			s.logg.Warn(logCtx, "view event dropped")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue view event")
	}
	return nil
}
