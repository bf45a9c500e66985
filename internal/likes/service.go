package likes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/pkg/db/models"
	"github.com/minjaecho/commerce-pulse/pkg/enums"
	pkgerrors "github.com/minjaecho/commerce-pulse/pkg/errors"
	"github.com/minjaecho/commerce-pulse/pkg/outbox"
	"github.com/minjaecho/commerce-pulse/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ServiceParams groups dependencies for the like service.
type ServiceParams struct {
	DB       txRunner
	Repo     *Repository
	Products productFinder
	Outbox   eventEmitter
}

// Service exposes like and unlike with their outbox side effects.
type Service interface {
	Like(ctx context.Context, userID, productID uuid.UUID) error
	Unlike(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	db       txRunner
	repo     *Repository
	products productFinder
	outbox   eventEmitter
}

// NewService builds a like service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "like repo is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		products: params.Products,
		outbox:   params.Outbox,
	}, nil
}

// Like records the like and queues the like-added event in the same
// transaction. Liking an already-liked product is a no-op and emits
// nothing.
func (s *service) Like(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.validate(ctx, userID, productID); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		inserted, err := s.repo.WithTx(tx).Insert(ctx, userID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert like")
		}
		if !inserted {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductLiked,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Version:       1,
			Data: payloads.ProductLikedEvent{
				ProductID: productID,
				UserID:    userID,
			},
		})
	})
}

// Unlike removes the like and queues the like-removed event. Removing a
// like that does not exist is a no-op.
func (s *service) Unlike(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.validate(ctx, userID, productID); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, userID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete like")
		}
		if !deleted {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductUnliked,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Version:       1,
			Data: payloads.ProductUnlikedEvent{
				ProductID: productID,
				UserID:    userID,
			},
		})
	})
}

func (s *service) validate(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return nil
}
