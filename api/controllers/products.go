package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minjaecho/commerce-pulse/api/responses"
	"github.com/minjaecho/commerce-pulse/api/validators"
	"github.com/minjaecho/commerce-pulse/internal/likes"
	"github.com/minjaecho/commerce-pulse/internal/metrics"
	"github.com/minjaecho/commerce-pulse/internal/products"
	pkgerrors "github.com/minjaecho/commerce-pulse/pkg/errors"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
)

type likeRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}

// ProductDetail serves the catalog row.
func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product, err := svc.Get(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductMetrics serves the running interaction counters. Products with
// no interactions yet report zeroes.
func ProductMetrics(repo *metrics.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		row, err := repo.GetProductMetrics(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteSuccess(w, map[string]any{
					"productId":          productID,
					"likeCount":          0,
					"viewCount":          0,
					"orderCount":         0,
					"totalOrderQuantity": 0,
				})
				return
			}
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product metrics"))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"productId":          row.ProductID,
			"likeCount":          row.LikeCount,
			"viewCount":          row.ViewCount,
			"orderCount":         row.OrderCount,
			"totalOrderQuantity": row.TotalOrderQuantity,
		})
	}
}

// TrackProductView records a detail view.
func TrackProductView(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.TrackView(ctx, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "tracked"})
	}
}

// LikeProduct records the caller's like.
func LikeProduct(svc likes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body likeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Like(ctx, body.UserID, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "liked"})
	}
}

// UnlikeProduct removes the caller's like.
func UnlikeProduct(svc likes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body likeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Unlike(ctx, body.UserID, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unliked"})
	}
}

func productIDParam(r *http.Request) (uuid.UUID, error) {
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be a uuid")
	}
	return productID, nil
}
