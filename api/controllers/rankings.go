package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/minjaecho/commerce-pulse/api/responses"
	"github.com/minjaecho/commerce-pulse/api/validators"
	"github.com/minjaecho/commerce-pulse/internal/ranking"
	"github.com/minjaecho/commerce-pulse/pkg/enums"
	pkgerrors "github.com/minjaecho/commerce-pulse/pkg/errors"
	"github.com/minjaecho/commerce-pulse/pkg/logger"
)

const rankingDateLayout = "20060102"

// RankingTop serves the day's top-N leaderboard.
func RankingTop(svc ranking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		family, date, err := rankingScope(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		items, err := svc.TopN(ctx, family, date, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"family": family,
			"items":  items,
		})
	}
}

// RankingPage serves one leaderboard page with the day's total count.
func RankingPage(svc ranking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		family, date, err := rankingScope(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1000000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", 20, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Page(ctx, family, date, page, size)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RankingLookup serves a single product's rank and score; products with
// no ranking yield an entry-less body rather than an error.
func RankingLookup(svc ranking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		family, date, err := rankingScope(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "product id must be a uuid"))
			return
		}
		entry, err := svc.Lookup(ctx, family, date, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"family": family,
			"entry":  entry,
		})
	}
}

func rankingScope(r *http.Request) (enums.RankingType, time.Time, error) {
	familyRaw := strings.TrimSpace(r.URL.Query().Get("family"))
	family := enums.RankingAll
	if familyRaw != "" {
		parsed, err := enums.ParseRankingType(familyRaw)
		if err != nil {
			return "", time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown ranking family")
		}
		family = parsed
	}

	var date time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation(rankingDateLayout, raw, time.UTC)
		if err != nil {
			return "", time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "date must be yyyyMMdd")
		}
		date = parsed
	}
	return family, date, nil
}
