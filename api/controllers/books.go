package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslink/campuslink-backend/api/responses"
	"github.com/campuslink/campuslink-backend/api/validators"
	"github.com/campuslink/campuslink-backend/internal/books"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/campuslink/campuslink-backend/pkg/logger"
)

type bookPayload struct {
	Title          string          `json:"title" validate:"required"`
	Author         string          `json:"author"`
	Edition        string          `json:"edition"`
	Quality        string          `json:"quality"`
	Description    string          `json:"description"`
	ListingType    string          `json:"listing_type" validate:"required"`
	OriginalPrice  decimal.Decimal `json:"original_price"`
	GeneratedPrice decimal.Decimal `json:"generated_price"`
	IsAvailable    *bool           `json:"is_available,omitempty"`
	ImageURL       *string         `json:"image_url,omitempty"`
}

// BookCreate publishes a new listing owned by the caller.
func BookCreate(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "books service unavailable"))
			return
		}

		userID, err := authedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body bookPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		book, err := svc.Create(ctx, books.CreateInput{
			OwnerID:        userID,
			Title:          body.Title,
			Author:         body.Author,
			Edition:        body.Edition,
			Quality:        body.Quality,
			Description:    body.Description,
			ListingType:    body.ListingType,
			OriginalPrice:  body.OriginalPrice,
			GeneratedPrice: body.GeneratedPrice,
			ImageURL:       body.ImageURL,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

// BookUpdate replaces a listing's fields. Only the owner may update.
func BookUpdate(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "books service unavailable"))
			return
		}

		userID, err := authedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		bookID, err := pathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body bookPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		available := true
		if body.IsAvailable != nil {
			available = *body.IsAvailable
		}

		book, err := svc.Update(ctx, userID, bookID, books.UpdateInput{
			Title:          body.Title,
			Author:         body.Author,
			Edition:        body.Edition,
			Quality:        body.Quality,
			Description:    body.Description,
			ListingType:    body.ListingType,
			OriginalPrice:  body.OriginalPrice,
			GeneratedPrice: body.GeneratedPrice,
			IsAvailable:    available,
			ImageURL:       body.ImageURL,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

// BookDelete removes a listing. Only the owner may delete.
func BookDelete(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "books service unavailable"))
			return
		}

		userID, err := authedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		bookID, err := pathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, userID, bookID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// BookDetail returns a single listing with its owner.
func BookDetail(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "books service unavailable"))
			return
		}

		bookID, err := pathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		book, err := svc.Get(ctx, bookID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

// BookList returns the paginated available catalog.
func BookList(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "books service unavailable"))
			return
		}

		params := books.ListParams{}

		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}

		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		resp, err := svc.ListAvailable(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// BookSearch returns available listings matching the query string.
func BookSearch(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "books service unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		resp, err := svc.Search(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// BooksByUser returns every listing owned by the given user.
func BooksByUser(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "books service unavailable"))
			return
		}

		ownerID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp, err := svc.ListByOwner(ctx, ownerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// BooksByType returns available listings of a single listing type.
func BooksByType(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "books service unavailable"))
			return
		}

		resp, err := svc.ListByType(ctx, chi.URLParam(r, "listingType"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// BooksRecent returns the newest available listings.
func BooksRecent(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "books service unavailable"))
			return
		}

		limit := 0
		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			limit = value
		}

		resp, err := svc.ListRecent(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}
