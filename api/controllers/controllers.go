package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuslink/campuslink-backend/api/middleware"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
)

// authedUserID extracts the authenticated user's UUID from the request
// context seeded by the auth middleware.
func authedUserID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
