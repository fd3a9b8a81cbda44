package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pizzastock/backend/api/middleware"
	pkgerrors "github.com/pizzastock/backend/pkg/errors"
)

// parseIDParam extracts and parses a uuid URL parameter.
func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").
			WithDetails(map[string]any{"param": name})
	}
	return id, nil
}

// parseUUIDString parses a uuid carried in a request body.
func parseUUIDString(raw, msg string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg)
	}
	return id, nil
}

// actorUUID resolves the staff actor from the request context, if any.
func actorUUID(ctx context.Context) *uuid.UUID {
	raw := middleware.ActorIDFromContext(ctx)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
