package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors the handlers map to HTTP status codes. Services wrap
// them with context via fmt.Errorf("...: %w", ...).
var (
	ErrNotFound     = errors.New("not found")
	ErrNotPermitted = errors.New("not permitted")
	ErrValidation   = errors.New("invalid request")
	// ErrInviteCodeConflict means code generation collided twice in a
	// row; the caller should prompt the user to retry.
	ErrInviteCodeConflict = errors.New("invite code conflict")
	ErrConflict           = errors.New("already exists")
)

// userIDByClerkID resolves the authenticated Clerk id to the local
// users row. Every write path goes through this.
func userIDByClerkID(ctx context.Context, db *pgxpool.Pool, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}
