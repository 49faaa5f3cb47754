// Package friendship implements the relationship core: the state
// machine deciding friendship transitions, the authorization rules for
// them, and the conflict protocol that keeps concurrent mutual
// requests from producing duplicate rows.
package friendship

import (
	"context"
	"errors"

	"headtohead/backend/internal/models"
)

// ErrNotFound indicates a requested friendship record is missing.
var ErrNotFound = errors.New("friendship record not found")

// ErrPairExists indicates a create collided with the unique index over
// the unordered user pair. It is the conflict signal the resolver in
// Service.Request keys on.
var ErrPairExists = errors.New("friendship record already exists for pair")

// Store persists friendship records. Uniqueness over the unordered user
// pair must be enforced by the implementation itself, not by callers
// checking first: two concurrent creators must end with exactly one row
// and one ErrPairExists.
type Store interface {
	// FindByPair returns the record between the two users regardless of
	// which one initiated it, or ErrNotFound.
	FindByPair(ctx context.Context, a, b uint) (*models.Friendship, error)

	// FindByID returns the record with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id uint) (*models.Friendship, error)

	// Create inserts a new pending record. Returns ErrPairExists when a
	// record for the unordered pair already exists.
	Create(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error)

	// UpdateStatus sets the record's status and refreshes its UpdatedAt.
	UpdateStatus(ctx context.Context, id uint, status models.FriendshipStatus) (*models.Friendship, error)

	// Delete removes the record. Deleting a missing record returns
	// ErrNotFound.
	Delete(ctx context.Context, id uint) error

	// ListByUser returns all records with the given status in which the
	// user participates on either side.
	ListByUser(ctx context.Context, userID uint, status models.FriendshipStatus) ([]models.Friendship, error)

	// ListIncoming returns records with the given status addressed to
	// the user, newest first.
	ListIncoming(ctx context.Context, userID uint, status models.FriendshipStatus) ([]models.Friendship, error)
}

// AccountDirectory answers whether a user id belongs to an existing,
// active account. It is the only thing the core needs to know about
// users.
type AccountDirectory interface {
	IsActive(ctx context.Context, userID uint) (bool, error)
}
