package friendship

import (
	"context"
	"errors"
	"fmt"
	"log"

	"headtohead/backend/internal/models"
)

// Service owns the friendship state machine. All decisions are made by
// pure functions over the record observed from the Store; the only
// synchronization point is the store's pair uniqueness, handled by the
// conflict path in Request.
type Service struct {
	store    Store
	accounts AccountDirectory
}

func NewService(store Store, accounts AccountDirectory) *Service {
	return &Service{store: store, accounts: accounts}
}

// requestOutcome is what Request should do given the observed record.
type requestOutcome int

const (
	// outcomeCreate: no record exists, insert a new pending one.
	outcomeCreate requestOutcome = iota

	// outcomePromote: the other party already requested the caller;
	// the mirror request counts as acceptance.
	outcomePromote
)

// decideRequest maps the currently observed relationship (nil when none
// exists) to the outcome of a new request from requesterID. It is
// replayed unchanged by the conflict path, so a race loser gets exactly
// the answer it would have gotten had it observed the winner's row on
// first read.
func decideRequest(existing *models.Friendship, requesterID uint) (requestOutcome, *Error) {
	if existing == nil {
		return outcomeCreate, nil
	}

	switch existing.Status {
	case models.StatusBlocked:
		return 0, errBlocked()
	case models.StatusAccepted:
		return 0, errAlreadyFriends()
	case models.StatusPending:
		if existing.AddresseeID == requesterID {
			// The pending request points at the caller: a mutual
			// request, resolved as an implicit accept.
			return outcomePromote, nil
		}
		return 0, errAlreadyPending()
	}
	return 0, errInvalidStatus("process", string(existing.Status))
}

// decideTransition authorizes an accept/reject/block attempt against a
// record by id. Only the addressee may answer, and only while pending.
func decideTransition(record *models.Friendship, callerID uint, action string) *Error {
	if record.AddresseeID != callerID {
		return errUnauthorized(action)
	}
	if record.Status != models.StatusPending {
		return errInvalidStatus(action, string(record.Status))
	}
	return nil
}

// Request sends a friend request from requesterID to addresseeID.
// When the addressee has a pending request towards the requester
// already, the pair is promoted straight to accepted. A create that
// loses the race against a concurrent mirror request is resolved by
// re-reading the settled row and replaying the same decision.
func (s *Service) Request(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	if requesterID == addresseeID {
		return nil, errSelfRequest()
	}

	if err := s.checkParty(ctx, requesterID, "requester"); err != nil {
		return nil, err
	}
	if err := s.checkParty(ctx, addresseeID, "addressee"); err != nil {
		return nil, err
	}

	existing, err := s.findPair(ctx, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}

	outcome, ferr := decideRequest(existing, requesterID)
	if ferr != nil {
		return nil, ferr
	}

	switch outcome {
	case outcomePromote:
		return s.promote(ctx, existing.ID)
	default:
		record, err := s.store.Create(ctx, requesterID, addresseeID)
		if errors.Is(err, ErrPairExists) {
			return s.resolveCreateConflict(ctx, requesterID, addresseeID)
		}
		if err != nil {
			return nil, s.storageError("create friendship", err)
		}
		return record, nil
	}
}

// resolveCreateConflict handles the losing side of a concurrent create:
// the winner's row is committed and visible, so one re-read plus a
// replay of decideRequest settles the outcome. No further retry is
// attempted beyond this single re-read.
func (s *Service) resolveCreateConflict(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	existing, err := s.store.FindByPair(ctx, requesterID, addresseeID)
	if errors.Is(err, ErrNotFound) {
		// The conflicting row was deleted between our create and the
		// re-read. Surface as a storage failure rather than looping.
		return nil, s.storageError("resolve create conflict",
			fmt.Errorf("conflicting record vanished for pair (%d, %d)", requesterID, addresseeID))
	}
	if err != nil {
		return nil, s.storageError("resolve create conflict", err)
	}

	outcome, ferr := decideRequest(existing, requesterID)
	if ferr != nil {
		return nil, ferr
	}
	if outcome == outcomePromote {
		return s.promote(ctx, existing.ID)
	}
	// decideRequest can only ask for a create when no record exists,
	// and the re-read just found one.
	return nil, s.storageError("resolve create conflict",
		fmt.Errorf("unexpected create outcome after conflict for pair (%d, %d)", requesterID, addresseeID))
}

// Accept marks a pending request as accepted. Only the addressee may
// accept.
func (s *Service) Accept(ctx context.Context, friendshipID, callerID uint) (*models.Friendship, error) {
	record, err := s.findByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if ferr := decideTransition(record, callerID, "accept"); ferr != nil {
		return nil, ferr
	}
	return s.promote(ctx, record.ID)
}

// Reject deletes a pending request. Only the addressee may reject; no
// rejected tombstone is kept, so the pair can start over afterwards.
func (s *Service) Reject(ctx context.Context, friendshipID, callerID uint) error {
	record, err := s.findByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if ferr := decideTransition(record, callerID, "reject"); ferr != nil {
		return ferr
	}
	if err := s.store.Delete(ctx, record.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return s.storageError("delete friendship", err)
	}
	return nil
}

// Block marks a pending request as blocked. The row stays and refuses
// any new request between the pair, from either side.
func (s *Service) Block(ctx context.Context, friendshipID, callerID uint) (*models.Friendship, error) {
	record, err := s.findByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if ferr := decideTransition(record, callerID, "block"); ferr != nil {
		return nil, ferr
	}
	updated, err := s.store.UpdateStatus(ctx, record.ID, models.StatusBlocked)
	if errors.Is(err, ErrNotFound) {
		return nil, errNotFound("friend request")
	}
	if err != nil {
		return nil, s.storageError("block friendship", err)
	}
	return updated, nil
}

// Remove deletes an accepted friendship between the caller and another
// user. Either participant may remove it; pending or blocked rows are
// not removable this way.
func (s *Service) Remove(ctx context.Context, callerID, otherID uint) error {
	record, err := s.store.FindByPair(ctx, callerID, otherID)
	if errors.Is(err, ErrNotFound) {
		return errNotFound("friendship")
	}
	if err != nil {
		return s.storageError("find friendship", err)
	}
	if record.Status != models.StatusAccepted {
		return errNotFound("friendship")
	}
	if err := s.store.Delete(ctx, record.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return s.storageError("delete friendship", err)
	}
	return nil
}

// Friends lists the caller's accepted friendships.
func (s *Service) Friends(ctx context.Context, userID uint) ([]models.Friendship, error) {
	records, err := s.store.ListByUser(ctx, userID, models.StatusAccepted)
	if err != nil {
		return nil, s.storageError("list friendships", err)
	}
	return records, nil
}

// PendingRequests lists pending requests addressed to the caller,
// newest first.
func (s *Service) PendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	records, err := s.store.ListIncoming(ctx, userID, models.StatusPending)
	if err != nil {
		return nil, s.storageError("list pending requests", err)
	}
	return records, nil
}

func (s *Service) promote(ctx context.Context, id uint) (*models.Friendship, error) {
	record, err := s.store.UpdateStatus(ctx, id, models.StatusAccepted)
	if errors.Is(err, ErrNotFound) {
		return nil, errNotFound("friend request")
	}
	if err != nil {
		return nil, s.storageError("accept friendship", err)
	}
	return record, nil
}

func (s *Service) checkParty(ctx context.Context, userID uint, side string) error {
	active, err := s.accounts.IsActive(ctx, userID)
	if err != nil {
		return s.storageError("look up "+side, err)
	}
	if !active {
		return errPartyNotFound(side)
	}
	return nil
}

func (s *Service) findPair(ctx context.Context, a, b uint) (*models.Friendship, error) {
	record, err := s.store.FindByPair(ctx, a, b)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.storageError("find friendship", err)
	}
	return record, nil
}

func (s *Service) findByID(ctx context.Context, id uint) (*models.Friendship, error) {
	record, err := s.store.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, errNotFound("friend request")
	}
	if err != nil {
		return nil, s.storageError("find friend request", err)
	}
	return record, nil
}

// storageError logs the underlying failure and returns the generic
// storage outcome; business callers only ever see the stable code.
func (s *Service) storageError(op string, err error) *Error {
	log.Printf("friendship: %s failed: %v", op, err)
	return errStorage(err)
}
