package friendship

import (
	"context"
	"sync"
	"testing"

	"headtohead/backend/internal/models"
)

// fakeAccounts is an AccountDirectory backed by a set of active ids.
type fakeAccounts struct {
	active map[uint]bool
}

func (f *fakeAccounts) IsActive(_ context.Context, userID uint) (bool, error) {
	return f.active[userID], nil
}

func newTestService(activeIDs ...uint) (*Service, *MemoryStore) {
	accounts := &fakeAccounts{active: make(map[uint]bool)}
	for _, id := range activeIDs {
		accounts.active[id] = true
	}
	store := NewMemoryStore()
	return NewService(store, accounts), store
}

func assertCode(t *testing.T, err error, code Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if !IsCode(err, code) {
		t.Fatalf("expected error with code %s, got %v", code, err)
	}
}

func TestRequestCreatesPending(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()

	record, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if record.Status != models.StatusPending {
		t.Errorf("status = %s, want %s", record.Status, models.StatusPending)
	}
	if record.RequesterID != 1 || record.AddresseeID != 2 {
		t.Errorf("participants = (%d, %d), want (1, 2)", record.RequesterID, record.AddresseeID)
	}
}

func TestRequestToSelf(t *testing.T) {
	svc, _ := newTestService(1)
	_, err := svc.Request(context.Background(), 1, 1)
	assertCode(t, err, CodeSelfRequest)
}

func TestRequestPartyNotFound(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()

	if _, err := svc.Request(ctx, 1, 99); !IsCode(err, CodePartyNotFound) {
		t.Errorf("unknown addressee: got %v, want %s", err, CodePartyNotFound)
	}
	if _, err := svc.Request(ctx, 99, 2); !IsCode(err, CodePartyNotFound) {
		t.Errorf("unknown requester: got %v, want %s", err, CodePartyNotFound)
	}
}

func TestRequestInactiveParty(t *testing.T) {
	accounts := &fakeAccounts{active: map[uint]bool{1: true, 2: false}}
	svc := NewService(NewMemoryStore(), accounts)

	_, err := svc.Request(context.Background(), 1, 2)
	assertCode(t, err, CodePartyNotFound)
}

func TestDuplicateRequestIsAlreadyPending(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()

	if _, err := svc.Request(ctx, 1, 2); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	_, err := svc.Request(ctx, 1, 2)
	assertCode(t, err, CodeAlreadyPending)
}

func TestMirrorRequestResolvesToAccepted(t *testing.T) {
	svc, store := newTestService(1, 2)
	ctx := context.Background()

	if _, err := svc.Request(ctx, 1, 2); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	record, err := svc.Request(ctx, 2, 1)
	if err != nil {
		t.Fatalf("mirror request failed: %v", err)
	}
	if record.Status != models.StatusAccepted {
		t.Errorf("status = %s, want %s", record.Status, models.StatusAccepted)
	}
	// The original direction survives: user 1 stays the requester.
	if record.RequesterID != 1 {
		t.Errorf("requester = %d, want 1", record.RequesterID)
	}

	stored, err := store.FindByPair(ctx, 1, 2)
	if err != nil {
		t.Fatalf("FindByPair failed: %v", err)
	}
	if stored.ID != record.ID {
		t.Errorf("pair resolves to record %d, want %d", stored.ID, record.ID)
	}
}

func TestRequestAgainstAcceptedIsAlreadyFriends(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()

	if _, err := svc.Request(ctx, 1, 2); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := svc.Request(ctx, 2, 1); err != nil {
		t.Fatalf("mirror request failed: %v", err)
	}

	if _, err := svc.Request(ctx, 1, 2); !IsCode(err, CodeAlreadyFriends) {
		t.Errorf("got %v, want %s", err, CodeAlreadyFriends)
	}
	if _, err := svc.Request(ctx, 2, 1); !IsCode(err, CodeAlreadyFriends) {
		t.Errorf("reverse direction: got %v, want %s", err, CodeAlreadyFriends)
	}
}

func TestRequestAgainstBlockedPair(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()

	record, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := svc.Block(ctx, record.ID, 2); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	// Blocked cuts both ways, including for the blocker.
	if _, err := svc.Request(ctx, 1, 2); !IsCode(err, CodeRelationshipBlocked) {
		t.Errorf("requester side: got %v, want %s", err, CodeRelationshipBlocked)
	}
	if _, err := svc.Request(ctx, 2, 1); !IsCode(err, CodeRelationshipBlocked) {
		t.Errorf("blocker side: got %v, want %s", err, CodeRelationshipBlocked)
	}
}

func TestAcceptByAddressee(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()

	record, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	accepted, err := svc.Accept(ctx, record.ID, 2)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != models.StatusAccepted {
		t.Errorf("status = %s, want %s", accepted.Status, models.StatusAccepted)
	}
	if !accepted.UpdatedAt.After(record.UpdatedAt) && !accepted.UpdatedAt.Equal(record.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: %v -> %v", record.UpdatedAt, accepted.UpdatedAt)
	}
}

func TestTransitionsRequireAddressee(t *testing.T) {
	tests := []struct {
		name string
		call func(svc *Service, ctx context.Context, id, caller uint) error
	}{
		{"accept", func(svc *Service, ctx context.Context, id, caller uint) error {
			_, err := svc.Accept(ctx, id, caller)
			return err
		}},
		{"reject", func(svc *Service, ctx context.Context, id, caller uint) error {
			return svc.Reject(ctx, id, caller)
		}},
		{"block", func(svc *Service, ctx context.Context, id, caller uint) error {
			_, err := svc.Block(ctx, id, caller)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(1, 2, 3)
			ctx := context.Background()

			record, err := svc.Request(ctx, 1, 2)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}

			// Neither the requester nor a third party may answer.
			for _, caller := range []uint{1, 3} {
				err := tt.call(svc, ctx, record.ID, caller)
				assertCode(t, err, CodeUnauthorized)
			}

			stored, err := store.FindByID(ctx, record.ID)
			if err != nil {
				t.Fatalf("record gone after unauthorized attempts: %v", err)
			}
			if stored.Status != models.StatusPending {
				t.Errorf("status changed to %s after unauthorized attempts", stored.Status)
			}
		})
	}
}

func TestTransitionsOnMissingRecord(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()

	if _, err := svc.Accept(ctx, 42, 2); !IsCode(err, CodeNotFound) {
		t.Errorf("accept: got %v, want %s", err, CodeNotFound)
	}
	if err := svc.Reject(ctx, 42, 2); !IsCode(err, CodeNotFound) {
		t.Errorf("reject: got %v, want %s", err, CodeNotFound)
	}
	if _, err := svc.Block(ctx, 42, 2); !IsCode(err, CodeNotFound) {
		t.Errorf("block: got %v, want %s", err, CodeNotFound)
	}
}

func TestAcceptNonPending(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()

	record, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := svc.Accept(ctx, record.ID, 2); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// A second accept hits an already-accepted record.
	_, err = svc.Accept(ctx, record.ID, 2)
	assertCode(t, err, CodeInvalidStatus)
}

func TestRejectDeletesRecord(t *testing.T) {
	svc, store := newTestService(1, 2)
	ctx := context.Background()

	record, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := svc.Reject(ctx, record.ID, 2); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	if _, err := store.FindByPair(ctx, 1, 2); err != ErrNotFound {
		t.Fatalf("record still present after reject: %v", err)
	}

	// The pair can start over as if nothing happened.
	fresh, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("request after reject failed: %v", err)
	}
	if fresh.Status != models.StatusPending {
		t.Errorf("status = %s, want %s", fresh.Status, models.StatusPending)
	}
}

func TestRemoveFriendship(t *testing.T) {
	svc, store := newTestService(1, 2)
	ctx := context.Background()

	record, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Pending records are not removable through Remove.
	if err := svc.Remove(ctx, 1, 2); !IsCode(err, CodeNotFound) {
		t.Errorf("remove pending: got %v, want %s", err, CodeNotFound)
	}

	if _, err := svc.Accept(ctx, record.ID, 2); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Either participant may remove; here the requester does.
	if err := svc.Remove(ctx, 1, 2); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := store.FindByPair(ctx, 1, 2); err != ErrNotFound {
		t.Fatalf("record still present after remove: %v", err)
	}

	if err := svc.Remove(ctx, 1, 2); !IsCode(err, CodeNotFound) {
		t.Errorf("second remove: got %v, want %s", err, CodeNotFound)
	}
}

func TestRequestLifecycleScenario(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()

	first, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	accepted, err := svc.Request(ctx, 2, 1)
	if err != nil {
		t.Fatalf("mirror request failed: %v", err)
	}
	if accepted.Status != models.StatusAccepted {
		t.Fatalf("status = %s, want %s", accepted.Status, models.StatusAccepted)
	}

	if err := svc.Remove(ctx, 1, 2); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	second, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("request after remove failed: %v", err)
	}
	if second.Status != models.StatusPending {
		t.Errorf("status = %s, want %s", second.Status, models.StatusPending)
	}
	if second.ID == first.ID {
		t.Errorf("new record reused id %d", first.ID)
	}
}

func TestListing(t *testing.T) {
	svc, _ := newTestService(1, 2, 3, 4)
	ctx := context.Background()

	// 1 and 2 become friends; 3 and 4 have requests pending towards 1.
	record, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := svc.Accept(ctx, record.ID, 2); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := svc.Request(ctx, 3, 1); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := svc.Request(ctx, 4, 1); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	friends, err := svc.Friends(ctx, 1)
	if err != nil {
		t.Fatalf("Friends failed: %v", err)
	}
	if len(friends) != 1 {
		t.Fatalf("friends count = %d, want 1", len(friends))
	}
	if other, _ := friends[0].OtherParty(1); other != 2 {
		t.Errorf("friend = %d, want 2", other)
	}

	pending, err := svc.PendingRequests(ctx, 1)
	if err != nil {
		t.Fatalf("PendingRequests failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending count = %d, want 2", len(pending))
	}
	for _, p := range pending {
		if p.AddresseeID != 1 {
			t.Errorf("pending request %d addressed to %d, want 1", p.ID, p.AddresseeID)
		}
	}
}

// raceLoserStore delays the configured caller so that a competing row
// is inserted between its pair read and its create, forcing it down
// the conflict-resolution path deterministically.
type raceLoserStore struct {
	Store
	once   sync.Once
	winner func()
}

func (s *raceLoserStore) Create(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	s.once.Do(s.winner)
	return s.Store.Create(ctx, requesterID, addresseeID)
}

func TestCreateConflictMirrorPromotes(t *testing.T) {
	ctx := context.Background()
	accounts := &fakeAccounts{active: map[uint]bool{1: true, 2: true}}
	inner := NewMemoryStore()

	// The winner commits the mirrored request just before the loser's
	// insert lands.
	store := &raceLoserStore{Store: inner, winner: func() {
		if _, err := inner.Create(ctx, 2, 1); err != nil {
			t.Fatalf("winner create failed: %v", err)
		}
	}}
	svc := NewService(store, accounts)

	record, err := svc.Request(ctx, 1, 2)
	if err != nil {
		t.Fatalf("losing request not resolved: %v", err)
	}
	if record.Status != models.StatusAccepted {
		t.Errorf("status = %s, want %s", record.Status, models.StatusAccepted)
	}

	stored, err := inner.FindByPair(ctx, 1, 2)
	if err != nil {
		t.Fatalf("FindByPair failed: %v", err)
	}
	if stored.Status != models.StatusAccepted {
		t.Errorf("stored status = %s, want %s", stored.Status, models.StatusAccepted)
	}
}

func TestCreateConflictSameDirectionIsAlreadyPending(t *testing.T) {
	ctx := context.Background()
	accounts := &fakeAccounts{active: map[uint]bool{1: true, 2: true}}
	inner := NewMemoryStore()

	// The winner committed the same direction: a plain duplicate.
	store := &raceLoserStore{Store: inner, winner: func() {
		if _, err := inner.Create(ctx, 1, 2); err != nil {
			t.Fatalf("winner create failed: %v", err)
		}
	}}
	svc := NewService(store, accounts)

	_, err := svc.Request(ctx, 1, 2)
	assertCode(t, err, CodeAlreadyPending)

	stored, err := inner.FindByPair(ctx, 1, 2)
	if err != nil {
		t.Fatalf("FindByPair failed: %v", err)
	}
	if stored.Status != models.StatusPending {
		t.Errorf("stored status = %s, want %s", stored.Status, models.StatusPending)
	}
}

func TestConcurrentMirrorRequests(t *testing.T) {
	for i := 0; i < 100; i++ {
		svc, store := newTestService(1, 2)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		results := make([]*models.Friendship, 2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			results[0], errs[0] = svc.Request(ctx, 1, 2)
		}()
		go func() {
			defer wg.Done()
			results[1], errs[1] = svc.Request(ctx, 2, 1)
		}()
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("caller %d got error: %v", i, err)
			}
		}

		// Exactly one record, and the pair ends accepted: either one
		// caller created and the other promoted, or the second caller
		// saw the settled row on its first read.
		stored, err := store.FindByPair(ctx, 1, 2)
		if err != nil {
			t.Fatalf("FindByPair failed: %v", err)
		}
		if stored.Status != models.StatusAccepted {
			t.Fatalf("final status = %s, want %s", stored.Status, models.StatusAccepted)
		}
		if results[0].ID != stored.ID || results[1].ID != stored.ID {
			t.Fatalf("callers saw records %d and %d, stored is %d",
				results[0].ID, results[1].ID, stored.ID)
		}
	}
}
