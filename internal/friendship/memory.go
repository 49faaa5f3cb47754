package friendship

import (
	"context"
	"sort"
	"sync"
	"time"

	"headtohead/backend/internal/models"
)

type pairKey struct {
	lo, hi uint
}

// MemoryStore is a mutex-guarded in-memory Store. It enforces the same
// unordered-pair uniqueness as the database index, which makes it a
// faithful stand-in for exercising the create-conflict path in tests.
type MemoryStore struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.Friendship
	byPair map[pairKey]uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		byID:   make(map[uint]*models.Friendship),
		byPair: make(map[pairKey]uint),
	}
}

func keyFor(a, b uint) pairKey {
	lo, hi := models.NormalizePair(a, b)
	return pairKey{lo, hi}
}

func (s *MemoryStore) FindByPair(_ context.Context, a, b uint) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byPair[keyFor(a, b)]
	if !ok {
		return nil, ErrNotFound
	}
	record := *s.byID[id]
	return &record, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uint) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	record := *stored
	return &record, nil
}

func (s *MemoryStore) Create(_ context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	if requesterID == addresseeID {
		return nil, models.ErrSelfFriendship
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(requesterID, addresseeID)
	if _, ok := s.byPair[key]; ok {
		return nil, ErrPairExists
	}

	now := time.Now()
	record := &models.Friendship{
		ID:          s.nextID,
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		PairMinID:   key.lo,
		PairMaxID:   key.hi,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.byID[record.ID] = record
	s.byPair[key] = record.ID

	out := *record
	return &out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uint, status models.FriendshipStatus) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()

	record := *stored
	return &record, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byPair, keyFor(stored.RequesterID, stored.AddresseeID))
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID uint, status models.FriendshipStatus) ([]models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.Friendship
	for _, stored := range s.byID {
		if stored.Status != status {
			continue
		}
		if stored.RequesterID == userID || stored.AddresseeID == userID {
			records = append(records, *stored)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *MemoryStore) ListIncoming(_ context.Context, userID uint, status models.FriendshipStatus) ([]models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.Friendship
	for _, stored := range s.byID {
		if stored.Status == status && stored.AddresseeID == userID {
			records = append(records, *stored)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}
