package friendship

import (
	"context"
	"errors"

	"headtohead/backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormStore is the postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByPair(ctx context.Context, a, b uint) (*models.Friendship, error) {
	lo, hi := models.NormalizePair(a, b)

	var record models.Friendship
	err := s.db.WithContext(ctx).
		Where("pair_min_id = ? AND pair_max_id = ?", lo, hi).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) FindByID(ctx context.Context, id uint) (*models.Friendship, error) {
	var record models.Friendship
	err := s.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) Create(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	record := models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPairExists
		}
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) UpdateStatus(ctx context.Context, id uint, status models.FriendshipStatus) (*models.Friendship, error) {
	var record models.Friendship
	if err := s.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&record).Update("status", status).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Friendship{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListByUser(ctx context.Context, userID uint, status models.FriendshipStatus) ([]models.Friendship, error) {
	var records []models.Friendship
	err := s.db.WithContext(ctx).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, status).
		Preload("Requester").Preload("Addressee").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStore) ListIncoming(ctx context.Context, userID uint, status models.FriendshipStatus) ([]models.Friendship, error) {
	var records []models.Friendship
	err := s.db.WithContext(ctx).
		Where("addressee_id = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Preload("Requester").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// isUniqueViolation reports whether err is the database telling us a
// unique index rejected the insert. SQLSTATE 23505 is postgres' unique
// violation; gorm's translated sentinel covers drivers that map it.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// GormAccounts is the postgres-backed AccountDirectory.
type GormAccounts struct {
	db *gorm.DB
}

func NewGormAccounts(db *gorm.DB) *GormAccounts {
	return &GormAccounts{db: db}
}

func (a *GormAccounts) IsActive(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	err := a.db.WithContext(ctx).Select("id", "is_active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsActive, nil
}
