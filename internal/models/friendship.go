package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// FriendshipStatus defines the state of a relationship between two users.
type FriendshipStatus string

const (
	// StatusPending means a friend request has been sent but not yet
	// answered by the addressee.
	StatusPending FriendshipStatus = "pending"

	// StatusAccepted means the request was accepted, and the users are
	// now friends.
	StatusAccepted FriendshipStatus = "accepted"

	// StatusBlocked means the addressee blocked the requester. A blocked
	// row stays in place and prevents any new relationship between the
	// pair, in either direction.
	StatusBlocked FriendshipStatus = "blocked"
)

// ErrSelfFriendship is returned by the BeforeSave hook when both sides
// of a friendship are the same user.
var ErrSelfFriendship = errors.New("friendship requires two distinct users")

// Friendship represents the single relationship record between two users.
//
// RequesterID/AddresseeID record who initiated; PairMinID/PairMaxID hold
// the same two ids in ascending order and carry the unique index, so a
// row in either direction collides with an existing one for the same
// pair. Rejected requests are deleted rather than stored, so "rejected"
// is deliberately absent from the status set.
type Friendship struct {
	ID          uint             `gorm:"primaryKey"`
	RequesterID uint             `gorm:"not null;index"`
	AddresseeID uint             `gorm:"not null;index"`
	PairMinID   uint             `gorm:"not null;uniqueIndex:idx_friendships_pair"`
	PairMaxID   uint             `gorm:"not null;uniqueIndex:idx_friendships_pair"`
	Status      FriendshipStatus `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Requester User `gorm:"foreignKey:RequesterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Addressee User `gorm:"foreignKey:AddresseeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// BeforeSave keeps the canonical pair columns in sync with the
// participants and rejects self-relationships at the storage layer.
func (f *Friendship) BeforeSave(tx *gorm.DB) error {
	if f.RequesterID == f.AddresseeID {
		return ErrSelfFriendship
	}
	f.PairMinID, f.PairMaxID = NormalizePair(f.RequesterID, f.AddresseeID)
	return nil
}

// OtherParty returns the participant that is not userID. The second
// return is false when userID is not a participant at all.
func (f *Friendship) OtherParty(userID uint) (uint, bool) {
	switch userID {
	case f.RequesterID:
		return f.AddresseeID, true
	case f.AddresseeID:
		return f.RequesterID, true
	}
	return 0, false
}

// NormalizePair orders two user ids ascending, the canonical storage
// order for the unique pair index.
func NormalizePair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}
