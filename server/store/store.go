package store

import (
	"context"
	"errors"
	"time"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/server/internal/peer"
)

var ErrNotFound = errors.New("record not found")

const DefaultListLimit = 100

// Record is one issued grant. EvictedAt is nil while the grant is live
// or when the process stopped before evicting it.
type Record struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	PublicKey  string    `json:"public_key" gorm:"index"`
	Address    string    `json:"address"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	EvictedAt  *time.Time `json:"evicted_at,omitempty"`
	EvictCause string    `json:"evict_cause,omitempty"`
}

func recordFromPeer(p peer.Peer) Record {
	return Record{
		PublicKey: p.PublicKey.EncodeToString(),
		Address:   p.Address.String(),
		CreatedAt: p.CreatedAt,
		ExpiresAt: p.ExpiresAt,
	}
}

// Store is an append-only history of issued grants.
type Store interface {
	RecordCreated(ctx context.Context, p peer.Peer) error
	RecordEvicted(ctx context.Context, key keys.PublicKey, at time.Time, cause string) error
	ListRecords(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
