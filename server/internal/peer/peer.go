package peer

import (
	"net/netip"
	"time"

	"github.com/caldog20/tempnet/pkg/keys"
)

// Peer is one issued, time-bounded grant on the WireGuard interface.
type Peer struct {
	PublicKey keys.PublicKey
	Address   netip.Addr

	CreatedAt time.Time
	ExpiresAt time.Time
}

func New(key keys.PublicKey, addr netip.Addr, now time.Time, ttl time.Duration) Peer {
	return Peer{
		PublicKey: key,
		Address:   addr,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether now has reached the peer's deadline.
func (p Peer) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

func (p Peer) Remaining(now time.Time) time.Duration {
	if p.IsExpired(now) {
		return 0
	}
	return p.ExpiresAt.Sub(now)
}
