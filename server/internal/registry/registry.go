package registry

import (
	"errors"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/server/internal/peer"
	"go4.org/netipx"
)

var (
	ErrDuplicateIdentity = errors.New("peer public key already registered")
	ErrDuplicateAddress  = errors.New("peer address already in use")
)

// Registry is the in-memory set of live peers keyed by public key. Values are
// stored and returned by copy so readers never observe a partially written peer.
type Registry struct {
	mu    sync.RWMutex
	peers map[keys.PublicKey]peer.Peer
}

func New() *Registry {
	return &Registry{
		peers: make(map[keys.PublicKey]peer.Peer),
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

func (r *Registry) Insert(p peer.Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[p.PublicKey]; ok {
		return ErrDuplicateIdentity
	}
	for _, existing := range r.peers {
		if existing.Address == p.Address {
			return ErrDuplicateAddress
		}
	}

	r.peers[p.PublicKey] = p
	return nil
}

func (r *Registry) Remove(key keys.PublicKey) (peer.Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[key]
	if ok {
		delete(r.peers, key)
	}
	return p, ok
}

func (r *Registry) Get(key keys.PublicKey) (peer.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[key]
	return p, ok
}

// SnapshotExpired returns the peers whose deadline is at or before now.
// Nothing is read until the sequence is ranged over, and every range takes a
// fresh copy, so the sequence can be restarted. The lock is released before
// the first peer is yielded, callers may remove peers while iterating.
func (r *Registry) SnapshotExpired(now time.Time) iter.Seq[peer.Peer] {
	return func(yield func(peer.Peer) bool) {
		r.mu.RLock()
		expired := make([]peer.Peer, 0)
		for _, p := range r.peers {
			if p.IsExpired(now) {
				expired = append(expired, p)
			}
		}
		r.mu.RUnlock()

		for _, p := range expired {
			if !yield(p) {
				return
			}
		}
	}
}

// Snapshot returns a copy of every live peer ordered by address.
func (r *Registry) Snapshot() []peer.Peer {
	r.mu.RLock()
	peers := make([]peer.Peer, 0, len(r.peers))
	for _, p := range r.peers {
		peers = append(peers, p)
	}
	r.mu.RUnlock()

	slices.SortFunc(peers, func(a, b peer.Peer) int {
		return a.Address.Compare(b.Address)
	})
	return peers
}

// AddressSet returns the set of addresses held by live peers.
func (r *Registry) AddressSet() (*netipx.IPSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b netipx.IPSetBuilder
	for _, p := range r.peers {
		if p.Address.IsValid() {
			b.Add(p.Address)
		}
	}
	return b.IPSet()
}
