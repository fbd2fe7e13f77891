package lifecycle

//go:generate mockgen -source=manager.go -destination=mocks/mocks.go -package=mocks KeyGenerator,NetworkPlane,PeerLister

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/server/internal/ipam"
	"github.com/caldog20/tempnet/server/internal/metrics"
	"github.com/caldog20/tempnet/server/internal/peer"
	"github.com/caldog20/tempnet/server/internal/registry"
)

// KeyGenerator creates the key pair for a new peer. The peer's identity is the
// public half.
type KeyGenerator interface {
	GenerateKey() (keys.PrivateKey, error)
}

// NetworkPlane adds and removes peers on the tunnel interface. Calls are not
// assumed to be idempotent.
type NetworkPlane interface {
	Activate(ctx context.Context, key keys.PublicKey, addr netip.Addr) error
	Deactivate(ctx context.Context, key keys.PublicKey) error
}

// PeerLister reports the peers currently configured on the interface.
type PeerLister interface {
	ListPeers(ctx context.Context) (map[keys.PublicKey][]netip.Prefix, error)
}

// Recorder keeps a history of issued grants.
type Recorder interface {
	RecordCreated(ctx context.Context, p peer.Peer) error
	RecordEvicted(ctx context.Context, key keys.PublicKey, at time.Time, cause string) error
}

// Notifier receives lifecycle events after they are committed.
type Notifier interface {
	PeerCreated(p peer.Peer)
	PeerEvicted(p peer.Peer, cause string)
	PeerEvictFailed(p peer.Peer, err error)
}

type Config struct {
	MaxPeers int
	TTL      time.Duration
}

// Grant is the result of a successful create: the registered peer and the
// private key the client needs. The private key is never stored.
type Grant struct {
	Peer       peer.Peer
	PrivateKey keys.PrivateKey
}

type Status struct {
	ActivePeers int
	MaxPeers    int
	Uptime      time.Duration
}

type SweepResult struct {
	Evicted []peer.Peer
	Failed  []FailedEviction
}

type FailedEviction struct {
	Peer peer.Peer
	Err  error
}

// Manager owns the peer registry. Create, Evict, Sweep and Reconcile are
// serialized by mu for their whole check, side effect and commit sequence;
// Status and Peers only read registry snapshots and never wait on mu.
type Manager struct {
	mu sync.Mutex

	registry *registry.Registry
	pool     *ipam.Pool
	keygen   KeyGenerator
	plane    NetworkPlane

	maxPeers  int
	ttl       time.Duration
	startedAt time.Time

	clock    clock.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder Recorder
	notifier Notifier
}

func New(pool *ipam.Pool, keygen KeyGenerator, plane NetworkPlane, conf Config, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, errors.New("address pool is required")
	}
	if keygen == nil {
		return nil, errors.New("key generator is required")
	}
	if plane == nil {
		return nil, errors.New("network plane is required")
	}
	if conf.MaxPeers <= 0 {
		return nil, fmt.Errorf("max peers must be positive, got %d", conf.MaxPeers)
	}
	if conf.TTL <= 0 {
		return nil, fmt.Errorf("peer ttl must be positive, got %s", conf.TTL)
	}

	m := &Manager{
		registry: registry.New(),
		pool:     pool,
		keygen:   keygen,
		plane:    plane,
		maxPeers: conf.MaxPeers,
		ttl:      conf.TTL,
		clock:    clock.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.startedAt = m.clock.Now()

	return m, nil
}

func (m *Manager) Create(ctx context.Context) (*Grant, error) {
	start := time.Now()

	m.mu.Lock()
	grant, err := m.create(ctx)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ObserveCreate(start)
		if err != nil {
			m.metrics.IncrementCreateFailure(failureReason(err))
		}
	}
	if err != nil {
		m.logger.Warn("create peer failed", "error", err)
		return nil, err
	}
	return grant, nil
}

// create must be called with m.mu held.
func (m *Manager) create(ctx context.Context) (*Grant, error) {
	if m.registry.Count() >= m.maxPeers {
		return nil, ErrCapacityExceeded
	}

	inUse, err := m.registry.AddressSet()
	if err != nil {
		return nil, fmt.Errorf("building in-use address set: %w", err)
	}
	addr, err := m.pool.Allocate(inUse)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAddressPoolExhausted, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priv, err := m.keygen.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGenerationFailed, err)
	}
	pub := priv.PublicKey()
	if _, exists := m.registry.Get(pub); exists {
		return nil, ErrDuplicateIdentity
	}

	// Past this point an interrupted wg call may still have applied the peer,
	// so activation and commit run to completion regardless of ctx.
	ctx = context.WithoutCancel(ctx)

	if err := m.plane.Activate(ctx, pub, addr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrActivationFailed, err)
	}

	p := peer.New(pub, addr, m.clock.Now(), m.ttl)
	if err := m.registry.Insert(p); err != nil {
		m.logger.Error("peer activated but not registered", "public_key", pub, "address", addr, "error", err)
		return nil, err
	}

	m.logger.Info("peer created",
		"address", addr,
		"public_key", pub.ShortString(),
		"expires_in", m.ttl,
	)

	if m.metrics != nil {
		m.metrics.IncrementCreated()
		m.metrics.SetActive(m.registry.Count())
	}
	if m.recorder != nil {
		if err := m.recorder.RecordCreated(ctx, p); err != nil {
			m.logger.Error("error recording created peer", "public_key", pub, "error", err)
		}
	}
	if m.notifier != nil {
		m.notifier.PeerCreated(p)
	}

	return &Grant{Peer: p, PrivateKey: priv}, nil
}

// Evict removes the peer from the interface and then from the registry.
// Evicting a key that is not registered does nothing and reports false.
func (m *Manager) Evict(ctx context.Context, key keys.PublicKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evict(ctx, key, metrics.CauseRevoked)
}

// evict must be called with m.mu held.
func (m *Manager) evict(ctx context.Context, key keys.PublicKey, cause string) (bool, error) {
	p, ok := m.registry.Get(key)
	if !ok {
		return false, nil
	}

	ctx = context.WithoutCancel(ctx)
	if err := m.plane.Deactivate(ctx, key); err != nil {
		m.logger.Error("error removing peer",
			"address", p.Address,
			"public_key", key.ShortString(),
			"error", err,
		)
		if m.metrics != nil {
			m.metrics.IncrementEvictionFailed()
		}
		if m.notifier != nil {
			m.notifier.PeerEvictFailed(p, err)
		}
		return false, fmt.Errorf("%w: %w", ErrDeactivationFailed, err)
	}

	m.registry.Remove(key)
	now := m.clock.Now()

	m.logger.Info("peer removed",
		"address", p.Address,
		"public_key", key.ShortString(),
		"cause", cause,
	)

	if m.metrics != nil {
		m.metrics.IncrementEvicted(cause)
		m.metrics.SetActive(m.registry.Count())
	}
	if m.recorder != nil {
		if err := m.recorder.RecordEvicted(ctx, key, now, cause); err != nil {
			m.logger.Error("error recording evicted peer", "public_key", key, "error", err)
		}
	}
	if m.notifier != nil {
		m.notifier.PeerEvicted(p, cause)
	}
	return true, nil
}

// Sweep evicts every peer whose deadline has passed. A failed eviction does
// not stop the others. The lock is taken per peer so creates are not held up
// for the whole sweep.
func (m *Manager) Sweep(ctx context.Context) SweepResult {
	var res SweepResult
	for p := range m.registry.SnapshotExpired(m.clock.Now()) {
		if ctx.Err() != nil {
			break
		}

		m.mu.Lock()
		evicted, err := m.evict(ctx, p.PublicKey, metrics.CauseExpired)
		m.mu.Unlock()

		switch {
		case err != nil:
			res.Failed = append(res.Failed, FailedEviction{Peer: p, Err: err})
		case evicted:
			res.Evicted = append(res.Evicted, p)
		}
	}

	if m.metrics != nil {
		m.metrics.IncrementSweeps()
	}
	return res
}

// Reconcile removes peers that hold a single pool address on the interface
// but are not registered. Such peers are left over from a
// previous process or from an activation whose commit never happened. Peers
// routed outside the pool are not touched.
func (m *Manager) Reconcile(ctx context.Context, lister PeerLister) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	configured, err := lister.ListPeers(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing interface peers: %w", err)
	}

	removed := 0
	var errs error
	for key, allowed := range configured {
		if _, ok := m.registry.Get(key); ok {
			continue
		}
		if !m.ownsAny(allowed) {
			continue
		}

		if err := m.plane.Deactivate(context.WithoutCancel(ctx), key); err != nil {
			m.logger.Error("error removing orphaned peer", "public_key", key.ShortString(), "error", err)
			errs = errors.Join(errs, fmt.Errorf("%w: %s: %w", ErrDeactivationFailed, key.ShortString(), err))
			continue
		}

		removed++
		m.logger.Info("orphaned peer removed", "public_key", key.ShortString(), "allowed_ips", allowed)
		if m.metrics != nil {
			m.metrics.IncrementEvicted(metrics.CauseReconciled)
		}
	}

	return removed, errs
}

// ownsAny reports whether any allowed prefix is a single host address the
// pool could have handed out.
func (m *Manager) ownsAny(allowed []netip.Prefix) bool {
	for _, a := range allowed {
		if a.IsSingleIP() && m.pool.Contains(a.Addr()) {
			return true
		}
	}
	return false
}

func (m *Manager) Status() Status {
	return Status{
		ActivePeers: m.registry.Count(),
		MaxPeers:    m.maxPeers,
		Uptime:      m.clock.Since(m.startedAt),
	}
}

// Peers returns a snapshot of the live peers ordered by address.
func (m *Manager) Peers() []peer.Peer {
	return m.registry.Snapshot()
}

func (m *Manager) Lookup(key keys.PublicKey) (peer.Peer, bool) {
	return m.registry.Get(key)
}
