package vpnapi

import (
	"net/netip"
	"time"

	"github.com/caldog20/tempnet/pkg/keys"
)

const APIKeyHeader = "X-API-Key"

type CreateResponse struct {
	Config    string         `json:"config"`
	QR        string         `json:"qr"`
	PublicKey keys.PublicKey `json:"public_key"`
	Address   netip.Addr     `json:"address"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type StatusResponse struct {
	ActivePeers int     `json:"active_peers"`
	MaxPeers    int     `json:"max_peers"`
	Uptime      float64 `json:"uptime"`
}

type Peer struct {
	PublicKey keys.PublicKey `json:"public_key"`
	Address   netip.Addr     `json:"address"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type PeersResponse struct {
	Peers []Peer `json:"peers"`
}

type RevokeRequest struct {
	PublicKey string `json:"public_key"`
}

type HistoryRecord struct {
	PublicKey  string     `json:"public_key"`
	Address    string     `json:"address"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	EvictedAt  *time.Time `json:"evicted_at,omitempty"`
	EvictCause string     `json:"evict_cause,omitempty"`
}

type HistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

type Error struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}
