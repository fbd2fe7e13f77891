package apiservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/pkg/vpnapi"
	"github.com/caldog20/tempnet/server/internal/lifecycle"
	"github.com/caldog20/tempnet/server/store"
)

const maxHistoryLimit = 1000

var (
	errUnauthorized    = errors.New("Unauthorized")
	errCapacity        = errors.New("Too many active peers")
	errNoAddresses     = errors.New("No available IP addresses")
	errCreateFailed    = errors.New("Failed to create VPN peer")
	errPeerNotFound    = errors.New("peer not found")
	errRevokeFailed    = errors.New("failed to remove peer from interface")
	errHistoryDisabled = errors.New("history is disabled")
	errInvalidBody     = errors.New("invalid request body")
	errInvalidLimit    = errors.New("invalid limit")
	errInternal        = errors.New("internal error")
)

func writeJSONError(w http.ResponseWriter, err error, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	werr := json.NewEncoder(w).Encode(vpnapi.Error{
		Error: err.Error(),
		Code:  code,
	})
	if werr != nil {
		slog.Error("error writing json error", "error", werr)
	}
}

func (r *RestAPI) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		r.logger.Error("error encoding json response", "error", err)
	}
}

func (r *RestAPI) handleCreate(w http.ResponseWriter, req *http.Request) {
	grant, err := r.peers.Create(req.Context())
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrCapacityExceeded):
			writeJSONError(w, errCapacity, http.StatusTooManyRequests)
		case errors.Is(err, lifecycle.ErrAddressPoolExhausted):
			writeJSONError(w, errNoAddresses, http.StatusServiceUnavailable)
		default:
			r.logger.Error("error creating peer", "error", err)
			writeJSONError(w, errCreateFailed, http.StatusInternalServerError)
		}
		return
	}

	prof, err := r.renderer.Render(grant.PrivateKey, grant.Peer.Address, r.bits)
	if err != nil {
		// the peer is live but unusable without its profile
		r.logger.Error("error rendering profile", "public_key", grant.Peer.PublicKey.ShortString(), "error", err)
		if _, evictErr := r.peers.Evict(context.WithoutCancel(req.Context()), grant.Peer.PublicKey); evictErr != nil {
			r.logger.Error("error revoking peer after render failure", "public_key", grant.Peer.PublicKey.ShortString(), "error", evictErr)
		}
		writeJSONError(w, errCreateFailed, http.StatusInternalServerError)
		return
	}

	r.writeJSON(w, vpnapi.CreateResponse{
		Config:    prof.Config,
		QR:        prof.QR,
		PublicKey: grant.Peer.PublicKey,
		Address:   grant.Peer.Address,
		ExpiresAt: grant.Peer.ExpiresAt,
	})
}

func (r *RestAPI) handleStatus(w http.ResponseWriter, req *http.Request) {
	st := r.peers.Status()
	r.writeJSON(w, vpnapi.StatusResponse{
		ActivePeers: st.ActivePeers,
		MaxPeers:    st.MaxPeers,
		Uptime:      st.Uptime.Seconds(),
	})
}

func (r *RestAPI) handlePeers(w http.ResponseWriter, req *http.Request) {
	live := r.peers.Peers()
	resp := vpnapi.PeersResponse{Peers: make([]vpnapi.Peer, 0, len(live))}
	for _, p := range live {
		resp.Peers = append(resp.Peers, vpnapi.Peer{
			PublicKey: p.PublicKey,
			Address:   p.Address,
			CreatedAt: p.CreatedAt,
			ExpiresAt: p.ExpiresAt,
		})
	}
	r.writeJSON(w, resp)
}

func (r *RestAPI) handleRevoke(w http.ResponseWriter, req *http.Request) {
	var body vpnapi.RevokeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 4096)).Decode(&body); err != nil {
		writeJSONError(w, errInvalidBody, http.StatusBadRequest)
		return
	}
	key, err := keys.ParsePublicKey(body.PublicKey)
	if err != nil {
		writeJSONError(w, err, http.StatusBadRequest)
		return
	}

	found, err := r.peers.Evict(req.Context(), key)
	if err != nil {
		if errors.Is(err, lifecycle.ErrDeactivationFailed) {
			writeJSONError(w, errRevokeFailed, http.StatusBadGateway)
			return
		}
		r.logger.Error("error revoking peer", "public_key", key.ShortString(), "error", err)
		writeJSONError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if !found {
		writeJSONError(w, errPeerNotFound, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *RestAPI) handleHistory(w http.ResponseWriter, req *http.Request) {
	if r.history == nil {
		writeJSONError(w, errHistoryDisabled, http.StatusNotFound)
		return
	}

	limit := store.DefaultListLimit
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, errInvalidLimit, http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := r.history.ListRecords(req.Context(), limit)
	if err != nil {
		r.logger.Error("error listing history", "error", err)
		writeJSONError(w, errInternal, http.StatusInternalServerError)
		return
	}

	resp := vpnapi.HistoryResponse{Records: make([]vpnapi.HistoryRecord, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, vpnapi.HistoryRecord{
			PublicKey:  rec.PublicKey,
			Address:    rec.Address,
			CreatedAt:  rec.CreatedAt,
			ExpiresAt:  rec.ExpiresAt,
			EvictedAt:  rec.EvictedAt,
			EvictCause: rec.EvictCause,
		})
	}
	r.writeJSON(w, resp)
}
