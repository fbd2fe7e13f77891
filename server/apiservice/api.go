package apiservice

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/pkg/vpnapi"
	"github.com/caldog20/tempnet/server/internal/lifecycle"
	"github.com/caldog20/tempnet/server/internal/peer"
	"github.com/caldog20/tempnet/server/internal/profile"
	"github.com/caldog20/tempnet/server/store"
)

//go:generate mockgen -source=api.go -destination=mocks/mocks.go -package=mocks PeerService,Renderer,HistoryLister

// PeerService is the lifecycle surface the API drives.
type PeerService interface {
	Create(ctx context.Context) (*lifecycle.Grant, error)
	Evict(ctx context.Context, key keys.PublicKey) (bool, error)
	Status() lifecycle.Status
	Peers() []peer.Peer
}

type Renderer interface {
	Render(priv keys.PrivateKey, addr netip.Addr, bits int) (profile.Profile, error)
}

type HistoryLister interface {
	ListRecords(ctx context.Context, limit int) ([]store.Record, error)
}

type Config struct {
	APIKey     string
	PrefixBits int
}

type RestAPI struct {
	peers    PeerService
	renderer Renderer
	apiKey   []byte
	bits     int

	history HistoryLister
	events  http.Handler
	metrics http.Handler
	logger  *slog.Logger
}

type Option func(*RestAPI)

func WithLogger(l *slog.Logger) Option {
	return func(r *RestAPI) {
		r.logger = l
	}
}

// WithHistory enables GET /vpn/history.
func WithHistory(h HistoryLister) Option {
	return func(r *RestAPI) {
		r.history = h
	}
}

// WithEvents mounts an event stream handler at GET /vpn/events.
func WithEvents(h http.Handler) Option {
	return func(r *RestAPI) {
		r.events = h
	}
}

// WithMetrics serves h unauthenticated at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(r *RestAPI) {
		r.metrics = h
	}
}

func New(peers PeerService, renderer Renderer, conf Config, opts ...Option) *RestAPI {
	r := &RestAPI{
		peers:    peers,
		renderer: renderer,
		apiKey:   []byte(conf.APIKey),
		bits:     conf.PrefixBits,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RestAPI) RegisterRoutes(router chi.Router) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(r.requestLogger)

	if r.metrics != nil {
		router.Method(http.MethodGet, "/metrics", r.metrics)
	}

	router.Route("/vpn", func(vpn chi.Router) {
		vpn.Use(r.requireAPIKey)
		vpn.Post("/create", r.handleCreate)
		vpn.Get("/status", r.handleStatus)
		vpn.Get("/peers", r.handlePeers)
		vpn.Post("/revoke", r.handleRevoke)
		vpn.Get("/history", r.handleHistory)
		if r.events != nil {
			vpn.Method(http.MethodGet, "/events", r.events)
		}
	})
}

// Handler returns a router with all routes registered.
func (r *RestAPI) Handler() http.Handler {
	router := chi.NewRouter()
	r.RegisterRoutes(router)
	return router
}

func (r *RestAPI) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got := []byte(req.Header.Get(vpnapi.APIKeyHeader))
		if len(r.apiKey) == 0 || subtle.ConstantTimeCompare(got, r.apiKey) != 1 {
			writeJSONError(w, errUnauthorized, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *RestAPI) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		r.logger.Debug("http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(req.Context()),
		)
	})
}
