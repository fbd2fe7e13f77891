package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/server/apiservice"
	"github.com/caldog20/tempnet/server/config"
	"github.com/caldog20/tempnet/server/eventservice"
	"github.com/caldog20/tempnet/server/internal/ipam"
	"github.com/caldog20/tempnet/server/internal/lifecycle"
	"github.com/caldog20/tempnet/server/internal/metrics"
	"github.com/caldog20/tempnet/server/internal/profile"
	"github.com/caldog20/tempnet/server/internal/wgctl"
	"github.com/caldog20/tempnet/server/store"
	"github.com/caldog20/tempnet/server/stunservice"
)

const shutdownTimeout = 10 * time.Second

var (
	configDir = flag.String("config", "", "directory holding config.json - if unset, the os config dir is used")
	httpPort  = flag.Int("http-port", 0, "http listen port")
	iface     = flag.String("interface", "", "wireguard interface to manage")
	debugMode = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("tempnet exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	conf, err := getConfig()
	if err != nil {
		return err
	}

	logger := newLogger(conf)
	slog.SetDefault(logger)

	generated, err := conf.EnsureAPIKey()
	if err != nil {
		return fmt.Errorf("generating api key: %w", err)
	}
	if generated {
		logger.Warn("no api key configured, generated one for this run", "api_key", conf.APIKey)
	}

	pool, err := ipam.New(conf.NetworkPrefix)
	if err != nil {
		return err
	}

	wg := wgctl.New(conf.Interface)

	serverKey, err := serverPublicKey(ctx, conf.ServerPublicKeyPath, wg)
	if err != nil {
		return fmt.Errorf("loading server public key: %w", err)
	}

	endpoint := conf.ServerEndpoint
	if endpoint == "" {
		endpoint, err = stunservice.Endpoint(ctx, conf.StunServer, stunservice.DefaultListenPort)
		if err != nil {
			return fmt.Errorf("discovering server endpoint: %w", err)
		}
		logger.Info("discovered server endpoint", "endpoint", endpoint)
	}

	renderer, err := profile.NewRenderer(profile.Server{
		PublicKey: serverKey,
		Endpoint:  endpoint,
		DNS:       conf.DNS,
		Keepalive: conf.PersistentKeepalive,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := eventservice.NewHub(eventservice.WithLogger(logger))
	defer hub.Close()

	opts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithMetrics(metrics.New(reg)),
		lifecycle.WithNotifier(hub),
	}
	apiOpts := []apiservice.Option{
		apiservice.WithLogger(logger),
		apiservice.WithEvents(hub),
		apiservice.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	}

	history, err := openHistory(conf)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	if history != nil {
		defer history.Close()
		opts = append(opts, lifecycle.WithRecorder(history))
		apiOpts = append(apiOpts, apiservice.WithHistory(history))
	}

	manager, err := lifecycle.New(pool, keys.NewGenerator(), wg, lifecycle.Config{
		MaxPeers: conf.MaxPeers,
		TTL:      conf.PeerTTL.Std(),
	}, opts...)
	if err != nil {
		return err
	}

	removed, err := manager.Reconcile(ctx, wg)
	if err != nil {
		logger.Warn("startup reconciliation incomplete", "removed", removed, "error", err)
	} else if removed > 0 {
		logger.Info("removed orphaned peers from interface", "removed", removed)
	}

	sweeper := lifecycle.NewSweeper(manager, conf.SweepInterval.Std(), conf.DeactivationWarnAfter)

	api := apiservice.New(manager, renderer, apiservice.Config{
		APIKey:     conf.APIKey,
		PrefixBits: pool.GetPrefix().Bits(),
	}, apiOpts...)

	router := chi.NewRouter()
	api.RegisterRoutes(router)

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	l, err := listen(conf)
	if err != nil {
		return err
	}
	logger.Info("http server listening",
		"addr", l.Addr().String(),
		"interface", wg.Name(),
		"network", conf.NetworkPrefix.String(),
		"max_peers", conf.MaxPeers,
		"peer_ttl", conf.PeerTTL.Std(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func getConfig() (*config.Config, error) {
	dir := *configDir
	if dir == "" {
		dir = config.DefaultDir()
	}

	conf, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := conf.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	// Flags are prioritized over config entries and env
	// These are not written back to the config file
	if *httpPort != 0 {
		conf.HTTPPort = *httpPort
	}
	if *iface != "" {
		conf.Interface = *iface
	}
	if *debugMode {
		conf.Debug = true
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return conf, nil
}

func newLogger(conf *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if conf.Debug {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if conf.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, hopts))
}

// serverPublicKey reads the key file written by `wg genkey | wg pubkey`,
// falling back to asking the interface.
func serverPublicKey(ctx context.Context, path string, wg *wgctl.Interface) (keys.PublicKey, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			return keys.ParsePublicKey(strings.TrimSpace(string(raw)))
		}
		if !errors.Is(err, os.ErrNotExist) {
			return keys.PublicKey{}, err
		}
		slog.Warn("server public key file not found, asking interface", "path", path)
	}
	return wg.PublicKey(ctx)
}

// openHistory returns nil when history is disabled.
func openHistory(conf *config.Config) (store.Store, error) {
	switch conf.HistoryBackend {
	case config.HistoryBolt:
		return store.NewBoltStore(conf.StorePath)
	case config.HistorySqlite:
		return store.NewSqlStore(conf.StorePath)
	default:
		return nil, nil
	}
}

func listen(conf *config.Config) (net.Listener, error) {
	if conf.AutoCertDomain != "" {
		return autocert.NewListener(conf.AutoCertDomain), nil
	}
	return net.Listen("tcp", fmt.Sprintf(":%d", uint16(conf.HTTPPort)))
}
