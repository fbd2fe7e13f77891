package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	ConfigFileName = "config.json"
	StoreFileName  = "history.db"
)

const (
	HistoryBolt   = "bolt"
	HistorySqlite = "sqlite"
	HistoryNone   = "none"
)

const (
	EnvAPIKey         = "VPN_API_KEY"
	EnvServerEndpoint = "SERVER_ENDPOINT"
	EnvPort           = "PORT"
)

// Duration is a time.Duration that reads and writes Go duration strings.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Interface             string       `json:"interface"`
	NetworkPrefix         netip.Prefix `json:"network_prefix"`
	MaxPeers              int          `json:"max_peers"`
	PeerTTL               Duration     `json:"peer_ttl"`
	SweepInterval         Duration     `json:"sweep_interval"`
	DeactivationWarnAfter int          `json:"deactivation_warn_after"`

	HTTPPort       int    `json:"http_port"`
	APIKey         string `json:"api_key"`
	AutoCertDomain string `json:"autocert_domain"`

	ServerEndpoint      string       `json:"server_endpoint"`
	ServerPublicKeyPath string       `json:"server_public_key_path"`
	DNS                 []netip.Addr `json:"dns"`
	PersistentKeepalive int          `json:"persistent_keepalive"`
	StunServer          string       `json:"stun_server"`

	HistoryBackend string `json:"history_backend"`
	StorePath      string `json:"store_path"`

	LogFormat string `json:"log_format"`
	Debug     bool   `json:"debug_mode"`
}

func (c *Config) ReadConfigFromFile(dir string) error {
	path := filepath.Join(dir, ConfigFileName)
	configFile, err := os.Open(path)
	if err != nil {
		return err
	}
	defer configFile.Close()

	return json.NewDecoder(configFile).Decode(c)
}

// WriteConfigFile writes c to dir, creating the directory if needed. An
// existing file is left untouched.
func (c *Config) WriteConfigFile(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	path := filepath.Join(dir, ConfigFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", " ")
	return enc.Encode(c)
}

// Load reads the config in dir, writing defaults first when none exists.
func Load(dir string) (*Config, error) {
	conf := &Config{}
	err := conf.ReadConfigFromFile(dir)
	if err == nil {
		return conf, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	conf.SetDefaults(dir)
	if err := conf.WriteConfigFile(dir); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}
	return conf, nil
}

func (c *Config) SetDefaults(dir string) {
	*c = Config{
		Interface:             "wg0",
		NetworkPrefix:         netip.MustParsePrefix("10.0.0.0/24"),
		MaxPeers:              200,
		PeerTTL:               Duration(15 * time.Minute),
		SweepInterval:         Duration(time.Minute),
		DeactivationWarnAfter: 5,
		HTTPPort:              3000,
		ServerPublicKeyPath:   "/etc/wireguard/server_publickey",
		DNS: []netip.Addr{
			netip.MustParseAddr("1.1.1.1"),
			netip.MustParseAddr("8.8.8.8"),
		},
		PersistentKeepalive: 25,
		StunServer:          "stun.l.google.com:19302",
		HistoryBackend:      HistoryBolt,
		StorePath:           filepath.Join(dir, StoreFileName),
		LogFormat:           "text",
	}
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := getenv(EnvServerEndpoint); v != "" {
		c.ServerEndpoint = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.HTTPPort = port
	}
	return nil
}

// EnsureAPIKey fills in a random key when none is configured and reports
// whether it did.
func (c *Config) EnsureAPIKey() (bool, error) {
	if c.APIKey != "" {
		return false, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return false, err
	}
	c.APIKey = hex.EncodeToString(b)
	return true, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Interface == "" {
		errs = append(errs, errors.New("interface is required"))
	}
	switch {
	case !c.NetworkPrefix.IsValid():
		errs = append(errs, errors.New("network_prefix is required"))
	case !c.NetworkPrefix.Addr().Is4():
		errs = append(errs, fmt.Errorf("network_prefix %s is not IPv4", c.NetworkPrefix))
	case c.NetworkPrefix.Bits() > 30:
		errs = append(errs, fmt.Errorf("network_prefix %s leaves no room for peers", c.NetworkPrefix))
	}
	if c.MaxPeers <= 0 {
		errs = append(errs, errors.New("max_peers must be positive"))
	}
	if c.PeerTTL <= 0 {
		errs = append(errs, errors.New("peer_ttl must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep_interval must be positive"))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http_port %d out of range", c.HTTPPort))
	}
	switch c.HistoryBackend {
	case HistoryBolt, HistorySqlite:
		if c.StorePath == "" {
			errs = append(errs, errors.New("store_path is required for history"))
		}
	case HistoryNone, "":
	default:
		errs = append(errs, fmt.Errorf("unknown history_backend %q", c.HistoryBackend))
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// DefaultDir returns the directory holding config.json.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "tempnet")
	}
	return filepath.Join(dir, "tempnet")
}
