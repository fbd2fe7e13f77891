package wgctl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os/exec"
	"strings"

	"github.com/caldog20/tempnet/pkg/keys"
)

const DefaultInterface = "wg0"

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

// Interface manages peers of one WireGuard interface through wg(8).
type Interface struct {
	name   string
	wgPath string
	runner Runner
}

type Option func(*Interface)

func WithRunner(r Runner) Option {
	return func(i *Interface) {
		i.runner = r
	}
}

func WithBinary(path string) Option {
	return func(i *Interface) {
		if path != "" {
			i.wgPath = path
		}
	}
}

func New(name string, opts ...Option) *Interface {
	if name == "" {
		name = DefaultInterface
	}
	i := &Interface{
		name:   name,
		wgPath: "wg",
		runner: execRunner{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Interface) Name() string {
	return i.name
}

func (i *Interface) Activate(ctx context.Context, key keys.PublicKey, addr netip.Addr) error {
	if !addr.IsValid() {
		return errors.New("invalid peer address")
	}
	allowed := netip.PrefixFrom(addr, addr.BitLen())
	_, err := i.runner.Run(ctx, i.wgPath, "set", i.name, "peer", key.EncodeToString(), "allowed-ips", allowed.String())
	return err
}

func (i *Interface) Deactivate(ctx context.Context, key keys.PublicKey) error {
	_, err := i.runner.Run(ctx, i.wgPath, "set", i.name, "peer", key.EncodeToString(), "remove")
	return err
}

// ListPeers parses `wg show <iface> allowed-ips`. Each line is a public key
// followed by tab separated allowed prefixes, or "(none)".
func (i *Interface) ListPeers(ctx context.Context) (map[keys.PublicKey][]netip.Prefix, error) {
	out, err := i.runner.Run(ctx, i.wgPath, "show", i.name, "allowed-ips")
	if err != nil {
		return nil, err
	}
	return parseAllowedIPs(out)
}

// PublicKey returns the interface's own public key.
func (i *Interface) PublicKey(ctx context.Context) (keys.PublicKey, error) {
	out, err := i.runner.Run(ctx, i.wgPath, "show", i.name, "public-key")
	if err != nil {
		return keys.PublicKey{}, err
	}
	return keys.ParsePublicKey(strings.TrimSpace(string(out)))
}

func parseAllowedIPs(out []byte) (map[keys.PublicKey][]netip.Prefix, error) {
	peers := make(map[keys.PublicKey][]netip.Prefix)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		key, err := keys.ParsePublicKey(fields[0])
		if err != nil {
			return nil, fmt.Errorf("parsing peer key %q: %w", fields[0], err)
		}

		prefixes := make([]netip.Prefix, 0, len(fields)-1)
		for _, f := range fields[1:] {
			if f == "(none)" {
				continue
			}
			p, err := netip.ParsePrefix(f)
			if err != nil {
				return nil, fmt.Errorf("parsing allowed ip %q: %w", f, err)
			}
			prefixes = append(prefixes, p)
		}
		peers[key] = prefixes
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return peers, nil
}
