package stunservice

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/pion/stun"
)

const (
	DefaultServer     = "stun.l.google.com:19302"
	DefaultListenPort = 51820
	defaultTimeout    = 5 * time.Second
)

var ErrNoMappedAddress = errors.New("stun response carried no mapped address")

// Discover asks a STUN server for this host's public IPv4 address.
func Discover(ctx context.Context, server string) (netip.Addr, error) {
	if server == "" {
		server = DefaultServer
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	c, err := stun.Dial("udp4", server)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("dialing stun server %s: %w", server, err)
	}
	defer c.Close()

	type result struct {
		addr netip.Addr
		err  error
	}
	done := make(chan result, 2)

	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	go func() {
		err := c.Do(msg, func(ev stun.Event) {
			if ev.Error != nil {
				done <- result{err: ev.Error}
				return
			}
			var xor stun.XORMappedAddress
			if err := xor.GetFrom(ev.Message); err != nil {
				done <- result{err: fmt.Errorf("%w: %w", ErrNoMappedAddress, err)}
				return
			}
			addr, ok := netip.AddrFromSlice(xor.IP)
			if !ok {
				done <- result{err: ErrNoMappedAddress}
				return
			}
			done <- result{addr: addr.Unmap()}
		})
		if err != nil {
			done <- result{err: err}
		}
	}()

	select {
	case r := <-done:
		return r.addr, r.err
	case <-ctx.Done():
		return netip.Addr{}, ctx.Err()
	}
}

// Endpoint discovers the public address and joins it with the WireGuard
// listen port.
func Endpoint(ctx context.Context, server string, port uint16) (string, error) {
	addr, err := Discover(ctx, server)
	if err != nil {
		return "", err
	}
	if port == 0 {
		port = DefaultListenPort
	}
	return netip.AddrPortFrom(addr, port).String(), nil
}
