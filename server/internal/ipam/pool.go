package ipam

import (
	"errors"
	"fmt"
	"net/netip"

	"go4.org/netipx"
)

var ErrPoolExhausted = errors.New("no free ip addresses in prefix available")

// Pool is the fixed range of peer addresses inside a prefix. The network
// address, the server's own address (network+1) and the broadcast address are
// reserved. Pool keeps no allocation state; callers pass the set of addresses
// currently held.
type Pool struct {
	prefix netip.Prefix
	first  netip.Addr
	last   netip.Addr
}

func New(prefix netip.Prefix) (*Pool, error) {
	if !prefix.IsValid() || !prefix.Addr().Is4() {
		return nil, fmt.Errorf("pool prefix must be a valid ipv4 prefix: %s", prefix)
	}
	if prefix.Bits() > 30 {
		return nil, fmt.Errorf("pool prefix %s is too small", prefix)
	}
	prefix = prefix.Masked()

	r := netipx.RangeOfPrefix(prefix)
	return &Pool{
		prefix: prefix,
		first:  r.From().Next().Next(),
		last:   r.To().Prev(),
	}, nil
}

func (p *Pool) GetPrefix() netip.Prefix {
	return p.prefix
}

// ServerAddr is the address reserved for the server side of the tunnel.
func (p *Pool) ServerAddr() netip.Addr {
	return p.prefix.Addr().Next()
}

func (p *Pool) Range() netipx.IPRange {
	return netipx.IPRangeFrom(p.first, p.last)
}

// Contains reports whether ip is an assignable peer address.
func (p *Pool) Contains(ip netip.Addr) bool {
	return p.Range().Contains(ip)
}

// Size is the number of assignable addresses.
func (p *Pool) Size() int {
	return 1<<(32-p.prefix.Bits()) - 3
}

// Allocate returns the lowest assignable address not contained in inUse.
// It does not reserve the address.
func (p *Pool) Allocate(inUse *netipx.IPSet) (netip.Addr, error) {
	for ip := p.first; ip.Compare(p.last) <= 0; ip = ip.Next() {
		if inUse == nil || !inUse.Contains(ip) {
			return ip, nil
		}
	}
	return netip.Addr{}, ErrPoolExhausted
}

