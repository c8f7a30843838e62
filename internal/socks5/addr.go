package socks5

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"

	txsocks5 "github.com/txthinking/socks5"
)

// MaxDomainLen is the longest domain name a SOCKS5 address can carry.
const MaxDomainLen = 255

// Addr is a SOCKS5 address: an IPv4 address, an IPv6 address or a domain
// name, plus a port. The zero value is not a valid address.
type Addr struct {
	atyp byte
	ip   netip.Addr
	name string
	port uint16
}

// AddrFromIP returns an IPv4 or IPv6 address. IPv4-mapped IPv6 addresses are
// unmapped and any zone is dropped, since SOCKS5 cannot carry either.
func AddrFromIP(ip netip.Addr, port uint16) Addr {
	ip = ip.Unmap().WithZone("")
	atyp := ATYPIPv6
	if ip.Is4() {
		atyp = ATYPIPv4
	}
	return Addr{atyp: atyp, ip: ip, port: port}
}

// DomainAddr returns a domain name address. The name is sent to the proxy
// unresolved.
func DomainAddr(name string, port uint16) (Addr, error) {
	if name == "" {
		return Addr{}, ErrInvalidDomain
	}
	if len(name) > MaxDomainLen {
		return Addr{}, fmt.Errorf("%w: %d bytes", ErrDomainTooLong, len(name))
	}
	return Addr{atyp: ATYPDomain, name: name, port: port}, nil
}

// ParseAddr parses a "host:port" string. IP literals become IP addresses;
// anything else is treated as a domain name.
func ParseAddr(address string) (Addr, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return Addr{}, fmt.Errorf("parse address: %w", err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Addr{}, fmt.Errorf("parse address %q: invalid port %q", address, portStr)
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return AddrFromIP(ip, uint16(port)), nil
	}
	return DomainAddr(host, uint16(port))
}

// Type returns the ATYP byte for a, or 0 for the zero Addr.
func (a Addr) Type() byte { return a.atyp }

// IsValid reports whether a was constructed as one of the address variants.
func (a Addr) IsValid() bool { return a.atyp != 0 }

// IP returns the IP address, or the zero netip.Addr for domain names.
func (a Addr) IP() netip.Addr { return a.ip }

// Name returns the domain name, or "" for IP addresses.
func (a Addr) Name() string { return a.name }

// Port returns the port.
func (a Addr) Port() uint16 { return a.port }

// Host returns the domain name or the textual IP address.
func (a Addr) Host() string {
	if a.atyp == ATYPDomain {
		return a.name
	}
	return a.ip.String()
}

// String returns a in "host:port" form, suitable for net.Dial.
func (a Addr) String() string {
	return net.JoinHostPort(a.Host(), strconv.Itoa(int(a.port)))
}

// wire returns the ATYP, DST.ADDR and DST.PORT fields in the form
// txsocks5.NewRequest expects: domain names without their length prefix.
func (a Addr) wire() (atyp byte, addr, port []byte, err error) {
	port = []byte{byte(a.port >> 8), byte(a.port)}
	switch a.atyp {
	case ATYPIPv4:
		ip4 := a.ip.As4()
		return ATYPIPv4, ip4[:], port, nil
	case ATYPIPv6:
		ip16 := a.ip.As16()
		return ATYPIPv6, ip16[:], port, nil
	case ATYPDomain:
		// NewRequest truncates the length prefix to a byte, so check here.
		if a.name == "" {
			return 0, nil, nil, ErrInvalidDomain
		}
		if len(a.name) > MaxDomainLen {
			return 0, nil, nil, fmt.Errorf("%w: %d bytes", ErrDomainTooLong, len(a.name))
		}
		return ATYPDomain, []byte(a.name), port, nil
	default:
		return 0, nil, nil, fmt.Errorf("%w: 0x%02x", ErrAddressTypeNotSupported, a.atyp)
	}
}

// addrFromWire converts address fields decoded by txsocks5, where domain
// names keep their length prefix, back into an Addr.
func addrFromWire(atyp byte, addr, port []byte) (Addr, error) {
	if len(port) != 2 {
		return Addr{}, fmt.Errorf("invalid port length %d", len(port))
	}
	a := Addr{atyp: atyp, port: uint16(port[0])<<8 | uint16(port[1])}

	switch atyp {
	case ATYPIPv4, ATYPIPv6:
		ip, ok := netip.AddrFromSlice(addr)
		if !ok || ip.Is4() != (atyp == ATYPIPv4) {
			return Addr{}, fmt.Errorf("invalid address length %d for type 0x%02x", len(addr), atyp)
		}
		a.ip = ip
	case ATYPDomain:
		if len(addr) == 0 || int(addr[0]) != len(addr)-1 {
			return Addr{}, ErrInvalidDomain
		}
		a.name = string(addr[1:])
	default:
		return Addr{}, fmt.Errorf("%w: 0x%02x", ErrAddressTypeNotSupported, atyp)
	}
	return a, nil
}

// NewRequest builds a request for cmd and dst, rejecting addresses that
// cannot be encoded.
func NewRequest(cmd byte, dst Addr) (*txsocks5.Request, error) {
	atyp, addr, port, err := dst.wire()
	if err != nil {
		return nil, err
	}
	return txsocks5.NewRequest(cmd, atyp, addr, port), nil
}

// AddrFromRequest returns the destination of a decoded request.
func AddrFromRequest(req *txsocks5.Request) (Addr, error) {
	return addrFromWire(req.Atyp, req.DstAddr, req.DstPort)
}
