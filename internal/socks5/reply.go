package socks5

import (
	"fmt"

	txsocks5 "github.com/txthinking/socks5"
)

const (
	// Version is the SOCKS protocol version byte.
	Version byte = txsocks5.Ver

	// MethodNone is the "no authentication required" method.
	MethodNone byte = txsocks5.MethodNone
	// MethodNoAcceptable is sent by a server that rejects every offered
	// method (RFC 1928: 0xFF).
	MethodNoAcceptable byte = 0xff

	// CmdConnect is the SOCKS5 CONNECT command value.
	CmdConnect byte = txsocks5.CmdConnect

	// Address types.
	ATYPIPv4   byte = txsocks5.ATYPIPv4
	ATYPDomain byte = txsocks5.ATYPDomain
	ATYPIPv6   byte = txsocks5.ATYPIPv6
)

// Reply codes.
const (
	RepSuccess             byte = txsocks5.RepSuccess
	RepServerFailure       byte = txsocks5.RepServerFailure
	RepNotAllowed          byte = txsocks5.RepNotAllowed
	RepNetworkUnreachable  byte = txsocks5.RepNetworkUnreachable
	RepHostUnreachable     byte = txsocks5.RepHostUnreachable
	RepConnectionRefused   byte = txsocks5.RepConnectionRefused
	RepTTLExpired          byte = txsocks5.RepTTLExpired
	RepCommandNotSupported byte = txsocks5.RepCommandNotSupported
	RepAddressNotSupported byte = txsocks5.RepAddressNotSupported
)

// Reply is a decoded CONNECT reply.
type Reply struct {
	// Code is the REP field. Negotiate only returns replies with RepSuccess.
	Code byte
	// Bound is the address and port the proxy reports for the relay.
	Bound Addr
}

// ReplyCodeText returns a human readable name for a REP code.
func ReplyCodeText(code byte) string {
	switch code {
	case RepSuccess:
		return "succeeded"
	case RepServerFailure:
		return "general SOCKS server failure"
	case RepNotAllowed:
		return "connection not allowed by ruleset"
	case RepNetworkUnreachable:
		return "network unreachable"
	case RepHostUnreachable:
		return "host unreachable"
	case RepConnectionRefused:
		return "connection refused"
	case RepTTLExpired:
		return "TTL expired"
	case RepCommandNotSupported:
		return "command not supported"
	case RepAddressNotSupported:
		return "address type not supported"
	default:
		return fmt.Sprintf("unassigned reply code 0x%02x", code)
	}
}
