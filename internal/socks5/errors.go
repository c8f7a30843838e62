package socks5

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionMismatch is returned when a server reply carries a version
	// byte other than 0x05.
	ErrVersionMismatch = errors.New("socks5: protocol version mismatch")
	// ErrNoAcceptableMethods is returned when the server rejects every
	// offered authentication method (0xFF).
	ErrNoAcceptableMethods = errors.New("socks5: no acceptable authentication methods")
	// ErrUnsupportedMethod is returned when the server selects a method that
	// was not offered.
	ErrUnsupportedMethod = errors.New("socks5: server selected unsupported method")
	// ErrDomainTooLong is returned for domain names longer than 255 bytes.
	ErrDomainTooLong = errors.New("socks5: domain name too long")
	// ErrInvalidDomain is returned for empty domain names.
	ErrInvalidDomain = errors.New("socks5: invalid domain name")
	// ErrAddressTypeNotSupported is returned for an unknown ATYP byte.
	ErrAddressTypeNotSupported = errors.New("socks5: address type not supported")
	// ErrRequestFailed matches any *ReplyError via errors.Is.
	ErrRequestFailed = errors.New("socks5: request failed")
)

// ReplyError reports a CONNECT reply with a non-zero REP code.
type ReplyError struct {
	Code byte
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("socks5: request failed: %s", ReplyCodeText(e.Code))
}

// Is reports whether target is ErrRequestFailed or a *ReplyError with the
// same code.
func (e *ReplyError) Is(target error) bool {
	if target == ErrRequestFailed {
		return true
	}
	t, ok := target.(*ReplyError)
	return ok && t.Code == e.Code
}
