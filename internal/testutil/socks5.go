package testutil

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/txthinking/socks5"
)

var errNoAuthNotOffered = errors.New("client did not offer no-auth")

// SOCKS5Accept reads a method selection message from c, selects no-auth, and
// returns the CONNECT request that follows.
func SOCKS5Accept(c net.Conn) (*socks5.Request, error) {
	neg, err := socks5.NewNegotiationRequestFrom(c)
	if err != nil {
		return nil, err
	}

	method := byte(0xff)
	for _, m := range neg.Methods {
		if m == socks5.MethodNone {
			method = m
		}
	}
	if _, err := socks5.NewNegotiationReply(method).WriteTo(c); err != nil {
		return nil, err
	}
	if method != socks5.MethodNone {
		return nil, errNoAuthNotOffered
	}

	return socks5.NewRequestFrom(c)
}

// WriteSOCKS5Reply writes a reply with rep and an all-zero IPv4 bound
// address.
func WriteSOCKS5Reply(c net.Conn, rep byte) error {
	_, err := socks5.NewReply(rep, socks5.ATYPIPv4, []byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00}).WriteTo(c)
	return err
}

// ServeSOCKS5Connect acts as a SOCKS5 proxy for the single connection c: it
// accepts no-auth, dials the requested target and relays until either side
// closes.
func ServeSOCKS5Connect(ctx context.Context, c net.Conn) error {
	req, err := SOCKS5Accept(c)
	if err != nil {
		return err
	}
	if req.Cmd != socks5.CmdConnect {
		return WriteSOCKS5Reply(c, socks5.RepCommandNotSupported)
	}

	d := net.Dialer{}
	dst, err := d.DialContext(ctx, "tcp", req.Address())
	if err != nil {
		return WriteSOCKS5Reply(c, socks5.RepHostUnreachable)
	}
	defer dst.Close()

	a, addr, port, err := socks5.ParseAddress(dst.LocalAddr().String())
	if err != nil {
		return err
	}
	if a == socks5.ATYPDomain {
		addr = addr[1:]
	}
	if _, err := socks5.NewReply(socks5.RepSuccess, a, addr, port).WriteTo(c); err != nil {
		return err
	}

	go func() {
		_, _ = io.Copy(dst, c)
		_ = dst.Close()
	}()
	_, _ = io.Copy(c, dst)

	return nil
}
