// Package socks5 implements the client side of a SOCKS5 (RFC 1928) CONNECT
// handshake over an already established stream.
//
// Only the "no authentication required" method is offered and only the
// CONNECT command is supported. Messages are framed with the types from
// github.com/txthinking/socks5; target validation and the mapping of its
// errors onto this package's typed errors live here.
//
// Negotiate never closes the stream it is given. On success the stream is
// positioned immediately after the server's reply and carries the tunneled
// byte stream, so callers may layer TLS or any other protocol on top.
package socks5
