// Package dialer provides outbound dialing implementations used by
// socksonsocks.
//
// Dialers implement a small interface (DialContext) and establish outbound
// connections either directly or through an upstream SOCKS5 proxy. The SOCKS5
// dialer connects to the proxy endpoint first and then runs the handshake
// from internal/socks5 over that connection.
package dialer
