package dialer

import (
	"net"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	// DialTimeout bounds DNS lookup and TCP connect to the next hop.
	DialTimeout time.Duration
	// NegotiationTimeout bounds the SOCKS5 handshake. Zero means only the
	// caller's context applies.
	NegotiationTimeout time.Duration
	KeepAlive          net.KeepAliveConfig
	// Logger receives per-dial debug events. Nil disables logging.
	Logger *zerolog.Logger
}

func (c Config) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}
