package dialer

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/die-net/socksonsocks/internal/socks5"
)

// SOCKS5ProxyDialer tunnels TCP connections through a SOCKS5 proxy using the
// CONNECT command and no authentication.
type SOCKS5ProxyDialer struct {
	cfg       Config
	proxyAddr string
	direct    Dialer
	log       zerolog.Logger
}

func NewSOCKS5ProxyDialer(cfg Config, proxyAddr string) *SOCKS5ProxyDialer {
	return &SOCKS5ProxyDialer{
		cfg:       cfg,
		proxyAddr: proxyAddr,
		direct:    NewDirectDialer(cfg),
		log:       cfg.logger(),
	}
}

// ProxyAddr returns the proxy endpoint in host:port form.
func (d *SOCKS5ProxyDialer) ProxyAddr() string {
	return d.proxyAddr
}

// DialContext connects to the proxy and asks it to CONNECT to address. Host
// names in address are sent to the proxy unresolved. On any failure the
// connection to the proxy is closed.
func (d *SOCKS5ProxyDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, fmt.Errorf("socks5 proxy dial %s %s: unsupported network", network, address)
	}

	dst, err := socks5.ParseAddr(address)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy dial %s %s: %w", network, address, err)
	}

	log := d.log.With().
		Str("dial_id", uuid.NewString()).
		Str("proxy", d.proxyAddr).
		Stringer("target", dst).
		Logger()

	conn, err := d.direct.DialContext(ctx, "tcp", d.proxyAddr)
	if err != nil {
		log.Debug().Err(err).Msg("proxy connect failed")
		return nil, fmt.Errorf("socks5 proxy: %w", err)
	}

	nctx := ctx
	if d.cfg.NegotiationTimeout > 0 {
		var cancel context.CancelFunc
		nctx, cancel = context.WithTimeout(ctx, d.cfg.NegotiationTimeout)
		defer cancel()
	}

	start := time.Now()
	rep, err := socks5.Negotiate(nctx, conn, dst)
	if err != nil {
		_ = conn.Close()
		log.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("socks5 negotiation failed")
		return nil, fmt.Errorf("socks5 proxy dial %s %s: %w", network, address, err)
	}

	log.Debug().Stringer("bound", rep.Bound).Dur("elapsed", time.Since(start)).Msg("socks5 tunnel established")
	return conn, nil
}
