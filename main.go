package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/die-net/socksonsocks/internal/dialer"
	"github.com/die-net/socksonsocks/internal/relay"
)

func main() {
	logger := newLogger(os.Stderr)
	if err := run(&logger); err != nil {
		logger.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run(logger *zerolog.Logger) error {
	var (
		proxyURL = pflag.String("proxy", defaultProxy(), "Proxy URL: socks5://host[:port] | socks5h://host[:port] | direct://")

		dialTimeout        = pflag.Duration("dial-timeout", 10*time.Second, "Timeout for DNS lookup and TCP connect to the proxy")
		negotiationTimeout = pflag.Duration("negotiation-timeout", 10*time.Second, "Timeout for the SOCKS5 handshake and the optional TLS handshake")
		tcpKeepAlive       = pflag.String("tcp-keepalive", "45:45:3", "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")
		useTLS             = pflag.Bool("tls", false, "Layer TLS over the tunnel")
		tlsServerName      = pflag.String("tls-server-name", "", "TLS server name. Defaults to the target host.")
		tlsInsecure        = pflag.Bool("tls-insecure", false, "Skip TLS certificate verification")
		verbose            = pflag.Bool("verbose", false, "Enable debug logging")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] host:port\n\nRelays stdin and stdout to host:port through a SOCKS5 proxy.\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		return errors.New("expected exactly one host:port target")
	}
	target := pflag.Arg(0)

	if *verbose {
		*logger = logger.Level(zerolog.DebugLevel)
	}

	ka, err := parseTCPKeepAlive(*tcpKeepAlive)
	if err != nil {
		return fmt.Errorf("invalid --tcp-keepalive: %w", err)
	}

	d, err := dialer.New(dialer.Config{
		DialTimeout:        *dialTimeout,
		NegotiationTimeout: *negotiationTimeout,
		KeepAlive:          ka,
		Logger:             logger,
	}, *proxyURL)
	if err != nil {
		return fmt.Errorf("invalid --proxy: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return err
	}

	if *useTLS {
		conn, err = startTLS(ctx, conn, target, *tlsServerName, *tlsInsecure, *negotiationTimeout)
		if err != nil {
			return err
		}
	}

	logger.Info().Str("target", target).Bool("tls", *useTLS).Msg("connected")

	err = relay.CopyBidirectional(ctx, conn, os.Stdin, os.Stdout)

	logger.Debug().Msg("shutting down")
	return err
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}

// startTLS runs a TLS client handshake over the tunnel. On error conn is
// closed.
func startTLS(ctx context.Context, conn net.Conn, target, serverName string, insecure bool, timeout time.Duration) (net.Conn, error) {
	if serverName == "" {
		host, _, err := net.SplitHostPort(target)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("tls: %w", err)
		}
		serverName = host
	}

	tc := tls.Client(conn, &tls.Config{
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure, //nolint:gosec // Opt-in via --tls-insecure.
	})

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := tc.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", serverName, err)
	}
	return tc, nil
}

func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return net.KeepAliveConfig{}, errors.New("empty")
	}
	if s == "on" {
		return net.KeepAliveConfig{Enable: true}, nil
	}
	if s == "off" {
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}
	keepIdle, err := parsePositiveInt(parts[0])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepidle: %w", err)
	}
	keepIntvl, err := parsePositiveInt(parts[1])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepintvl: %w", err)
	}
	keepCnt, err := parsePositiveInt(parts[2])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepcnt: %w", err)
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     time.Duration(keepIdle) * time.Second,
		Interval: time.Duration(keepIntvl) * time.Second,
		Count:    keepCnt,
	}, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return n, nil
}

func defaultProxy() string {
	if p := os.Getenv("ALL_PROXY"); p != "" {
		return p
	}

	if p := os.Getenv("all_proxy"); p != "" {
		return p
	}

	return "socks5://127.0.0.1:1080"
}
