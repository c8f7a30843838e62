package socks5

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	txsocks5 "github.com/txthinking/socks5"
)

// Negotiate runs a CONNECT handshake for dst over rw, which must already be
// connected to the proxy.
//
// The target is validated before anything is written, so an invalid dst
// leaves rw untouched. If rw has a SetDeadline method and ctx can be
// cancelled, blocked reads and writes are interrupted once ctx is done.
// Negotiate never sets or clears rw's deadline otherwise, so a deadline the
// caller applied beforehand stays in force during and after the handshake.
// After an interruption the deadline is left in the past and rw should be
// closed. Cancellation and context timeouts are reported with
// context.Canceled and context.DeadlineExceeded in the error chain.
//
// Negotiate does not close rw on failure.
func Negotiate(ctx context.Context, rw io.ReadWriter, dst Addr) (*Reply, error) {
	req, err := NewRequest(CmdConnect, dst)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	interrupted := func() bool { return false }
	if d, ok := rw.(deadliner); ok && ctx.Done() != nil {
		interrupted = interruptOnDone(ctx, d)
	}

	rep, err := negotiate(rw, req)
	if interrupted() {
		// A handshake that raced the interruption still leaves rw unusable.
		if err == nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, err
	}
	return rep, nil
}

func negotiate(rw io.ReadWriter, req *txsocks5.Request) (*Reply, error) {
	if err := NegotiateMethod(rw); err != nil {
		return nil, err
	}
	return sendRequest(rw, req)
}

// NegotiateMethod performs method selection, offering only "no
// authentication required".
func NegotiateMethod(rw io.ReadWriter) error {
	if _, err := txsocks5.NewNegotiationRequest([]byte{MethodNone}).WriteTo(rw); err != nil {
		return fmt.Errorf("write method selection: %w", err)
	}

	sel, err := txsocks5.NewNegotiationReplyFrom(rw)
	if err != nil {
		return fmt.Errorf("read method selection: %w", wireError(err))
	}

	switch sel.Method {
	case MethodNone:
		return nil
	case MethodNoAcceptable:
		return ErrNoAcceptableMethods
	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnsupportedMethod, sel.Method)
	}
}

// Connect sends a CONNECT request for dst and reads the reply. Method
// selection must already have completed.
func Connect(rw io.ReadWriter, dst Addr) (*Reply, error) {
	req, err := NewRequest(CmdConnect, dst)
	if err != nil {
		return nil, err
	}
	return sendRequest(rw, req)
}

func sendRequest(rw io.ReadWriter, req *txsocks5.Request) (*Reply, error) {
	if _, err := req.WriteTo(rw); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	return ReadReply(rw)
}

// ReadReply reads one reply message, including the whole bound address, and
// returns a *ReplyError for any REP other than RepSuccess.
func ReadReply(r io.Reader) (*Reply, error) {
	hr := &headerRecorder{r: r}
	rep, err := txsocks5.NewReplyFrom(hr)
	if err != nil {
		return nil, replyFailure(hr, err)
	}
	if rep.Rep != RepSuccess {
		return nil, &ReplyError{Code: rep.Rep}
	}

	bound, err := addrFromWire(rep.Atyp, rep.BndAddr, rep.BndPort)
	if err != nil {
		return nil, fmt.Errorf("read bound address: %w", err)
	}
	return &Reply{Code: rep.Rep, Bound: bound}, nil
}

// headerRecorder keeps the fixed reply header as it is read, so a reply
// whose bound address fails to decode still reports its REP and ATYP.
type headerRecorder struct {
	r   io.Reader
	hdr [4]byte
	n   int
}

func (h *headerRecorder) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	if h.n < len(h.hdr) {
		h.n += copy(h.hdr[h.n:], p[:n])
	}
	return n, err
}

func replyFailure(h *headerRecorder, err error) error {
	if errors.Is(err, txsocks5.ErrVersion) {
		return fmt.Errorf("read reply: %w: 0x%02x", ErrVersionMismatch, h.hdr[0])
	}
	if h.n < len(h.hdr) {
		return fmt.Errorf("read reply: %w", wireError(err))
	}
	if h.hdr[1] != RepSuccess {
		// The failure code is more useful than a malformed bound address.
		return &ReplyError{Code: h.hdr[1]}
	}
	if errors.Is(err, txsocks5.ErrBadReply) {
		if h.hdr[3] == ATYPDomain {
			return fmt.Errorf("read bound address: %w", ErrInvalidDomain)
		}
		return fmt.Errorf("read bound address: %w: 0x%02x", ErrAddressTypeNotSupported, h.hdr[3])
	}
	return fmt.Errorf("read bound address: %w", wireError(err))
}

// wireError maps errors from the txsocks5 readers onto this package's errors.
// A stream that ends before a message starts is still a truncated handshake.
func wireError(err error) error {
	switch {
	case errors.Is(err, txsocks5.ErrVersion):
		return ErrVersionMismatch
	case errors.Is(err, io.EOF):
		return io.ErrUnexpectedEOF
	}
	return err
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// aLongTimeAgo is a non-zero time in the past, used to interrupt blocked I/O.
var aLongTimeAgo = time.Unix(1, 0)

// interruptOnDone moves d's deadline into the past once ctx is done. The
// returned func stops watching and reports whether d was interrupted.
func interruptOnDone(ctx context.Context, d deadliner) func() bool {
	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = d.SetDeadline(aLongTimeAgo)
		close(interrupted)
	})

	return func() bool {
		if stop() {
			return false
		}
		<-interrupted
		return true
	}
}
