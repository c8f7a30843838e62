package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

type closeWriter interface {
	CloseWrite() error
}

// CopyBidirectional copies in to conn and conn to out. When in reaches EOF
// the write side of conn is half-closed if it supports CloseWrite, and the
// relay keeps reading until the peer closes. It returns when conn reaches EOF,
// a copy fails, or ctx is done, and always closes conn.
func CopyBidirectional(ctx context.Context, conn net.Conn, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var closeOnce sync.Once
	closeConn := func() {
		closeOnce.Do(func() {
			_ = conn.Close()
		})
	}
	defer closeConn()

	// A Read blocked on in can't be interrupted, so this copy is not waited
	// for. It reports failure by cancelling ctx.
	go func() {
		if _, err := io.Copy(conn, in); err != nil {
			cancel(fmt.Errorf("write to tunnel: %w", err))
			return
		}
		if cw, ok := conn.(closeWriter); ok {
			_ = cw.CloseWrite()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel(nil)
		if _, err := io.Copy(out, conn); err != nil && ctx.Err() == nil {
			return fmt.Errorf("read from tunnel: %w", err)
		}
		return nil
	})

	// If the context is canceled, close conn to unblock Copy.
	g.Go(func() error {
		<-gctx.Done()
		closeConn()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}
