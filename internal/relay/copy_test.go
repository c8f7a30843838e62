package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/die-net/socksonsocks/internal/testutil"
)

func dialEcho(t *testing.T, ctx context.Context) net.Conn {
	t.Helper()

	echoLn := testutil.StartEchoTCPServer(t, ctx)
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", echoLn.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	return conn
}

func TestCopyBidirectionalHalfClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn := dialEcho(t, ctx)

	var out bytes.Buffer
	if err := CopyBidirectional(ctx, conn, strings.NewReader("hello, proxy"), &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hello, proxy" {
		t.Fatalf("got %q", out.String())
	}
}

func TestCopyBidirectionalCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn := dialEcho(t, ctx)

	// Never produces input, like an idle terminal.
	pr, pw := io.Pipe()
	defer pw.Close()

	rctx, rcancel := context.WithCancel(ctx)
	time.AfterFunc(50*time.Millisecond, rcancel)

	if err := CopyBidirectional(rctx, conn, pr, io.Discard); err != nil {
		t.Fatal(err)
	}
	if ctx.Err() != nil {
		t.Fatal("relay did not stop on cancel")
	}
}

func TestCopyBidirectionalInputError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn := dialEcho(t, ctx)
	boom := errors.New("boom")

	err := CopyBidirectional(ctx, conn, iotest.ErrReader(boom), io.Discard)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}
