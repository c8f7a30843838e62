package main

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestParseTCPKeepAlive(t *testing.T) {
	tests := []struct {
		in      string
		want    net.KeepAliveConfig
		wantErr bool
	}{
		{in: "on", want: net.KeepAliveConfig{Enable: true}},
		{in: " OFF ", want: net.KeepAliveConfig{}},
		{in: "45:45:3", want: net.KeepAliveConfig{Enable: true, Idle: 45 * time.Second, Interval: 45 * time.Second, Count: 3}},
		{in: "", wantErr: true},
		{in: "45:45", wantErr: true},
		{in: "0:45:3", wantErr: true},
		{in: "45:x:3", wantErr: true},
		{in: "45:45:-1", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseTCPKeepAlive(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: err=%v wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("%q: got %+v want %+v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultProxy(t *testing.T) {
	t.Setenv("ALL_PROXY", "")
	t.Setenv("all_proxy", "")
	if got := defaultProxy(); got != "socks5://127.0.0.1:1080" {
		t.Fatalf("got %q", got)
	}

	t.Setenv("all_proxy", "socks5://lower:1080")
	if got := defaultProxy(); got != "socks5://lower:1080" {
		t.Fatalf("got %q", got)
	}

	t.Setenv("ALL_PROXY", "socks5://upper:1080")
	if got := defaultProxy(); got != "socks5://upper:1080" {
		t.Fatalf("got %q", got)
	}
}

func TestNewLoggerReportsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf)

	logger.Debug().Msg("hidden by default")
	logger.Error().Err(errors.New("dial proxy: connection refused")).Msg("exiting")

	out := buf.String()
	if strings.Contains(out, "hidden by default") {
		t.Fatalf("debug message logged at default level: %q", out)
	}
	for _, want := range []string{"exiting", "dial proxy: connection refused"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}
