// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"bytes"
	"context"
	stderrors "errors"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sqlexplorer/cli/internal/errors"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]pterm.LogLevel{
		"debug":   pterm.LogLevelDebug,
		"WARN":    pterm.LogLevelWarn,
		"error":   pterm.LogLevelError,
		"info":    pterm.LogLevelInfo,
		"":        pterm.LogLevelInfo,
		"verbose": pterm.LogLevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	t.Setenv(EnvVerbose, "")
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Writer: &buf})
	if logger.Enabled(context.Background(), -4) {
		t.Error("debug should be disabled at warn level")
	}
	logger.Warn("careful", "dbid", "pg")
	if !strings.Contains(buf.String(), "careful") {
		t.Errorf("warn output missing: %q", buf.String())
	}

	verbose := New(Options{Level: "error", Verbose: true, Writer: &buf})
	if !verbose.Enabled(context.Background(), -4) {
		t.Error("verbose should enable debug")
	}
}

func TestClassifyRPCError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RPCErrorType
	}{
		{"unauthenticated", status.Error(codes.Unauthenticated, "bad token"), RPCErrorAuth},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), RPCErrorTimeout},
		{"internal", status.Error(codes.Internal, "boom"), RPCErrorInternal},
		{"refused", status.Error(codes.Unavailable, "connection error: dial tcp: connect: connection refused"), RPCErrorRefused},
		{"unavailable", status.Error(codes.Unavailable, "transport is closing"), RPCErrorUnavailable},
		{"syscall refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, RPCErrorRefused},
		{"dns", &net.DNSError{Err: "no such host", Name: "nohost"}, RPCErrorDNS},
		{"reset", stderrors.New("read: connection reset by peer"), RPCErrorNetwork},
		{"other", stderrors.New("something odd"), RPCErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRPCError(tt.err); got != tt.want {
				t.Errorf("ClassifyRPCError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatRPCErrorMasksDetails(t *testing.T) {
	out := FormatRPCError(stderrors.New("dial postgres://u:p@h/db: refused"), "127.0.0.1:8891")
	if strings.Contains(out, "u:p@") {
		t.Errorf("credentials leaked: %q", out)
	}
}

func TestPresentErrorAndHint(t *testing.T) {
	err := errors.New(errors.NeedCredentials, "connection pg needs a password")
	if got := PresentError("query", err); got != "query: connection pg needs a password" {
		t.Errorf("PresentError() = %q", got)
	}
	if Hint(err) == "" {
		t.Error("expected a hint for missing credentials")
	}
	if Hint(stderrors.New("plain")) != "" {
		t.Error("plain errors have no hint")
	}
}
