// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RPCErrorType represents the category of a transport error.
type RPCErrorType int

const (
	RPCErrorUnknown RPCErrorType = iota
	RPCErrorNetwork
	RPCErrorAuth
	RPCErrorTimeout
	RPCErrorInternal
	RPCErrorUnavailable
	RPCErrorRefused
	RPCErrorDNS
)

// ClassifyRPCError categorizes an error returned by the gRPC client or the
// network below it.
func ClassifyRPCError(err error) RPCErrorType {
	if err == nil {
		return RPCErrorUnknown
	}
	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return RPCErrorDNS
	}
	if stderrors.Is(err, syscall.ECONNREFUSED) {
		return RPCErrorRefused
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return RPCErrorTimeout
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return RPCErrorAuth
		case codes.DeadlineExceeded:
			return RPCErrorTimeout
		case codes.Internal:
			return RPCErrorInternal
		case codes.Unavailable:
			if strings.Contains(strings.ToLower(st.Message()), "connection refused") {
				return RPCErrorRefused
			}
			return RPCErrorUnavailable
		}
	}
	return ParseRPCError(err.Error())
}

// ParseRPCError categorizes an error message.
func ParseRPCError(errMsg string) RPCErrorType {
	lower := strings.ToLower(errMsg)

	if strings.Contains(lower, "connection refused") {
		return RPCErrorRefused
	}
	if strings.Contains(lower, "rst_stream") || strings.Contains(lower, "connection reset") {
		return RPCErrorNetwork
	}
	if strings.Contains(lower, "internal_error") {
		return RPCErrorInternal
	}
	if strings.Contains(lower, "unavailable") {
		return RPCErrorUnavailable
	}
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout") {
		return RPCErrorTimeout
	}
	if strings.Contains(lower, "unauthenticated") || strings.Contains(lower, "unauthorized") {
		return RPCErrorAuth
	}
	return RPCErrorUnknown
}

// FormatRPCError formats a transport error for the terminal.
func FormatRPCError(err error, addr string) string {
	errType := ClassifyRPCError(err)

	var builder strings.Builder
	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Query server unreachable"))
	builder.WriteString("\n\n")

	switch errType {
	case RPCErrorRefused:
		fmt.Fprintf(&builder, "Nothing is listening on %s.\n", addr)
		builder.WriteString("Start the server with 'sqlexplorer serve' or check --server.\n")
	case RPCErrorDNS:
		fmt.Fprintf(&builder, "Cannot resolve %s.\n", addr)
		builder.WriteString("Check the host name passed to --server.\n")
	case RPCErrorNetwork:
		builder.WriteString("The connection to the query server was interrupted.\n")
		builder.WriteString("A proxy or firewall may have closed it.\n")
	case RPCErrorInternal:
		builder.WriteString("The query server reported an internal error.\n")
		builder.WriteString("Its log has the details.\n")
	case RPCErrorUnavailable:
		builder.WriteString("The query server is unavailable or shutting down.\n")
	case RPCErrorTimeout:
		builder.WriteString("The query server did not answer in time.\n")
		builder.WriteString("The query keeps running on the server until it finishes or is cancelled.\n")
	case RPCErrorAuth:
		builder.WriteString("The query server rejected the token.\n")
		builder.WriteString("Pass the server token with --token or SQLEXPLORER_TOKEN.\n")
	default:
		builder.WriteString("The request to the query server failed.\n")
	}

	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}
	return builder.String()
}

// PresentRPCError prints a formatted transport error.
func PresentRPCError(err error, addr string) {
	pterm.Println()
	pterm.Println(FormatRPCError(err, addr))
	pterm.Println()
}
