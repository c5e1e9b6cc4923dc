// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"sqlexplorer/cli/internal/protocol"
)

// Server adapts a protocol.Service to QueryServer.
type Server struct {
	svc *protocol.Service
}

// NewServer returns a QueryServer backed by svc.
func NewServer(svc *protocol.Service) *Server { return &Server{svc: svc} }

func (s *Server) Submit(ctx context.Context, in *SubmitRequest) (*protocol.Response, error) {
	if in.DBID == "" || in.SQL == "" {
		return nil, status.Error(codes.InvalidArgument, "dbid and sql are required")
	}
	r := s.svc.SubmitIn(ctx, in.DBID, in.Schema, in.SQL)
	return &r, nil
}

func (s *Server) Poll(ctx context.Context, in *TaskRequest) (*protocol.Response, error) {
	r := s.svc.Poll(ctx, in.TaskID)
	return &r, nil
}

func (s *Server) Cancel(_ context.Context, in *TaskRequest) (*protocol.Response, error) {
	r := s.svc.Cancel(in.TaskID)
	return &r, nil
}

// NewGRPCServer builds a gRPC server exposing svc. A non-empty token must be
// sent as "authorization: Bearer <token>" metadata.
func NewGRPCServer(svc *protocol.Service, token string, logger *slog.Logger) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		logUnary(logger),
		authUnary(token),
	))
	RegisterQueryServer(gs, NewServer(svc))
	return gs
}

func authUnary(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if token == "" {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		for _, v := range md.Get("authorization") {
			got, ok := strings.CutPrefix(v, "Bearer ")
			if ok && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1 {
				return handler(ctx, req)
			}
		}
		return nil, status.Error(codes.Unauthenticated, "invalid or missing token")
	}
}

func logUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{"method", info.FullMethod, "elapsed", time.Since(start).Round(time.Millisecond)}
		if r, ok := resp.(*protocol.Response); ok && r != nil {
			attrs = append(attrs, "status", r.Status)
		}
		if err != nil {
			logger.Warn("rpc failed", append(attrs, "error", err)...)
		} else {
			logger.Debug("rpc", attrs...)
		}
		return resp, err
	}
}
