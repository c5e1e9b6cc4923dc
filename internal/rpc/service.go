// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"

	"google.golang.org/grpc"

	"sqlexplorer/cli/internal/protocol"
)

// QueryServer is the server side of the Query service.
type QueryServer interface {
	Submit(context.Context, *SubmitRequest) (*protocol.Response, error)
	Poll(context.Context, *TaskRequest) (*protocol.Response, error)
	Cancel(context.Context, *TaskRequest) (*protocol.Response, error)
}

// RegisterQueryServer registers srv with s.
func RegisterQueryServer(s grpc.ServiceRegistrar, srv QueryServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*QueryServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Submit", Handler: submitHandler},
			{MethodName: "Poll", Handler: pollHandler},
			{MethodName: "Cancel", Handler: cancelHandler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "sqlexplorer",
	}, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func submitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubmitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Submit")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryServer).Submit(ctx, req.(*SubmitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func pollHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(TaskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).Poll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Poll")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryServer).Poll(ctx, req.(*TaskRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func cancelHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(TaskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).Cancel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Cancel")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryServer).Cancel(ctx, req.(*TaskRequest))
	}
	return interceptor(ctx, in, info, handler)
}
