// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package rpc

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"sqlexplorer/cli/internal/errors"
	"sqlexplorer/cli/internal/protocol"
)

// DialOptions configures Dial.
type DialOptions struct {
	Token string
	// TLS dials with TLS using the host part of addr as server name.
	TLS bool
	// RequestTimeout bounds every call; it must exceed the server poll timeout.
	RequestTimeout time.Duration
	// Extra options, e.g. a custom dialer in tests.
	GRPCOptions []grpc.DialOption
}

// Client calls a remote Query service. It implements protocol.Client.
type Client struct {
	conn    *grpc.ClientConn
	token   string
	timeout time.Duration

	mu      sync.Mutex
	lastErr error
}

var _ protocol.Client = (*Client)(nil)

// Dial prepares a client for addr. The connection is established lazily.
func Dial(addr string, opts DialOptions) (*Client, error) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 120 * time.Second
	}

	transport := grpc.WithTransportCredentials(insecure.NewCredentials())
	if opts.TLS {
		host := addr
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		}
		transport = grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}))
	}
	dialOpts := append([]grpc.DialOption{
		transport,
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodec{}.Name())),
	}, opts.GRPCOptions...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, token: opts.Token, timeout: opts.RequestTimeout}, nil
}

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

// Err returns the last transport error, or nil when the last call got through.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) SubmitIn(ctx context.Context, dbid, schema, sql string) protocol.Response {
	return c.call(ctx, "Submit", &SubmitRequest{DBID: dbid, Schema: schema, SQL: sql})
}

func (c *Client) Poll(ctx context.Context, taskID string) protocol.Response {
	return c.call(ctx, "Poll", &TaskRequest{TaskID: taskID})
}

// Cancel is sent even when the caller's context has ended.
func (c *Client) Cancel(taskID string) protocol.Response {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.call(ctx, "Cancel", &TaskRequest{TaskID: taskID})
}

func (c *Client) call(ctx context.Context, method string, in any) protocol.Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}

	var out protocol.Response
	err := c.conn.Invoke(ctx, fullMethod(method), in, &out)

	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()

	if err != nil {
		msg := err.Error()
		if st, ok := status.FromError(err); ok {
			msg = st.Code().String() + ": " + st.Message()
		}
		return protocol.Response{Status: protocol.StatusError, Error: msg, Kind: errors.NoConnection}
	}
	return out
}
