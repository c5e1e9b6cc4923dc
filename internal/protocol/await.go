// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package protocol

import (
	"context"
)

// Client is the caller side of the protocol, served locally by Service or
// remotely over gRPC.
type Client interface {
	SubmitIn(ctx context.Context, dbid, schema, sql string) Response
	Poll(ctx context.Context, taskID string) Response
	Cancel(taskID string) Response
}

var _ Client = (*Service)(nil)

// Await polls until r is terminal. onRetry, when set, sees every retry. When
// ctx ends the task is cancelled and a cancelled response is returned.
func Await(ctx context.Context, c Client, r Response, onRetry func(Response)) Response {
	for r.Status == StatusRetry {
		if onRetry != nil {
			onRetry(r)
		}
		if ctx.Err() != nil {
			return c.Cancel(r.TaskID)
		}
		next := c.Poll(ctx, r.TaskID)
		if ctx.Err() != nil && next.Status == StatusRetry {
			return c.Cancel(r.TaskID)
		}
		r = next
	}
	return r
}
