// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package rpc exposes the query protocol over gRPC.
//
// Messages travel as JSON through a registered "json" codec and the service
// descriptor is written by hand, so no generated code is involved. Responses
// are protocol.Response values; the transport adds only a bearer token.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sqlexplorer.Query"

// SubmitRequest starts a query.
type SubmitRequest struct {
	DBID   string `json:"dbid"`
	Schema string `json:"schema,omitempty"`
	SQL    string `json:"sql"`
}

// TaskRequest names a task to poll or cancel.
type TaskRequest struct {
	TaskID string `json:"taskid"`
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
