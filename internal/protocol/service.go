// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package protocol implements the long-polling query lifecycle shared by the
// HTTP and gRPC transports.
//
// A query is submitted, answered with a task id tagged "retry", and polled
// until the outcome is ready. Each poll waits at most the configured poll
// timeout, which must stay below the transport's request timeout.
package protocol

import (
	"context"
	"log/slog"
	"time"

	"sqlexplorer/cli/internal/errors"
	"sqlexplorer/cli/internal/sqlexec"
	"sqlexplorer/cli/internal/task"
)

// DefaultPollTimeout is used when no poll timeout is configured.
const DefaultPollTimeout = 118 * time.Second

// Status tags a protocol response.
type Status string

const (
	StatusRetry     Status = "retry"
	StatusData      Status = "data"
	StatusError     Status = "error"
	StatusNeedPass  Status = "need-pass"
	StatusCancelled Status = "cancelled"
)

// PassInfo tells the client which credentials to ask for.
type PassInfo struct {
	DBID string `json:"db_id"`
	User string `json:"db_user"`
}

// Response is the outcome of one protocol call.
type Response struct {
	Status   Status          `json:"status"`
	TaskID   string          `json:"task_id,omitempty"`
	Data     *sqlexec.Result `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
	Kind     errors.Kind     `json:"kind,omitempty"`
	PassInfo *PassInfo       `json:"pass_info,omitempty"`
}

// Terminal reports whether the client should stop polling.
func (r Response) Terminal() bool { return r.Status != StatusRetry }

// CredentialChecker reports whether a connection can be used without
// asking for a password, and the known user when it cannot.
type CredentialChecker interface {
	HasCredentials(dbid string) (bool, string, error)
}

// Runner executes one statement.
type Runner interface {
	Execute(ctx context.Context, dbid, sql, schema string) (*sqlexec.Result, error)
}

// Service implements submit, poll and cancel over a task registry.
type Service struct {
	creds       CredentialChecker
	runner      Runner
	tasks       *task.Registry[*sqlexec.Result]
	pollTimeout time.Duration
	logger      *slog.Logger
}

// Options configures a Service.
type Options struct {
	PollTimeout time.Duration
	Logger      *slog.Logger
}

// NewService wires the protocol to its collaborators. The registry is shared
// with whoever sweeps or closes it.
func NewService(creds CredentialChecker, runner Runner, tasks *task.Registry[*sqlexec.Result], opts Options) *Service {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		creds:       creds,
		runner:      runner,
		tasks:       tasks,
		pollTimeout: opts.PollTimeout,
		logger:      opts.Logger,
	}
}

// PollTimeout returns the longest time a Poll waits.
func (s *Service) PollTimeout() time.Duration { return s.pollTimeout }

// Submit starts sql on dbid.
func (s *Service) Submit(ctx context.Context, dbid, sql string) Response {
	return s.SubmitIn(ctx, dbid, "", sql)
}

// SubmitIn starts sql on dbid inside database or schema (empty for the
// connection default). Missing credentials short-circuit with a need-pass
// response and no task is created.
func (s *Service) SubmitIn(_ context.Context, dbid, schema, sql string) Response {
	ok, user, err := s.creds.HasCredentials(dbid)
	if err != nil {
		return errorResponse("", err)
	}
	if !ok {
		return Response{Status: StatusNeedPass, PassInfo: &PassInfo{DBID: dbid, User: user}}
	}

	id := s.tasks.Submit(func(ctx context.Context) (*sqlexec.Result, error) {
		return s.runner.Execute(ctx, dbid, sql, schema)
	})
	s.logger.Debug("query submitted", "task", id, "dbid", dbid)
	return Response{Status: StatusRetry, TaskID: id}
}

// Poll waits for taskID up to the poll timeout.
func (s *Service) Poll(ctx context.Context, taskID string) Response {
	p := s.tasks.Poll(ctx, taskID, s.pollTimeout)
	switch p.State {
	case task.Pending:
		return Response{Status: StatusRetry, TaskID: taskID}
	case task.NotFound:
		return Response{Status: StatusError, TaskID: taskID, Error: "task not exists", Kind: errors.TaskNotFound}
	}
	if p.Err != nil {
		s.logger.Debug("query failed", "task", taskID, "error", p.Err)
		return errorResponse(taskID, p.Err)
	}
	data := p.Value
	if data == nil {
		data = &sqlexec.Result{}
	}
	return Response{Status: StatusData, TaskID: taskID, Data: data}
}

// Cancel drops taskID. It always succeeds; unknown ids are ignored.
func (s *Service) Cancel(taskID string) Response {
	if s.tasks.Cancel(taskID) {
		s.logger.Debug("query cancelled", "task", taskID)
	}
	return Response{Status: StatusCancelled, TaskID: taskID}
}

func errorResponse(taskID string, err error) Response {
	kind := errors.KindOf(err)
	if kind == "" {
		kind = errors.Execution
	}
	return Response{Status: StatusError, TaskID: taskID, Error: err.Error(), Kind: kind}
}
