// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package server exposes the explorer over HTTP under
// <base_url>/jupyterlab-sql-explorer/ and the query protocol over gRPC.
//
// Every HTTP answer is status 200 with a JSON body holding either "data" or
// "error"; missing credentials are reported as the NEED-PASS error and a
// running query as the RETRY error carrying the task id in "data".
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"sqlexplorer/cli/internal/catalog"
	"sqlexplorer/cli/internal/comments"
	"sqlexplorer/cli/internal/connreg"
	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/logging"
	"sqlexplorer/cli/internal/protocol"
)

// Prefix is the path segment all endpoints live under.
const Prefix = "jupyterlab-sql-explorer"

// Pinger verifies that a target accepts the given credentials.
type Pinger interface {
	Ping(ctx context.Context, t dialect.Target) error
}

// Handlers serves the HTTP API.
type Handlers struct {
	Access   *connreg.Access
	Browser  *catalog.Browser
	Protocol *protocol.Service
	Pinger   Pinger
	Token    string
	Logger   *slog.Logger
}

// Routes returns the API mounted under baseURL.
func (h *Handlers) Routes(baseURL string) http.Handler {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	root := path.Join("/", baseURL, Prefix)
	mux := http.NewServeMux()
	mux.HandleFunc(root+"/conns", h.conns)
	mux.HandleFunc(root+"/dbtables", h.dbTables)
	mux.HandleFunc(root+"/columns", h.columns)
	mux.HandleFunc(root+"/pass", h.pass)
	mux.HandleFunc(root+"/query", h.query)
	mux.HandleFunc(root+"/comments", h.comments)
	return h.authenticate(mux)
}

func (h *Handlers) authenticate(next http.Handler) http.Handler {
	if h.Token == "" {
		return next
	}
	want := []byte(h.Token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.URL.Query().Get("token")
		if auth := r.Header.Get("Authorization"); auth != "" {
			scheme, value, _ := strings.Cut(auth, " ")
			if strings.EqualFold(scheme, "token") || strings.EqualFold(scheme, "bearer") {
				got = value
			}
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, v any) { writeJSON(w, map[string]any{"data": v}) }

func writeError(w http.ResponseWriter, msg string) { writeJSON(w, map[string]any{"error": msg}) }

func writeNeedPass(w http.ResponseWriter, dbid, user string) {
	writeJSON(w, map[string]any{
		"error":     "NEED-PASS",
		"pass_info": protocol.PassInfo{DBID: dbid, User: user},
	})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.Logger.Error(msg, "path", r.URL.Path, "error", logging.Mask(err.Error()))
	writeError(w, msg)
}

func (h *Handlers) conns(w http.ResponseWriter, r *http.Request) {
	reg := h.Access.Registry()
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost, http.MethodPut:
		var d connreg.Descriptor
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			writeError(w, "invalid connection: "+err.Error())
			return
		}
		if _, err := reg.Add(d); err != nil {
			h.Logger.Warn("add connection", "dbid", d.ID, "error", err)
			writeError(w, err.Error())
			return
		}
	case http.MethodDelete:
		dbid := r.URL.Query().Get("dbid")
		if err := reg.Delete(dbid); err != nil {
			h.fail(w, r, "can't delete connection "+dbid, err)
			return
		}
		if dbid != "" {
			_ = h.Access.ClearPassword(dbid)
			h.Browser.Invalidate(dbid)
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	nodes, err := h.Browser.Connections(r.Context())
	if err != nil {
		h.fail(w, r, "can't list connections", err)
		return
	}
	writeData(w, nodes)
}

// ready answers NEED-PASS or an error and returns false when dbid cannot be used yet.
func (h *Handlers) ready(w http.ResponseWriter, dbid string) bool {
	ok, user, err := h.Access.HasCredentials(dbid)
	if err != nil {
		writeError(w, err.Error())
		return false
	}
	if !ok {
		writeNeedPass(w, dbid, user)
		return false
	}
	return true
}

func (h *Handlers) dbTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	dbid := q.Get("dbid")
	if !h.ready(w, dbid) {
		return
	}
	nodes, err := h.Browser.Children(r.Context(), dbid, q.Get("db"))
	if err != nil {
		h.fail(w, r, "can't get db/table list of "+dbid, err)
		return
	}
	writeData(w, nodes)
}

func (h *Handlers) columns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	dbid, tbl := q.Get("dbid"), q.Get("tbl")
	if !h.ready(w, dbid) {
		return
	}
	nodes, err := h.Browser.Columns(r.Context(), dbid, q.Get("db"), tbl)
	if err != nil {
		h.Logger.Error("list columns", "dbid", dbid, "table", tbl, "error", logging.Mask(err.Error()))
		writeError(w, "can't get table columns of "+tbl+", reason: "+logging.Mask(err.Error()))
		return
	}
	writeData(w, nodes)
}

type passRequest struct {
	DBID     string `json:"db_id"`
	User     string `json:"db_user"`
	Password string `json:"db_pass"`
}

func (h *Handlers) pass(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var p passRequest
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, "set passwd error : "+err.Error())
			return
		}
		if err := h.Access.SetPassword(r.Context(), p.DBID, p.User, p.Password, h.Pinger.Ping); err != nil {
			h.Logger.Warn("set password", "dbid", p.DBID, "error", logging.Mask(err.Error()))
			writeError(w, "user or passwd error")
			return
		}
		h.Browser.Invalidate(p.DBID)
		writeData(w, "set passwd ok")
	case http.MethodDelete:
		dbid := r.URL.Query().Get("dbid")
		if err := h.Access.ClearPassword(dbid); err != nil {
			h.fail(w, r, "can't clear password", err)
			return
		}
		writeData(w, "delete pass ok")
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type queryRequest struct {
	DBID   string `json:"dbid"`
	SQL    string `json:"sql"`
	Schema string `json:"db,omitempty"`
}

func (h *Handlers) query(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var q queryRequest
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			writeError(w, "query error: "+err.Error())
			return
		}
		writeProtocol(w, h.Protocol.SubmitIn(r.Context(), q.DBID, q.Schema, q.SQL))
	case http.MethodGet:
		writeProtocol(w, h.Protocol.Poll(r.Context(), r.URL.Query().Get("taskid")))
	case http.MethodDelete:
		h.Protocol.Cancel(r.URL.Query().Get("taskid"))
		writeJSON(w, struct{}{})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// writeProtocol renders a protocol response in the extension's JSON shape.
func writeProtocol(w http.ResponseWriter, resp protocol.Response) {
	switch resp.Status {
	case protocol.StatusRetry:
		writeJSON(w, map[string]any{"error": "RETRY", "data": resp.TaskID})
	case protocol.StatusNeedPass:
		writeNeedPass(w, resp.PassInfo.DBID, resp.PassInfo.User)
	case protocol.StatusData:
		writeData(w, resp.Data)
	case protocol.StatusCancelled:
		writeJSON(w, struct{}{})
	default:
		writeError(w, logging.Mask(resp.Error))
	}
}

func (h *Handlers) comments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var c comments.Comment
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, "arg error")
		return
	}
	if err := h.Browser.AddComment(r.Context(), c); err != nil {
		writeError(w, err.Error())
		return
	}
	writeData(w, "set comment ok")
}
