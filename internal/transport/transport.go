// Package transport is the client-facing collaborator (spec §6): JSON-RPC
// 2.0 over a WebSocket connection, session bookkeeping, optional bearer-
// token auth, and max_clients connection limiting. The core engine never
// imports this package; it is wired the other way, by cmd/codemill.
// Grounded on the teacher's MCPServer (internal/mcp/server.go): same
// upgrader-then-per-connection-goroutine shape, same uuid-keyed session
// table guarded by sync.RWMutex, generalized from the teacher's flat tool
// map to a Dispatch callback that routes through internal/registry.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/helixforge/codemill/internal/auth"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/logging"
)

// Message is one JSON-RPC 2.0 envelope, request or response (spec §6).
type Message struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result interface{}     `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object. Codes follow spec §6: -32700
// parse error, -32600 invalid request, -32601 method not found, -32602
// invalid params, -1 application error (engineerr.Kind differentiates
// further in Data).
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeApplicationErr = -1
)

// Dispatch is the bridge into the engine. method is the client-facing tool
// name (spec §4.G vocabulary); params is the raw "params" object from the
// incoming message. Implementations typically wrap registry.Registry.
type Dispatch func(ctx context.Context, method string, params json.RawMessage) (interface{}, error)

// Session is one connected client (spec §6's "connection" unit), grounded
// on the teacher's MCPSession.
type Session struct {
	ID        string
	Conn      *websocket.Conn
	Project   string
	CreatedAt time.Time
	mu        sync.Mutex
}

func (s *Session) send(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteJSON(msg)
}

// Server is the WebSocket/JSON-RPC transport (spec §6). It owns
// connection limiting and optional auth; the engine itself is oblivious
// to both (spec §5: "the transport layer enforces max_clients; the core
// engine is oblivious").
type Server struct {
	upgrader   websocket.Upgrader
	dispatch   Dispatch
	validator  *auth.Validator
	maxClients int
	log        *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Options configures a Server (spec §6 / SPEC_FULL.md §10 ServerConfig).
type Options struct {
	MaxClients int
	Validator  *auth.Validator // nil disables auth
	Log        *logging.Logger
}

func NewServer(dispatch Dispatch, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logging.DefaultLogger()
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = 64
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dispatch:   dispatch,
		validator:  opts.Validator,
		maxClients: opts.MaxClients,
		log:        opts.Log,
		sessions:   map[string]*Session{},
	}
}

// Router builds the HTTP mux this server answers on: /ws for the
// WebSocket upgrade, /healthz for liveness.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "sessions": n})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.validator != nil {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		project := r.URL.Query().Get("project")
		if _, err := s.validator.Validate(token, project); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
	}

	s.mu.Lock()
	if len(s.sessions) >= s.maxClients {
		s.mu.Unlock()
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}
	s.mu.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(fmt.Sprintf("websocket upgrade failed: %v", err))
		return
	}

	session := &Session{
		ID:        uuid.New().String(),
		Conn:      conn,
		Project:   r.URL.Query().Get("project"),
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	s.log.Info("session started", logging.Fields{"session": session.ID})

	s.serve(session)
}

func (s *Server) serve(session *Session) {
	defer func() {
		session.Conn.Close()
		s.mu.Lock()
		delete(s.sessions, session.ID)
		s.mu.Unlock()
		s.log.Info("session ended", logging.Fields{"session": session.ID})
	}()

	for {
		var msg Message
		err := session.Conn.ReadJSON(&msg)
		if err == nil {
			go s.handle(session, msg)
			continue
		}
		if _, closed := err.(*websocket.CloseError); closed {
			return
		}
		// Malformed frame on an otherwise-open connection: report and keep
		// the session alive rather than dropping it.
		s.reply(session, msg.ID, nil, &RPCError{Code: codeParseError, Message: "parse error"})
	}
}

func (s *Server) handle(session *Session, msg Message) {
	if msg.Method == "" {
		s.reply(session, msg.ID, nil, &RPCError{Code: codeInvalidRequest, Message: "missing method"})
		return
	}

	ctx := context.Background()
	result, err := s.dispatch(ctx, msg.Method, msg.Params)
	if err != nil {
		s.reply(session, msg.ID, nil, mapError(err))
		return
	}
	s.reply(session, msg.ID, result, nil)
}

func (s *Server) reply(session *Session, id string, result interface{}, rpcErr *RPCError) {
	resp := &Message{ID: id, Result: result, Error: rpcErr}
	if err := session.send(resp); err != nil {
		s.log.Warn(fmt.Sprintf("failed to write response to session %s: %v", session.ID, err))
	}
}

// mapError classifies an engine error onto a JSON-RPC error object
// (spec §6): the code comes from engineerr.Kind.JSONRPCCode (-32602,
// -32601, or -1), with Kind and any structured Data attached; an error
// that is not an *engineerr.Error is surfaced at code -1.
func mapError(err error) *RPCError {
	if ee, ok := err.(*engineerr.Error); ok {
		code := ee.Kind.JSONRPCCode()
		data := map[string]interface{}{"kind": string(ee.Kind)}
		for k, v := range ee.Data {
			data[k] = v
		}
		return &RPCError{Code: code, Message: ee.Message, Data: data}
	}
	return &RPCError{Code: codeApplicationErr, Message: err.Error()}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
