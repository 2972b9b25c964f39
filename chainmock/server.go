// Package chainmock is an in-process JSON-RPC-over-WebSocket node double
// used by the transport, storage and extrinsic test suites. It trades
// protocol completeness for determinism: handlers are registered per method
// name and invoked synchronously on each inbound request.
package chainmock

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Handler answers a single JSON-RPC call. Returning an error surfaces it to
// the caller as a JSON-RPC error object.
type Handler func(params json.RawMessage) (interface{}, error)

// Server is a fake chain node speaking the same JSON-RPC/WebSocket protocol
// as a real Substrate node's `ws://` endpoint.
type Server struct {
	httpSrv *httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	conns    []*websocket.Conn
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// New starts a mock node listening on an ephemeral local port.
func New() *Server {
	s := &Server{handlers: make(map[string]Handler)}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveWS)
	s.httpSrv = httptest.NewServer(mux)
	return s
}

// URL returns the ws:// URL clients should Dial.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpSrv.URL, "http")
}

// Handle registers (or replaces) the handler for method.
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// HandleResult is a convenience for handlers that always return the same
// fixed value and never fail.
func (s *Server) HandleResult(method string, result interface{}) {
	s.Handle(method, func(json.RawMessage) (interface{}, error) { return result, nil })
}

// Close shuts the server and all open connections down.
func (s *Server) Close() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
	s.httpSrv.Close()
}

type inboundRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type outboundResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req inboundRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			continue
		}

		s.mu.Lock()
		h, ok := s.handlers[req.Method]
		s.mu.Unlock()

		var resp outboundResponse
		resp.JSONRPC = "2.0"
		resp.ID = req.ID
		if !ok {
			resp.Error = &rpcError{Code: -32601, Message: "method not found: " + req.Method}
		} else {
			result, err := h(req.Params)
			if err != nil {
				resp.Error = &rpcError{Code: -32000, Message: err.Error()}
			} else {
				resp.Result = result
			}
		}

		out, _ := json.Marshal(resp)
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			return
		}
	}
}

// PushNotification sends a raw subscription-style notification frame to
// every currently connected client, as a node does when new data matches a
// subscription. subscription is the id the client received from the
// original subscribe call.
func (s *Server) PushNotification(method, subscription string, result interface{}) {
	type payload struct {
		Subscription string      `json:"subscription"`
		Result       interface{} `json:"result"`
	}
	frame := struct {
		JSONRPC string      `json:"jsonrpc"`
		Method  string      `json:"method"`
		Params  payload     `json:"params"`
	}{
		JSONRPC: "2.0",
		Method:  method,
		Params:  payload{Subscription: subscription, Result: result},
	}
	out, _ := json.Marshal(frame)

	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns...)
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, out)
	}
}
