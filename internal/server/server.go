// Package server exposes a session to panels over HTTP and WebSocket.
//
// REST endpoints read and drive the view; /ws streams a snapshot after every
// change and accepts pointer events from a client that renders the content.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/render"
	"github.com/standardbeagle/domlens/internal/session"
	"github.com/standardbeagle/domlens/internal/tree"
)

// Renderer writes the content document, served at "/".
type Renderer interface {
	Render(w io.Writer) error
}

// Server serves one session.
type Server struct {
	sess   *session.Session
	page   Renderer
	router chi.Router

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client

	unsubscribe func()
}

// Option configures a Server.
type Option func(*Server)

// WithPage serves r's document at "/".
func WithPage(r Renderer) Option {
	return func(s *Server) { s.page = r }
}

// New creates a server for sess and subscribes to its changes.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		sess:    sess,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Panels are served from anywhere on localhost.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	s.unsubscribe = sess.Subscribe(s.broadcastState)
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logRequests)

	r.Get("/api/state", s.handleState)
	r.Get("/api/tree", s.handleTree)
	r.Get("/api/overlay", s.handleOverlay)
	r.Get("/api/inspect/{handle}", s.handleInspect)
	r.Post("/api/transform", s.handleTransform)
	r.Post("/api/select", s.handleSelect)
	r.Get("/ws", s.handleWebSocket)

	if s.page != nil {
		r.Get("/", s.handlePage)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		debug.Info("server", "listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	return srv.Shutdown(shutdownCtx)
}

// Close unsubscribes from the session and disconnects all clients.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		c.close()
		delete(s.clients, id)
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		debug.Log("server", "%s %s (%s) [%s]", r.Method, r.URL.Path, time.Since(start), middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Error("server", "encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Render(w); err != nil {
		debug.Error("server", "render page: %v", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	root := s.sess.Tree()
	if root == nil {
		writeError(w, http.StatusNotFound, errors.New("no content root"))
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	hs := render.Highlights(s.sess.Snapshot())
	if hs == nil {
		hs = []render.Highlight{}
	}
	writeJSON(w, http.StatusOK, hs)
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	h := dom.Handle(chi.URLParam(r, "handle"))
	d, err := s.sess.Inspect(h)
	if d == nil || d.TagName == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("%q is not inspectable", h))
		return
	}
	if err != nil {
		debug.Warn("server", "inspect %s: %v", h, err)
	}
	writeJSON(w, http.StatusOK, d)
}

// TransformRequest is the body of POST /api/transform. Exactly one of the
// fields is used, checked in the order Reset, Matrix, CSS.
type TransformRequest struct {
	Matrix *[6]float64 `json:"matrix,omitempty"`
	CSS    string      `json:"css,omitempty"`
	Reset  bool        `json:"reset,omitempty"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	switch {
	case req.Reset:
		s.sess.ResetView()
	case req.Matrix != nil:
		if err := s.sess.SetTransform(geom.FromCoefficients(*req.Matrix)); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
	case req.CSS != "":
		t, err := geom.ParseCSS(req.CSS)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.sess.SetTransform(t); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, errors.New("one of matrix, css or reset is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var id tree.Identity
	if err := json.NewDecoder(r.Body).Decode(&id); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	d, err := s.sess.SelectIdentity(id)
	if errors.Is(err, session.ErrNodeNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Log("server", "websocket upgrade: %v", err)
		return
	}

	c := newClient(uuid.NewString(), conn)
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	debug.Log("server", "client %s connected", c.id)

	c.send(Message{Type: TypeHello, Payload: mustMarshal(Hello{ClientID: c.id, State: s.sess.Snapshot()})})

	go c.writePump()
	c.readPump(s.handleMessage)

	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	c.close()
	debug.Log("server", "client %s disconnected", c.id)
}

func (s *Server) broadcastState(snap session.Snapshot) {
	msg := Message{Type: TypeState, Payload: mustMarshal(snap)}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.send(msg)
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		debug.Error("server", "marshal %T: %v", v, err)
		return json.RawMessage("null")
	}
	return data
}
