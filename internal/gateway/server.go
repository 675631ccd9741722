// Package gateway serves a read-only live view of the workspace: REST
// endpoints for catalogs and message history, a websocket feed of deliveries
// as they happen, and prometheus metrics. It consumes the core through the
// same read API a chat UI would.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hubbub-im/hubbub/internal/bus"
	"github.com/hubbub-im/hubbub/internal/metrics"
	"github.com/hubbub-im/hubbub/internal/unread"
	"github.com/hubbub-im/hubbub/internal/workspace"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn wraps a websocket.Conn with a write mutex.
// gorilla/websocket does NOT support concurrent writes.
type wsConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) WriteJSONSafe(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(v)
}

// Server is the live-view HTTP server.
type Server struct {
	addr    string
	store   *workspace.Store
	tracker *unread.Tracker
	coll    *metrics.Collector
	reg     *prometheus.Registry
	logger  *zap.Logger

	wsMu    sync.Mutex
	wsConns map[*wsConn]bool

	httpSrv *http.Server
}

// New creates a gateway over the given store and tracker, subscribed to the
// delivery feed. coll and reg may be nil.
func New(addr string, store *workspace.Store, tracker *unread.Tracker,
	feed *bus.Feed, coll *metrics.Collector, reg *prometheus.Registry,
	logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		addr:    addr,
		store:   store,
		tracker: tracker,
		coll:    coll,
		reg:     reg,
		logger:  logger,
		wsConns: make(map[*wsConn]bool),
	}
	if feed != nil {
		feed.SubscribeAll(s.broadcast)
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/meta", s.handleMeta).Methods(http.MethodGet)
	r.HandleFunc("/api/channels", s.handleChannels).Methods(http.MethodGet)
	r.HandleFunc("/api/channels/{slug}/messages", s.handleChannelMessages).Methods(http.MethodGet)
	r.HandleFunc("/api/users", s.handleUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{slug}/messages/{partner}", s.handleDirectMessages).Methods(http.MethodGet)
	r.HandleFunc("/api/unread", s.handleUnread).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)
	if s.reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", zap.String("addr", s.addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeAllWS()
	return s.httpSrv.Shutdown(shutCtx)
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Meta())
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Channels())
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Users())
}

func (s *Server) handleChannelMessages(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if _, ok := s.store.ChannelMeta(slug); !ok {
		writeJSONError(w, "unknown channel: "+slug, http.StatusNotFound)
		return
	}
	writeJSON(w, s.store.ChannelMessages(slug))
}

func (s *Server) handleDirectMessages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	slug, partner := vars["slug"], vars["partner"]
	if !s.store.HasUser(slug) {
		writeJSONError(w, "unknown user: "+slug, http.StatusNotFound)
		return
	}
	writeJSON(w, s.store.DirectMessages(slug, partner))
}

func (s *Server) handleUnread(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"active": s.tracker.Active(),
		"unread": s.tracker.Snapshot(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	raw, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn := &wsConn{Conn: raw}

	s.wsMu.Lock()
	s.wsConns[conn] = true
	s.wsMu.Unlock()
	if s.coll != nil {
		s.coll.WSConnected()
	}
	s.logger.Debug("viewer connected", zap.String("peer", r.RemoteAddr))

	defer func() {
		raw.Close()
		s.wsMu.Lock()
		delete(s.wsConns, conn)
		s.wsMu.Unlock()
		if s.coll != nil {
			s.coll.WSDisconnected()
		}
		s.logger.Debug("viewer disconnected", zap.String("peer", r.RemoteAddr))
	}()

	// Viewers are read-only; drain the connection to notice closes.
	for {
		if _, _, err := raw.ReadMessage(); err != nil {
			return
		}
	}
}

// broadcast pushes a delivery event to every connected viewer, dropping
// connections whose writes fail.
func (s *Server) broadcast(evt bus.Event) {
	s.wsMu.Lock()
	conns := make([]*wsConn, 0, len(s.wsConns))
	for c := range s.wsConns {
		conns = append(conns, c)
	}
	s.wsMu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSONSafe(evt); err != nil {
			s.wsMu.Lock()
			delete(s.wsConns, c)
			s.wsMu.Unlock()
			c.Close()
		}
	}
}

func (s *Server) closeAllWS() {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	for c := range s.wsConns {
		c.Close()
		delete(s.wsConns, c)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
