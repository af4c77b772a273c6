package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/protocol"
	"github.com/bnema/tonebridge/internal/queue"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateActive    State = "active"
)

type Config struct {
	Addr           string
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadLimit      int64
	MaxHeldReplies int
}

func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:9001",
		PingInterval:   15 * time.Second,
		WriteTimeout:   5 * time.Second,
		ReadLimit:      1 << 20,
		MaxHeldReplies: 16,
	}
}

// Server is the network actor. It owns the listener and the single active
// session and never touches the host API.
type Server struct {
	cfg      Config
	inbound  *queue.Inbound
	outbound *queue.Outbound
	logger   *zap.Logger

	upgrader   websocket.Upgrader
	router     *mux.Router
	httpServer *http.Server

	mu       sync.Mutex
	state    State
	active   *session
	listener net.Listener
}

func NewServer(cfg Config, inbound *queue.Inbound, outbound *queue.Outbound, logger *zap.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = defaults.ReadLimit
	}
	if cfg.MaxHeldReplies <= 0 {
		cfg.MaxHeldReplies = defaults.MaxHeldReplies
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		inbound:  inbound,
		outbound: outbound,
		logger:   logger,
		state:    StateIdle,
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The listener is loopback only; local tools send no Origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.router.HandleFunc("/", s.handleSocket).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Listen binds the configured address and moves the server to Listening.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.state = StateListening
	s.mu.Unlock()

	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	return ln.Addr(), nil
}

// Serve accepts connections and pumps outbound messages until ctx is done.
// Listen must have been called first.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("serve: not listening")
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		s.pump(pumpCtx)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	stopPump()
	<-pumpDone
	s.shutdown()

	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

func (s *Server) shutdown() {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.state = StateIdle
	s.mu.Unlock()

	if active != nil {
		active.close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
	s.logger.Info("network actor stopped")
}

func (s *Server) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.deliver(s.outbound.Drain())
			return
		case <-s.outbound.Ready():
			s.deliver(s.outbound.Drain())
		}
	}
}

func (s *Server) deliver(envelopes []queue.Envelope) {
	for _, env := range envelopes {
		s.mu.Lock()
		active := s.active
		s.mu.Unlock()

		if active == nil || active.token != env.Token {
			s.logger.Debug("dropping message for inactive session", zap.String("type", string(env.Message.MessageType())))
			continue
		}
		active.send(env.Message)
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", zap.Error(err))
		return
	}

	sess := newSession(conn, s.cfg, s.logger)

	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	previous := s.active
	s.active = sess
	s.state = StateActive
	// Queued under the lock so the host actor sees connects in promotion order.
	s.inbound.PushLifecycle(queue.EventConnected, sess.token)
	s.mu.Unlock()

	if previous != nil {
		s.logger.Info("replacing active session")
		previous.close()
	}

	sess.logger.Info("session accepted", zap.String("remote", r.RemoteAddr))

	go sess.keepalive(s.cfg.PingInterval)
	s.readLoop(sess)

	s.mu.Lock()
	if s.active == sess {
		s.active = nil
		if s.state == StateActive {
			s.state = StateListening
		}
	}
	s.mu.Unlock()

	sess.close()
	s.inbound.PushLifecycle(queue.EventDisconnected, sess.token)
	sess.logger.Info("session closed")
}

func (s *Server) readLoop(sess *session) {
	conn := sess.conn
	conn.SetReadLimit(s.cfg.ReadLimit)
	pongWait := 2 * s.cfg.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if msgType != websocket.TextMessage {
			sess.send(protocol.NewError(protocol.CodeInvalidCommand, "expected a text frame"))
			continue
		}

		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			sess.logger.Debug("malformed frame", zap.Error(err))
			sess.send(protocol.NewError(protocol.CodeInvalidCommand, err.Error()))
			continue
		}
		if cmd.Token() != sess.token {
			sess.logger.Warn("frame with wrong session token", zap.String("type", string(cmd.CommandType())))
			sess.send(protocol.NewError(protocol.CodeUnauthorized, "invalid session token"))
			continue
		}
		if err := s.inbound.PushCommand(cmd); err != nil {
			if errors.Is(err, domain.ErrBusy) {
				sess.send(protocol.NewError(protocol.CodeBusy, "bridge is busy, retry later"))
				continue
			}
			sess.logger.Error("enqueue command", zap.Error(err))
		}
	}
}

type healthResponse struct {
	State   State `json:"state"`
	Session bool  `json:"session"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := healthResponse{State: s.state, Session: s.active != nil}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}
