package ws

import (
	"strings"
	"sync"
	"time"

	"github.com/bnema/tonebridge/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// session is one accepted socket. Nothing but the handshake is written until
// the handshake has gone out; earlier replies are held and flushed after it.
type session struct {
	token        string
	conn         *websocket.Conn
	writeTimeout time.Duration
	maxHeld      int
	logger       *zap.Logger

	mu         sync.Mutex
	handshaken bool
	held       []protocol.Message

	closeOnce sync.Once
	done      chan struct{}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newSession(conn *websocket.Conn, cfg Config, logger *zap.Logger) *session {
	token := newToken()

	return &session{
		token:        token,
		conn:         conn,
		writeTimeout: cfg.WriteTimeout,
		maxHeld:      cfg.MaxHeldReplies,
		logger:       logger.With(zap.String("session", token[:8])),
		done:         make(chan struct{}),
	}
}

// send writes msg or holds it until the handshake.
func (s *session) send(msg protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.MessageType() == protocol.MessageHandshake {
		if err := s.write(msg); err != nil {
			return
		}
		s.handshaken = true
		held := s.held
		s.held = nil
		for _, m := range held {
			if err := s.write(m); err != nil {
				return
			}
		}
		return
	}

	if !s.handshaken {
		if len(s.held) >= s.maxHeld {
			s.logger.Debug("dropping reply held before handshake", zap.String("type", string(msg.MessageType())))
			return
		}
		s.held = append(s.held, msg)
		return
	}

	_ = s.write(msg)
}

// write must be called with mu held.
func (s *session) write(msg protocol.Message) error {
	data, err := protocol.EncodeMessage(msg)
	if err != nil {
		s.logger.Error("encode outbound message", zap.Error(err))
		return err
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		s.close()
		return err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("write failed", zap.Error(err))
		s.close()
		return err
	}

	return nil
}

func (s *session) keepalive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout)); err != nil {
				s.close()
				return
			}
		}
	}
}

// close tears the socket down without an error frame.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}
