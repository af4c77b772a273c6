package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/tonebridge/internal/protocol"
	"github.com/gorilla/websocket"
)

// ErrServer wraps an error frame received while waiting for a reply.
var ErrServer = errors.New("server error")

// Client is a minimal bridge client used by tooling and tests. It is not
// safe for concurrent use.
type Client struct {
	conn  *websocket.Conn
	token string
}

func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return &Client{conn: conn}, nil
}

// Token is the session token from the handshake, empty before it.
func (c *Client) Token() string {
	return c.token
}

// Read returns the next server message.
func (c *Client) Read(ctx context.Context) (protocol.Message, error) {
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, err
	}

	// Cancellation interrupts the blocked read; the context error is
	// reported in place of the resulting timeout.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read message: %w", err)
	}

	return protocol.DecodeMessage(data)
}

// Handshake waits for the handshake, remembers its token and acknowledges
// it.
func (c *Client) Handshake(ctx context.Context) (protocol.Handshake, error) {
	for {
		msg, err := c.Read(ctx)
		if err != nil {
			return protocol.Handshake{}, err
		}
		switch m := msg.(type) {
		case protocol.Handshake:
			c.token = m.SessionToken
			if err := c.Send(protocol.HandshakeAck{SessionToken: m.SessionToken}); err != nil {
				return protocol.Handshake{}, err
			}
			return m, nil
		case protocol.ErrorMessage:
			return protocol.Handshake{}, fmt.Errorf("%w: %s: %s", ErrServer, m.Code, m.Msg)
		}
	}
}

func (c *Client) Send(cmd protocol.Command) error {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write command: %w", err)
	}

	return nil
}

// SetTone sends a set_tone with the client's token and waits for its ack.
func (c *Client) SetTone(ctx context.Context, cmd protocol.SetTone) (protocol.Ack, error) {
	cmd.SessionToken = c.token
	if err := c.Send(cmd); err != nil {
		return protocol.Ack{}, err
	}

	return c.AwaitAck(ctx, cmd.CommandID)
}

// AwaitAck skips notices until the ack for commandID or an error frame.
// Superseded notices for other commands are skipped too.
func (c *Client) AwaitAck(ctx context.Context, commandID string) (protocol.Ack, error) {
	for {
		msg, err := c.Read(ctx)
		if err != nil {
			return protocol.Ack{}, err
		}
		switch m := msg.(type) {
		case protocol.Ack:
			if m.CommandID == commandID {
				return m, nil
			}
		case protocol.ErrorMessage:
			if m.Code == protocol.CodeSuperseded && !strings.HasPrefix(m.Msg, "command "+commandID+" ") {
				continue
			}
			return protocol.Ack{}, &ReplyError{Code: m.Code, Msg: m.Msg}
		}
	}
}

func (c *Client) Close() error {
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)

	return c.conn.Close()
}

// ReplyError is an error frame returned in place of an ack.
type ReplyError struct {
	Code protocol.ErrorCode
	Msg  string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *ReplyError) Is(target error) bool {
	return target == ErrServer
}
