//go:build !no_websocket

// WebSocket transport.
// Build with -tags no_websocket to leave it out of the binary.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
)

const (
	// ProtocolWebSocket carries the byte stream in binary messages.
	ProtocolWebSocket = "websocket"

	// DefaultWebSocketPath is used when the address has no path.
	DefaultWebSocketPath = "/bridge"

	webSocketBufferSize = 32 * 1024
)

func init() {
	RegisterProtocol(ProtocolWebSocket, 20, DialWebSocket)
}

// WebSocketStreamConn adapts a message-oriented WebSocket connection to a byte stream.
type WebSocketStreamConn struct {
	conn       *websocket.Conn
	readBuf    []byte
	readMu     sync.Mutex
	writeMu    sync.Mutex
	closeOnce  sync.Once
	closed     chan struct{}
	remoteAddr net.Addr
}

// NewWebSocketStreamConn wraps an established WebSocket connection.
func NewWebSocketStreamConn(conn *websocket.Conn, remote string) *WebSocketStreamConn {
	return &WebSocketStreamConn{
		conn:       conn,
		closed:     make(chan struct{}),
		remoteAddr: &wsAddr{addr: remote},
	}
}

// Read returns buffered bytes first, then the next binary message.
func (c *WebSocketStreamConn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closed:
		return 0, io.EOF
	default:
	}

	if len(c.readBuf) > 0 {
		n := copy(p, c.readBuf)
		c.readBuf = c.readBuf[n:]
		return n, nil
	}

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		select {
		case <-c.closed:
			return 0, io.EOF
		default:
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return 0, io.EOF
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, err
		}
		return 0, coreerrors.Wrap(err, coreerrors.CodeNetworkError, "websocket read failed")
	}

	if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
		return 0, coreerrors.Newf(coreerrors.CodeProtocolError, "unexpected websocket message type: %d", messageType)
	}

	n := copy(p, data)
	if n < len(data) {
		c.readBuf = append(c.readBuf, data[n:]...)
	}
	return n, nil
}

// Write sends p as one binary message.
func (c *WebSocketStreamConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closed:
		return 0, io.ErrClosedPipe
	default:
	}

	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, coreerrors.Wrap(err, coreerrors.CodeNetworkError, "websocket write failed")
	}
	return len(p), nil
}

// Close sends a normal closure frame and closes the socket.
func (c *WebSocketStreamConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.writeMu.Lock()
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
		corelog.Debugf("WebSocket: connection to %s closed", c.remoteAddr)
	})
	return err
}

func (c *WebSocketStreamConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *WebSocketStreamConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

func (c *WebSocketStreamConn) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	}
	return c.SetWriteDeadline(t)
}

func (c *WebSocketStreamConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *WebSocketStreamConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

type wsAddr struct {
	addr string
}

func (a *wsAddr) Network() string {
	return ProtocolWebSocket
}

func (a *wsAddr) String() string {
	return a.addr
}

// NormalizeWebSocketURL accepts several address forms:
//   - http://host:8080/bridge  -> ws://host:8080/bridge
//   - https://host/bridge      -> wss://host/bridge
//   - ws://host                -> ws://host/bridge
//   - host:8080                -> ws://host:8080/bridge
//   - host:8080/custom         -> ws://host:8080/custom
func NormalizeWebSocketURL(address string) (string, error) {
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") ||
		strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		parsedURL, err := url.Parse(address)
		if err != nil {
			return "", coreerrors.Wrap(err, coreerrors.CodeInvalidParam, "invalid URL format")
		}

		scheme := strings.ToLower(parsedURL.Scheme)
		switch scheme {
		case "http":
			scheme = "ws"
		case "https":
			scheme = "wss"
		}

		path := parsedURL.Path
		if path == "" {
			path = DefaultWebSocketPath
		}

		wsURL := fmt.Sprintf("%s://%s%s", scheme, parsedURL.Host, path)
		if parsedURL.RawQuery != "" {
			wsURL += "?" + parsedURL.RawQuery
		}
		return wsURL, nil
	}

	if strings.Contains(address, "/") {
		return "ws://" + address, nil
	}
	return fmt.Sprintf("ws://%s%s", address, DefaultWebSocketPath), nil
}

// DialWebSocket connects to a WebSocket server and returns a byte-stream net.Conn.
func DialWebSocket(ctx context.Context, address string) (net.Conn, error) {
	wsURL, err := NormalizeWebSocketURL(address)
	if err != nil {
		return nil, err
	}
	corelog.Debugf("WebSocket: connecting to %s", wsURL)

	dialer := websocket.Dialer{
		HandshakeTimeout: 20 * time.Second,
		ReadBufferSize:   webSocketBufferSize,
		WriteBufferSize:  webSocketBufferSize,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "websocket dial %s failed", wsURL)
	}

	corelog.Infof("WebSocket: connected to %s", wsURL)
	return NewWebSocketStreamConn(conn, wsURL), nil
}
