//go:build !no_quic

// QUIC transport, one bidirectional stream per connection.
// Build with -tags no_quic to leave it out of the binary.
package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
)

const (
	// ProtocolQUIC carries the byte stream on a single QUIC stream.
	ProtocolQUIC = "quic"

	// QUICNextProto is the ALPN token both ends must agree on.
	QUICNextProto = "serialbridge"
)

func init() {
	RegisterProtocol(ProtocolQUIC, 30, DialQUIC)
}

// QUICStreamConn wraps a QUIC stream to implement net.Conn.
type QUICStreamConn struct {
	stream    *quic.Stream
	conn      *quic.Conn
	closeOnce sync.Once
	closed    chan struct{}
}

// NewQUICStreamConn wraps an opened stream and its connection.
func NewQUICStreamConn(conn *quic.Conn, stream *quic.Stream) *QUICStreamConn {
	return &QUICStreamConn{
		stream: stream,
		conn:   conn,
		closed: make(chan struct{}),
	}
}

func (c *QUICStreamConn) Read(p []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, io.EOF
	default:
	}

	n, err := c.stream.Read(p)
	if err != nil {
		select {
		case <-c.closed:
			return n, io.EOF
		default:
		}
		var appErr *quic.ApplicationError
		if coreerrors.As(err, &appErr) && appErr.ErrorCode == 0 {
			return n, io.EOF
		}
		return n, err
	}
	return n, nil
}

func (c *QUICStreamConn) Write(p []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	return c.stream.Write(p)
}

func (c *QUICStreamConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.stream != nil {
			_ = c.stream.Close()
		}
		if c.conn != nil {
			err = c.conn.CloseWithError(0, "normal closure")
		}
		corelog.Debugf("QUIC: connection closed")
	})
	return err
}

func (c *QUICStreamConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *QUICStreamConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *QUICStreamConn) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	}
	return c.SetWriteDeadline(t)
}

func (c *QUICStreamConn) SetReadDeadline(t time.Time) error {
	return c.stream.SetReadDeadline(t)
}

func (c *QUICStreamConn) SetWriteDeadline(t time.Time) error {
	return c.stream.SetWriteDeadline(t)
}

// DialQUIC dials a QUIC server and opens one stream.
// Certificate verification is skipped; the peer is usually a lab simulator.
func DialQUIC(ctx context.Context, address string) (net.Conn, error) {
	corelog.Debugf("QUIC: connecting to %s", address)

	tlsConf := &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{QUICNextProto},
	}
	quicConf := &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	}

	conn, err := quic.DialAddr(ctx, address, tlsConf, quicConf)
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "quic dial %s failed", address)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "failed to open stream")
		return nil, coreerrors.Wrap(err, coreerrors.CodeNetworkError, "quic open stream failed")
	}

	corelog.Infof("QUIC: stream opened to %s", address)
	return NewQUICStreamConn(conn, stream), nil
}
