package transport

import (
	"context"
	"net"
	"time"

	coreerrors "serialbridge/internal/core/errors"
)

// TCP 是基础协议，始终编译
const ProtocolTCP = "tcp"

const tcpKeepAlivePeriod = 30 * time.Second

func init() {
	RegisterProtocol(ProtocolTCP, 10, DialTCP)
}

// DialTCP 建立 TCP 连接
func DialTCP(ctx context.Context, address string) (net.Conn, error) {
	dialer := &net.Dialer{
		KeepAlive: tcpKeepAlivePeriod,
	}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "tcp dial %s failed", address)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		// 串口数据通常是小包，关闭 Nagle 以减少回显延迟
		_ = tcpConn.SetNoDelay(true)
	}
	return conn, nil
}
