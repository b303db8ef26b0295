package endpoint

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/transport"
)

// NetworkOptions 网络端点参数
type NetworkOptions struct {
	Protocol    string // tcp / websocket / kcp / quic，默认 tcp
	Host        string
	Port        int
	DialTimeout time.Duration
}

// Address host:port
func (o NetworkOptions) Address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

func (o NetworkOptions) protocol() string {
	if o.Protocol == "" {
		return transport.ProtocolTCP
	}
	return o.Protocol
}

// DialNetwork 通过传输层注册表建立网络端点
// 网络端点的 Read 无限期阻塞，对端断开时返回 io.EOF
func DialNetwork(ctx context.Context, opts NetworkOptions) (*StreamEndpoint, error) {
	protocol := opts.protocol()
	address := opts.Address()

	conn, err := transport.Dial(ctx, protocol, address, opts.DialTimeout)
	if err != nil {
		return nil, err
	}

	label := fmt.Sprintf("%s://%s", protocol, address)
	corelog.Debugf("Endpoint: %s connected (local %s)", label, conn.LocalAddr())
	return NewStreamEndpoint(label, conn), nil
}
