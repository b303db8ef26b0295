// Package transport 网络传输协议注册表
// 支持通过 build tags 选择性编译协议支持
package transport

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	coreerrors "serialbridge/internal/core/errors"
)

// Dialer 是协议拨号器的接口
type Dialer func(ctx context.Context, address string) (net.Conn, error)

// ProtocolInfo 协议信息
type ProtocolInfo struct {
	Name     string // 协议名称: tcp, websocket, quic, kcp
	Priority int    // 优先级（数字越小优先级越高）
	Dialer   Dialer
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*ProtocolInfo)
)

// RegisterProtocol 注册协议，同名协议会被覆盖
func RegisterProtocol(name string, priority int, dialer Dialer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = &ProtocolInfo{
		Name:     name,
		Priority: priority,
		Dialer:   dialer,
	}
}

// GetProtocol 获取协议信息
func GetProtocol(name string) (*ProtocolInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[name]
	return info, ok
}

// GetRegisteredProtocols 获取所有已注册的协议（按优先级排序）
func GetRegisteredProtocols() []*ProtocolInfo {
	registryMu.RLock()
	protocols := make([]*ProtocolInfo, 0, len(registry))
	for _, info := range registry {
		protocols = append(protocols, info)
	}
	registryMu.RUnlock()

	sort.Slice(protocols, func(i, j int) bool {
		if protocols[i].Priority == protocols[j].Priority {
			return protocols[i].Name < protocols[j].Name
		}
		return protocols[i].Priority < protocols[j].Priority
	})
	return protocols
}

// IsProtocolAvailable 检查协议是否可用
func IsProtocolAvailable(name string) bool {
	_, ok := GetProtocol(name)
	return ok
}

// GetAvailableProtocolNames 获取所有可用协议名称
func GetAvailableProtocolNames() []string {
	protocols := GetRegisteredProtocols()
	names := make([]string, len(protocols))
	for i, p := range protocols {
		names[i] = p.Name
	}
	return names
}

// Dial 使用指定协议建立连接
// timeout > 0 时限制整个拨号过程（包括握手）
func Dial(ctx context.Context, protocol, address string, timeout time.Duration) (net.Conn, error) {
	info, ok := GetProtocol(protocol)
	if !ok {
		return nil, coreerrors.Newf(coreerrors.CodeProtocolError, "protocol %q is not available (not compiled in)", protocol)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return info.Dialer(ctx, address)
}
