// Package endpoint 字节流端点抽象
//
// 端点是桥接的一侧（网络连接或串口），提供阻塞的读、写、关闭。
// 读取结果分为四类：
//   - 数据：n > 0
//   - 超时：n == 0 且 err 为 ErrTimeout（或 (0, nil)），流仍然存活
//   - 关闭：err 为 io.EOF / ErrClosed，对端不会再有数据
//   - 错误：其他任何错误
package endpoint

import (
	"io"

	coreerrors "serialbridge/internal/core/errors"
)

var (
	// ErrTimeout 本次读取没有数据，但流仍然可用
	ErrTimeout = coreerrors.ErrTimeout

	// ErrClosed 端点已关闭
	ErrClosed = coreerrors.ErrStreamClosed
)

// Endpoint 字节流端点
// 同一端点的读和写由不同的 goroutine 调用，实现必须支持全双工
type Endpoint interface {
	// Read 阻塞直到有数据、超时或流结束
	Read(p []byte) (int, error)

	// Write 写入全部字节，内部重试部分写入
	Write(p []byte) error

	// Close 释放底层资源，可重复调用，第二次起返回 nil
	Close() error

	// Label 诊断用名称
	Label() string

	// Interrupt 使阻塞中或之后的 Read 尽快返回 ErrTimeout，不关闭端点
	Interrupt()
}

// ReadKind 读取结果分类
type ReadKind int

const (
	ReadData ReadKind = iota
	ReadTimeout
	ReadClosed
	ReadError
)

func (k ReadKind) String() string {
	switch k {
	case ReadData:
		return "data"
	case ReadTimeout:
		return "timeout"
	case ReadClosed:
		return "closed"
	default:
		return "error"
	}
}

// ClassifyRead 将 Read 的返回值归类
func ClassifyRead(n int, err error) ReadKind {
	switch {
	case n > 0:
		return ReadData
	case err == nil, coreerrors.Is(err, ErrTimeout):
		return ReadTimeout
	case coreerrors.Is(err, io.EOF), coreerrors.Is(err, ErrClosed):
		return ReadClosed
	default:
		return ReadError
	}
}
