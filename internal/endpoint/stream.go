package endpoint

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"serialbridge/internal/core/dispose"
	coreerrors "serialbridge/internal/core/errors"
)

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// StreamEndpoint 基于 io.ReadWriteCloser 的端点（网络连接、管道）
type StreamEndpoint struct {
	label     string
	rw        io.ReadWriteCloser
	lifecycle *dispose.Dispose

	// pending 只由读 goroutine 访问
	pending error

	interruptMu sync.Mutex
}

// NewStreamEndpoint 包装一个已建立的字节流
func NewStreamEndpoint(label string, rw io.ReadWriteCloser) *StreamEndpoint {
	e := &StreamEndpoint{
		label:     label,
		rw:        rw,
		lifecycle: dispose.NewDispose(label),
	}
	e.lifecycle.AddCleanHandler(rw.Close)
	return e
}

// Label 端点名称
func (e *StreamEndpoint) Label() string {
	return e.label
}

// Read 读取数据
// 与数据一起返回的错误推迟到下一次 Read
func (e *StreamEndpoint) Read(p []byte) (int, error) {
	if e.pending != nil {
		err := e.pending
		e.pending = nil
		return 0, e.mapReadError(err)
	}
	if e.lifecycle.IsClosed() {
		return 0, io.EOF
	}

	n, err := e.rw.Read(p)
	if n > 0 {
		if err != nil {
			e.pending = err
		}
		return n, nil
	}
	if err == nil {
		return 0, ErrTimeout
	}
	return 0, e.mapReadError(err)
}

func (e *StreamEndpoint) mapReadError(err error) error {
	if e.lifecycle.IsClosed() {
		return io.EOF
	}
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, syscall.ECONNRESET):
		return io.EOF
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	return coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "read from %s failed", e.label)
}

// Write 写入全部字节
func (e *StreamEndpoint) Write(p []byte) error {
	if e.lifecycle.IsClosed() {
		return ErrClosed
	}
	if err := WriteFull(e.rw, p); err != nil {
		return coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "write to %s failed", e.label)
	}
	return nil
}

// Interrupt 把读超时设置为过去的时间点，阻塞中的 Read 立即返回
func (e *StreamEndpoint) Interrupt() {
	d, ok := e.rw.(readDeadliner)
	if !ok {
		return
	}
	e.interruptMu.Lock()
	defer e.interruptMu.Unlock()
	_ = d.SetReadDeadline(time.Now().Add(-time.Second))
}

// Close 关闭底层流；重复调用返回 nil
func (e *StreamEndpoint) Close() error {
	return e.lifecycle.CloseWithError()
}
