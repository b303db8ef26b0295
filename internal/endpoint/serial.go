package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"

	"serialbridge/internal/core/dispose"
	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
)

// SerialOptions 串口端点参数
type SerialOptions struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// SerialEndpoint 串口端点
//
// 超时与关闭的判定：
//   - 驱动在读超时到期后返回 (0, io.EOF) 或 (0, nil)，视为超时
//   - 读错误是 EIO/ENXIO/ENODEV/EBADF，或超时后设备节点已不存在，视为关闭
//   - 其他错误视为错误
type SerialEndpoint struct {
	label     string
	device    string
	port      io.ReadWriteCloser
	lifecycle *dispose.Dispose

	pending error
}

// OpenSerial 打开串口
func OpenSerial(ctx context.Context, opts SerialOptions) (*SerialEndpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInterrupted, "open serial cancelled")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        opts.Device,
		Baud:        opts.Baud,
		ReadTimeout: opts.ReadTimeout,
	})
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeConnectionError, "open serial %s at %d baud", opts.Device, opts.Baud)
	}

	e := newSerialEndpoint(opts.Device, opts.Baud, port)
	corelog.Debugf("Endpoint: %s opened (read timeout %s)", e.label, opts.ReadTimeout)
	return e, nil
}

func newSerialEndpoint(device string, baud int, port io.ReadWriteCloser) *SerialEndpoint {
	label := fmt.Sprintf("serial:%s@%d", device, baud)
	e := &SerialEndpoint{
		label:     label,
		device:    device,
		port:      port,
		lifecycle: dispose.NewDispose(label),
	}
	e.lifecycle.AddCleanHandler(port.Close)
	return e
}

// Label 端点名称
func (e *SerialEndpoint) Label() string {
	return e.label
}

// Read 读取串口数据
func (e *SerialEndpoint) Read(p []byte) (int, error) {
	if e.pending != nil {
		err := e.pending
		e.pending = nil
		return 0, e.mapReadError(err)
	}
	if e.lifecycle.IsClosed() {
		return 0, io.EOF
	}

	n, err := e.port.Read(p)
	if n > 0 {
		// io.EOF 只是超时标记，不需要保留
		if err != nil && !errors.Is(err, io.EOF) {
			e.pending = err
		}
		return n, nil
	}
	return 0, e.mapReadError(err)
}

func (e *SerialEndpoint) mapReadError(err error) error {
	if e.lifecycle.IsClosed() {
		return io.EOF
	}
	if err == nil || errors.Is(err, io.EOF) {
		if deviceRemoved(e.device) {
			corelog.Debugf("Endpoint: %s device node is gone", e.label)
			return io.EOF
		}
		return ErrTimeout
	}
	if isDeviceGone(err) {
		return io.EOF
	}
	return coreerrors.Wrapf(err, coreerrors.CodeStreamError, "read from %s failed", e.label)
}

// Write 写入全部字节
func (e *SerialEndpoint) Write(p []byte) error {
	if e.lifecycle.IsClosed() {
		return ErrClosed
	}
	if err := WriteFull(e.port, p); err != nil {
		return coreerrors.Wrapf(err, coreerrors.CodeStreamError, "write to %s failed", e.label)
	}
	return nil
}

// Interrupt 串口读已经受 ReadTimeout 限制，无需处理
func (e *SerialEndpoint) Interrupt() {}

// Close 关闭串口；重复调用返回 nil
func (e *SerialEndpoint) Close() error {
	return e.lifecycle.CloseWithError()
}
