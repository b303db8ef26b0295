// Package testutils 测试辅助工具
package testutils

import (
	"io"
	"sync"
	"sync/atomic"

	"serialbridge/internal/endpoint"
)

// ReadStep 一次脚本化读取的结果
type ReadStep struct {
	Data    []byte
	Timeout bool
	Closed  bool
	Err     error
}

// Data 返回数据
func Data(s string) ReadStep { return ReadStep{Data: []byte(s)} }

// Bytes 返回原始字节
func Bytes(b []byte) ReadStep { return ReadStep{Data: b} }

// Timeout 本次读取无数据
func Timeout() ReadStep { return ReadStep{Timeout: true} }

// Closed 对端关闭
func Closed() ReadStep { return ReadStep{Closed: true} }

// Failure 读取错误
func Failure(err error) ReadStep { return ReadStep{Err: err} }

// FakeEndpoint 按脚本返回读取结果并记录写入的端点
// 脚本耗尽后 Read 阻塞，直到新的步骤、Interrupt 或 Close
type FakeEndpoint struct {
	label     string
	steps     chan ReadStep
	interrupt chan struct{}
	closed    chan struct{}
	closeOnce sync.Once

	// WriteHook 在记录写入之前调用，可以阻塞或返回错误
	WriteHook func(p []byte) error

	mu     sync.Mutex
	writes [][]byte
	events []string

	reads      atomic.Int64
	closeCalls atomic.Int32
	releases   atomic.Int32
}

var _ endpoint.Endpoint = (*FakeEndpoint)(nil)

// NewFakeEndpoint 创建脚本化端点
func NewFakeEndpoint(label string, steps ...ReadStep) *FakeEndpoint {
	f := &FakeEndpoint{
		label:     label,
		steps:     make(chan ReadStep, 4096),
		interrupt: make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
	f.Push(steps...)
	return f
}

// Push 追加读取步骤
func (f *FakeEndpoint) Push(steps ...ReadStep) {
	for _, s := range steps {
		f.steps <- s
	}
}

func (f *FakeEndpoint) Label() string {
	return f.label
}

func (f *FakeEndpoint) Read(p []byte) (int, error) {
	select {
	case <-f.closed:
		return 0, io.EOF
	default:
	}

	select {
	case step := <-f.steps:
		f.reads.Add(1)
		switch {
		case step.Err != nil:
			return 0, step.Err
		case step.Closed:
			return 0, io.EOF
		case step.Timeout:
			return 0, endpoint.ErrTimeout
		default:
			return copy(p, step.Data), nil
		}
	case <-f.interrupt:
		return 0, endpoint.ErrTimeout
	case <-f.closed:
		return 0, io.EOF
	}
}

func (f *FakeEndpoint) Write(p []byte) error {
	select {
	case <-f.closed:
		return endpoint.ErrClosed
	default:
	}
	if f.WriteHook != nil {
		if err := f.WriteHook(p); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), p...))
	f.events = append(f.events, "write")
	return nil
}

func (f *FakeEndpoint) Interrupt() {
	select {
	case f.interrupt <- struct{}{}:
	default:
	}
}

func (f *FakeEndpoint) Close() error {
	f.closeCalls.Add(1)
	f.closeOnce.Do(func() {
		f.releases.Add(1)
		f.mu.Lock()
		f.events = append(f.events, "close")
		f.mu.Unlock()
		close(f.closed)
	})
	return nil
}

// Writes 每次 Write 调用的数据
func (f *FakeEndpoint) Writes() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

// Written 所有写入数据按顺序拼接
func (f *FakeEndpoint) Written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []byte
	for _, w := range f.writes {
		out = append(out, w...)
	}
	return out
}

// Events 写入与关闭的先后顺序
func (f *FakeEndpoint) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// Reads 已消费的脚本步骤数
func (f *FakeEndpoint) Reads() int64 {
	return f.reads.Load()
}

// CloseCalls Close 调用次数
func (f *FakeEndpoint) CloseCalls() int32 {
	return f.closeCalls.Load()
}

// Releases 实际释放次数
func (f *FakeEndpoint) Releases() int32 {
	return f.releases.Load()
}

// IsClosed 是否已关闭
func (f *FakeEndpoint) IsClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// Done 在 Close 后关闭
func (f *FakeEndpoint) Done() <-chan struct{} {
	return f.closed
}
