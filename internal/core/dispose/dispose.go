// Package dispose 提供幂等的资源释放
// 端点、会话等持有底层句柄的对象嵌入 Dispose，保证清理只执行一次
package dispose

import (
	"context"
	"fmt"
	"sync"
)

// DisposeError 清理过程中的错误信息
type DisposeError struct {
	HandlerIndex int
	ResourceName string
	Err          error
}

func (e *DisposeError) Error() string {
	if e.ResourceName != "" {
		return fmt.Sprintf("cleanup resource[%s] handler[%d] failed: %v", e.ResourceName, e.HandlerIndex, e.Err)
	}
	return fmt.Sprintf("cleanup handler[%d] failed: %v", e.HandlerIndex, e.Err)
}

func (e *DisposeError) Unwrap() error {
	return e.Err
}

// DisposeResult 清理结果
type DisposeResult struct {
	Errors         []*DisposeError
	ActualDisposal bool // 本次调用是否真正执行了释放
}

func (r *DisposeResult) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r *DisposeResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	return fmt.Sprintf("dispose cleanup failed with %d errors", len(r.Errors))
}

// Err 返回第一个清理错误
func (r *DisposeResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return r.Errors[0].Err
}

// Dispose 资源释放状态
// 零值可用；清理处理器按注册顺序执行，每个只执行一次
type Dispose struct {
	name          string
	mu            sync.Mutex
	initOnce      sync.Once
	closed        bool
	ctx           context.Context
	cancel        context.CancelFunc
	cleanHandlers []func() error
}

// NewDispose 创建带名称的 Dispose，名称出现在清理错误中
func NewDispose(name string) *Dispose {
	return &Dispose{name: name}
}

func (d *Dispose) init() {
	d.initOnce.Do(func() {
		d.ctx, d.cancel = context.WithCancel(context.Background())
	})
}

// Name 资源名称
func (d *Dispose) Name() string {
	return d.name
}

// SetName 设置资源名称
func (d *Dispose) SetName(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.name = name
}

// Done 在 Close 开始时关闭
func (d *Dispose) Done() <-chan struct{} {
	d.init()
	return d.ctx.Done()
}

// IsClosed 是否已关闭
func (d *Dispose) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// AddCleanHandler 注册清理处理器；已关闭时立即执行
func (d *Dispose) AddCleanHandler(f func() error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		if err := f(); err != nil {
			Errorf("Cleanup handler for closed resource %s failed: %v", d.name, err)
		}
		return
	}
	d.cleanHandlers = append(d.cleanHandlers, f)
	d.mu.Unlock()
}

// Close 执行全部清理处理器
// 只有第一次调用真正释放资源，之后的调用返回空结果
func (d *Dispose) Close() *DisposeResult {
	d.init()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return &DisposeResult{}
	}
	d.closed = true
	handlers := d.cleanHandlers
	d.cleanHandlers = nil
	name := d.name
	d.mu.Unlock()

	d.cancel()

	result := &DisposeResult{ActualDisposal: true}
	for i, handler := range handlers {
		if err := handler(); err != nil {
			result.Errors = append(result.Errors, &DisposeError{
				HandlerIndex: i,
				ResourceName: name,
				Err:          err,
			})
			// 记录错误，但不中断其他清理
			Debugf("Cleanup handler[%d] of %s failed: %v", i, name, err)
		}
	}
	return result
}

// CloseWithError 关闭并返回第一个清理错误
func (d *Dispose) CloseWithError() error {
	return d.Close().Err()
}
