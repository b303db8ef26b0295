// Package safe 提供带 panic 恢复的 Goroutine 启动
//
// 转发任务和状态服务都通过这里启动，任何 panic 都会被记录
// 并交给调用方决定如何上报，不会带走整个进程。
package safe

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	corelog "serialbridge/internal/core/log"
)

var globalManager = &manager{}

type manager struct {
	activeCount atomic.Int64
	totalCount  atomic.Int64
	panicCount  atomic.Int64
}

// Stats Goroutine 统计信息
type Stats struct {
	Active     int64 // 当前活跃数量
	Total      int64 // 累计创建数量
	PanicCount int64 // panic 次数
}

// GetStats 获取统计信息
func GetStats() Stats {
	return Stats{
		Active:     globalManager.activeCount.Load(),
		Total:      globalManager.totalCount.Load(),
		PanicCount: globalManager.panicCount.Load(),
	}
}

func run(name string, fn func(), onPanic func(recovered interface{}), done func()) {
	globalManager.totalCount.Add(1)
	globalManager.activeCount.Add(1)

	go func() {
		defer func() {
			globalManager.activeCount.Add(-1)
			if r := recover(); r != nil {
				globalManager.panicCount.Add(1)
				corelog.Errorf("SafeGo[%s]: panic recovered: %v\n%s", name, r, string(debug.Stack()))
				if onPanic != nil {
					onPanic(r)
				}
			}
			if done != nil {
				done()
			}
		}()
		fn()
	}()
}

// Go 安全启动 Goroutine（带 panic 恢复）
// name 用于日志标识
func Go(name string, fn func()) {
	run(name, fn, nil, nil)
}

// GoWithContext 带 context 的安全 Goroutine
func GoWithContext(ctx context.Context, name string, fn func(ctx context.Context)) {
	run(name, func() { fn(ctx) }, nil, nil)
}

// GoWithCallback 带回调的安全 Goroutine
// onPanic 在 panic 恢复之后调用
func GoWithCallback(name string, fn func(), onPanic func(recovered interface{})) {
	run(name, fn, onPanic, nil)
}

// WaitGroup 带 panic 恢复的 WaitGroup
type WaitGroup struct {
	wg      sync.WaitGroup
	name    string
	onPanic func(recovered interface{})
}

// NewWaitGroup 创建新的 WaitGroup
func NewWaitGroup(name string) *WaitGroup {
	return &WaitGroup{name: name}
}

// OnPanic 设置 panic 回调，需在 Go 之前调用
func (w *WaitGroup) OnPanic(fn func(recovered interface{})) *WaitGroup {
	w.onPanic = fn
	return w
}

// Go 在 WaitGroup 中安全启动 Goroutine
// Done 在 panic 回调之后执行，Wait 返回时回调已完成
func (w *WaitGroup) Go(fn func()) {
	w.wg.Add(1)
	run(w.name, fn, w.onPanic, w.wg.Done)
}

// GoWithCallback 与 Go 相同，但使用单独的 panic 回调
func (w *WaitGroup) GoWithCallback(fn func(), onPanic func(recovered interface{})) {
	w.wg.Add(1)
	run(w.name, fn, onPanic, w.wg.Done)
}

// Wait 等待所有 Goroutine 完成
func (w *WaitGroup) Wait() {
	w.wg.Wait()
}

// WaitChan 返回一个在所有 Goroutine 完成后关闭的通道
func (w *WaitGroup) WaitChan() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(ch)
	}()
	return ch
}
