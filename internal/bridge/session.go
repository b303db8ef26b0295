// Package bridge 双向桥接会话
//
// 会话持有两个端点，每个方向一个转发任务。任一方向终止（关闭或出错）
// 或外部中断时：通知另一方向停止，等待其完成正在进行的写入，
// 关闭两个端点（各一次），最后等待两个任务结束。
package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"serialbridge/internal/core/dispose"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/core/safe"
	"serialbridge/internal/endpoint"
	"serialbridge/internal/forward"
)

// DefaultDrainTimeout 等待存活方向完成当前写入的上限
const DefaultDrainTimeout = 5 * time.Second

// Options 会话参数
type Options struct {
	ChunkSize    int
	IdleBackoff  time.Duration
	DrainTimeout time.Duration
	Trace        bool
	Logger       corelog.Logger
}

// Session 双向桥接会话，Run 只能调用一次
type Session struct {
	id     string
	a, b   endpoint.Endpoint
	tasks  [2]*forward.Task
	opts   Options
	logger corelog.Logger

	lifecycle *dispose.Dispose
	stopOnce  sync.Once
	stop      chan struct{}

	state   atomic.Int32
	reason  atomic.Value // Reason
	started atomic.Value // time.Time
}

// NewSession 创建会话，a、b 必须已经打开
func NewSession(a, b endpoint.Endpoint, opts Options) *Session {
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = DefaultDrainTimeout
	}
	if opts.Logger == nil {
		opts.Logger = corelog.Default()
	}

	id := uuid.New().String()
	logger := opts.Logger.WithField(corelog.FieldSession, id)
	taskOpts := forward.Options{
		ChunkSize:   opts.ChunkSize,
		IdleBackoff: opts.IdleBackoff,
		Trace:       opts.Trace,
		Logger:      logger,
	}

	s := &Session{
		id:     id,
		a:      a,
		b:      b,
		opts:   opts,
		logger: logger,
		stop:   make(chan struct{}),
		tasks: [2]*forward.Task{
			forward.NewTask(forward.AtoB, a, b, taskOpts),
			forward.NewTask(forward.BtoA, b, a, taskOpts),
		},
		lifecycle: dispose.NewDispose("BridgeSession-" + id),
	}

	// 端点按 A、B 顺序关闭，各自幂等
	s.lifecycle.AddCleanHandler(a.Close)
	s.lifecycle.AddCleanHandler(b.Close)
	return s
}

// ID 会话 ID
func (s *Session) ID() string {
	return s.id
}

// State 当前状态
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run 运行会话直到任一方向终止或 ctx 取消
// 返回时两个端点都已关闭，两个任务都已结束
func (s *Session) Run(ctx context.Context) *Result {
	started := time.Now()
	s.started.Store(started)
	s.state.Store(int32(StateRunning))
	s.logger.Infof("Bridge: session started (%s <-> %s)", s.a.Label(), s.b.Label())

	outcomes := make(chan forward.Outcome, len(s.tasks))
	wg := safe.NewWaitGroup("bridge-" + s.id)
	for _, task := range s.tasks {
		task := task
		wg.GoWithCallback(func() {
			outcomes <- task.Run(s.stop)
		}, func(recovered interface{}) {
			outcomes <- task.Panicked(recovered)
		})
	}

	result := &Result{ID: s.id, Started: started}
	collected := make([]forward.Outcome, 0, len(s.tasks))

	select {
	case first := <-outcomes:
		collected = append(collected, first)
		result.First = first
		if first.Kind == forward.KindError {
			result.Reason = ReasonStreamError
		} else {
			result.Reason = ReasonClosed
		}
		s.logger.Infof("Bridge: %s ended first: %s", first.Direction, first)
	case <-ctx.Done():
		result.Reason = ReasonInterrupted
		s.logger.Infof("Bridge: interrupted")
	}
	s.reason.Store(result.Reason)

	s.state.Store(int32(StateDraining))
	s.signalStop()

	// 给存活方向 DrainTimeout 的时间完成当前写入
	drain := time.NewTimer(s.opts.DrainTimeout)
	defer drain.Stop()
drainLoop:
	for len(collected) < len(s.tasks) {
		select {
		case o := <-outcomes:
			collected = append(collected, o)
		case <-drain.C:
			s.logger.Warnf("Bridge: drain timeout %s elapsed, forcing close", s.opts.DrainTimeout)
			break drainLoop
		}
	}

	if r := s.lifecycle.Close(); r.HasErrors() {
		for _, e := range r.Errors {
			result.CloseErrors = append(result.CloseErrors, e)
			s.logger.WithError(e.Err).Warnf("Bridge: close endpoint failed")
		}
	}

	// 关闭端点会解除仍阻塞的读写
	wg.Wait()
	for len(collected) < len(s.tasks) {
		collected = append(collected, <-outcomes)
	}

	for _, o := range collected {
		if o.Direction == forward.AtoB {
			result.AtoB = o
		} else {
			result.BtoA = o
		}
	}
	result.Ended = time.Now()
	s.state.Store(int32(StateClosed))

	s.logger.WithFields(corelog.Fields{
		"reason":   result.Reason.String(),
		"a_to_b":   result.AtoB.BytesWritten,
		"b_to_a":   result.BtoA.BytesWritten,
		"duration": result.Duration().String(),
	}).Infof("Bridge: session ended")
	return result
}

// signalStop 通知两个任务在下一次循环前退出，并打断阻塞中的读取
func (s *Session) signalStop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.a.Interrupt()
		s.b.Interrupt()
	})
}

// Close 直接关闭两个端点，可重复调用
// 正常情况下由 Run 负责关闭，这里用于会话从未运行的情况
func (s *Session) Close() error {
	s.signalStop()
	return s.lifecycle.CloseWithError()
}

// Stats 会话快照，可在 Run 期间并发调用
func (s *Session) Stats() Stats {
	st := Stats{
		ID:    s.id,
		State: s.State().String(),
		AtoB:  s.directionStats(s.tasks[0]),
		BtoA:  s.directionStats(s.tasks[1]),
	}
	if r, ok := s.reason.Load().(Reason); ok {
		st.Reason = r.String()
	}
	if started, ok := s.started.Load().(time.Time); ok {
		st.Started = started
		st.Uptime = time.Since(started).Truncate(time.Second).String()
	}
	return st
}

func (s *Session) directionStats(t *forward.Task) DirectionStats {
	return DirectionStats{
		Route:        t.Route(),
		BytesRead:    t.BytesRead(),
		BytesWritten: t.BytesWritten(),
		IdleReads:    t.IdleReads(),
	}
}
