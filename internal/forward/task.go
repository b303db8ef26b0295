package forward

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/endpoint"
)

const (
	// DefaultChunkSize 每次读取的最大字节数
	DefaultChunkSize = 1024

	idleLogInterval = 30 * time.Second
)

// Options 转发任务参数
type Options struct {
	ChunkSize int

	// IdleBackoff 读超时后的等待时间，0 表示立即重试
	// 只有不能阻塞等待数据的传输需要设置
	IdleBackoff time.Duration

	// Trace 以 info 级别输出每一块转发的数据
	Trace bool

	Logger corelog.Logger
}

// Task 负责一个方向的读-写循环
// 源端点只被读，目标端点只被写
type Task struct {
	direction   Direction
	source      endpoint.Endpoint
	destination endpoint.Endpoint
	chunkSize   int
	idleBackoff time.Duration
	trace       bool
	logger      corelog.Logger
	idleLog     rate.Sometimes

	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
	idleReads    atomic.Int64
	started      time.Time
}

// NewTask 创建转发任务
func NewTask(direction Direction, source, destination endpoint.Endpoint, opts Options) *Task {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = corelog.Default()
	}
	return &Task{
		direction:   direction,
		source:      source,
		destination: destination,
		chunkSize:   opts.ChunkSize,
		idleBackoff: opts.IdleBackoff,
		trace:       opts.Trace,
		logger: opts.Logger.WithFields(corelog.Fields{
			corelog.FieldDirection: direction.String(),
		}),
		idleLog: rate.Sometimes{First: 1, Interval: idleLogInterval},
	}
}

// Direction 任务方向
func (t *Task) Direction() Direction {
	return t.direction
}

// Route 诊断用的 "源→目标" 描述
func (t *Task) Route() string {
	return fmt.Sprintf("%s→%s", t.source.Label(), t.destination.Label())
}

// BytesRead 已读字节数
func (t *Task) BytesRead() int64 {
	return t.bytesRead.Load()
}

// BytesWritten 已写字节数
func (t *Task) BytesWritten() int64 {
	return t.bytesWritten.Load()
}

// IdleReads 超时读取次数
func (t *Task) IdleReads() int64 {
	return t.idleReads.Load()
}

// Run 执行转发循环直到源端关闭、出错或 stop 被关闭
// stop 只在两次循环之间检查，正在进行的写入总会完成
func (t *Task) Run(stop <-chan struct{}) Outcome {
	t.started = time.Now()
	t.logger.Debugf("Forward: %s started", t.Route())

	buf := make([]byte, t.chunkSize)
	for {
		select {
		case <-stop:
			return t.finish(KindStopped, nil)
		default:
		}

		n, err := t.source.Read(buf)
		switch endpoint.ClassifyRead(n, err) {
		case endpoint.ReadData:
			t.bytesRead.Add(int64(n))
			if t.trace {
				t.logger.Infof("%s: %q", t.Route(), buf[:n])
			}
			if werr := t.destination.Write(buf[:n]); werr != nil {
				return t.finish(KindError, coreerrors.Wrap(werr, coreerrors.CodeStreamError, "write failed"))
			}
			t.bytesWritten.Add(int64(n))

		case endpoint.ReadTimeout:
			idle := t.idleReads.Add(1)
			t.idleLog.Do(func() {
				t.logger.Debugf("Forward: no data from %s (%d idle reads)", t.source.Label(), idle)
			})
			if t.idleBackoff > 0 && !t.sleep(stop) {
				return t.finish(KindStopped, nil)
			}

		case endpoint.ReadClosed:
			return t.finish(KindClosed, nil)

		default:
			return t.finish(KindError, err)
		}
	}
}

// sleep 等待 idleBackoff，期间被停止返回 false
func (t *Task) sleep(stop <-chan struct{}) bool {
	timer := time.NewTimer(t.idleBackoff)
	defer timer.Stop()
	select {
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

// Panicked 任务 panic 后的结果
func (t *Task) Panicked(recovered interface{}) Outcome {
	return t.finish(KindError, coreerrors.Newf(coreerrors.CodeInternal, "panic: %v", recovered))
}

func (t *Task) finish(kind Kind, cause error) Outcome {
	o := Outcome{
		Direction:    t.direction,
		Kind:         kind,
		Cause:        cause,
		BytesRead:    t.bytesRead.Load(),
		BytesWritten: t.bytesWritten.Load(),
		IdleReads:    t.idleReads.Load(),
		Started:      t.started,
		Ended:        time.Now(),
	}
	if kind == KindError {
		t.logger.WithError(cause).Warnf("Forward: %s terminated", t.Route())
	} else {
		t.logger.Debugf("Forward: %s", o)
	}
	return o
}
