package bridge

import (
	"time"

	coreerrors "serialbridge/internal/core/errors"
	"serialbridge/internal/forward"
)

// Reason 会话终止原因
type Reason int

const (
	// ReasonClosed 某一方向的源端正常关闭
	ReasonClosed Reason = iota
	// ReasonStreamError 某一方向读写失败
	ReasonStreamError
	// ReasonInterrupted 外部中断
	ReasonInterrupted
)

func (r Reason) String() string {
	switch r {
	case ReasonClosed:
		return "closed"
	case ReasonStreamError:
		return "stream_error"
	case ReasonInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Result 会话结果
type Result struct {
	ID     string
	Reason Reason

	// First 第一个终止的方向；外部中断时为零值
	First forward.Outcome

	AtoB forward.Outcome
	BtoA forward.Outcome

	// CloseErrors 关闭端点时的错误，不影响 Reason
	CloseErrors []error

	Started time.Time
	Ended   time.Time
}

// Err 流错误返回 StreamError(direction, cause)，正常关闭与中断返回 nil
func (r *Result) Err() error {
	if r.Reason != ReasonStreamError {
		return nil
	}
	return r.First.Err()
}

// Status 用于进程退出码与日志的错误值，中断与关闭也会返回对应的错误码
func (r *Result) Status() error {
	switch r.Reason {
	case ReasonClosed:
		return coreerrors.Newf(coreerrors.CodeStreamClosed, "%s closed by peer", r.First.Direction)
	case ReasonInterrupted:
		return coreerrors.ErrInterrupted
	default:
		return r.Err()
	}
}

// Outcome 指定方向的结果
func (r *Result) Outcome(d forward.Direction) forward.Outcome {
	if d == forward.AtoB {
		return r.AtoB
	}
	return r.BtoA
}

// Duration 会话时长
func (r *Result) Duration() time.Duration {
	return r.Ended.Sub(r.Started)
}
