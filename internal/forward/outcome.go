package forward

import (
	"fmt"
	"time"

	coreerrors "serialbridge/internal/core/errors"
)

// Kind 任务终止类型
type Kind int

const (
	// KindPending 任务尚未结束
	KindPending Kind = iota
	// KindClosed 源端关闭，正常结束
	KindClosed
	// KindError 读或写失败
	KindError
	// KindStopped 会话要求停止
	KindStopped
)

func (k Kind) String() string {
	switch k {
	case KindClosed:
		return "closed"
	case KindError:
		return "error"
	case KindStopped:
		return "stopped"
	default:
		return "pending"
	}
}

// Outcome 任务的终止结果，每个任务只产生一次
type Outcome struct {
	Direction    Direction
	Kind         Kind
	Cause        error
	BytesRead    int64
	BytesWritten int64
	IdleReads    int64
	Started      time.Time
	Ended        time.Time
}

// Duration 任务运行时长
func (o Outcome) Duration() time.Duration {
	if o.Ended.IsZero() {
		return 0
	}
	return o.Ended.Sub(o.Started)
}

// Err 错误结果转换为 StreamError，其他返回 nil
func (o Outcome) Err() error {
	if o.Kind != KindError {
		return nil
	}
	return coreerrors.NewStreamError(o.Direction.String(), o.Cause)
}

func (o Outcome) String() string {
	if o.Kind == KindError {
		return fmt.Sprintf("%s %s: %v (read %d, written %d)", o.Direction, o.Kind, o.Cause, o.BytesRead, o.BytesWritten)
	}
	return fmt.Sprintf("%s %s (read %d, written %d)", o.Direction, o.Kind, o.BytesRead, o.BytesWritten)
}
