package bridge

import (
	"time"
)

// State 会话状态
type State int32

const (
	StatePending State = iota
	StateRunning
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return "closed"
	}
}

// DirectionStats 单方向统计
type DirectionStats struct {
	Route        string `json:"route"`
	BytesRead    int64  `json:"bytes_read"`
	BytesWritten int64  `json:"bytes_written"`
	IdleReads    int64  `json:"idle_reads"`
}

// Stats 会话快照
type Stats struct {
	ID      string         `json:"id"`
	State   string         `json:"state"`
	Reason  string         `json:"reason,omitempty"`
	AtoB    DirectionStats `json:"a_to_b"`
	BtoA    DirectionStats `json:"b_to_a"`
	Started time.Time      `json:"started"`
	Uptime  string         `json:"uptime"`
}
