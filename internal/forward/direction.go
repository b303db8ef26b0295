// Package forward 单方向转发任务
package forward

// Direction 数据流向
type Direction int

const (
	AtoB Direction = iota
	BtoA
)

func (d Direction) String() string {
	switch d {
	case AtoB:
		return "A→B"
	case BtoA:
		return "B→A"
	default:
		return "unknown"
	}
}

// Reverse 反方向
func (d Direction) Reverse() Direction {
	if d == AtoB {
		return BtoA
	}
	return AtoB
}
