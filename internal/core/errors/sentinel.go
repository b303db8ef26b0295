package errors

// 预定义哨兵错误（用于 errors.Is 比较）
var (
	ErrInvalidParam    = New(CodeInvalidParam, "invalid parameter")
	ErrConfig          = New(CodeConfigError, "configuration error")
	ErrConnectionError = New(CodeConnectionError, "connection error")
	ErrStreamError     = New(CodeStreamError, "stream error")
	ErrStreamClosed    = New(CodeStreamClosed, "stream closed")
	ErrInterrupted     = New(CodeInterrupted, "interrupted")
	ErrTimeout         = New(CodeTimeout, "operation timeout")
)

// 详情键
const (
	DetailEndpoint  = "endpoint"
	DetailDirection = "direction"
)

// NewConnectionError 端点建立失败
func NewConnectionError(endpoint string, cause error) *Error {
	return Wrapf(cause, CodeConnectionError, "failed to establish %s", endpoint).
		WithDetail(DetailEndpoint, endpoint)
}

// NewStreamError 转发过程中某一方向的 I/O 失败
func NewStreamError(direction string, cause error) *Error {
	return Wrapf(cause, CodeStreamError, "%s failed", direction).
		WithDetail(DetailDirection, direction)
}

// IsConnectionError 是否为连接建立错误
func IsConnectionError(err error) bool {
	return IsCode(err, CodeConnectionError)
}

// IsStreamError 是否为转发错误
func IsStreamError(err error) bool {
	return IsCode(err, CodeStreamError)
}

// ExitCode 将错误映射为进程退出码
// nil、对端关闭、手动中断视为正常退出
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case CodeStreamClosed, CodeInterrupted:
		return 0
	default:
		return 1
	}
}
