package dispose

// dispose 包不直接依赖日志实现，由主程序注入
var logFunc func(level string, format string, args ...interface{})

// SetLogger 设置日志函数
func SetLogger(fn func(level string, format string, args ...interface{})) {
	logFunc = fn
}

func logf(level string, format string, args ...interface{}) {
	if logFunc != nil {
		logFunc(level, format, args...)
	}
}

// Debugf 调试日志
func Debugf(format string, args ...interface{}) {
	logf("debug", format, args...)
}

// Errorf 错误日志
func Errorf(format string, args ...interface{}) {
	logf("error", format, args...)
}
