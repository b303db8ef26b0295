//go:build !unix

package endpoint

// COM 端口没有文件系统节点，只能依赖读错误
func isDeviceGone(error) bool {
	return false
}

func deviceRemoved(string) bool {
	return false
}
