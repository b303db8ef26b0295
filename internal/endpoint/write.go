package endpoint

import (
	"io"
)

// maxStalledWrites 连续零进度写入的上限
const maxStalledWrites = 3

// WriteFull 写入 p 的全部字节
// 底层 Write 只接受部分字节时继续写剩余部分；连续多次零进度返回 io.ErrShortWrite
func WriteFull(w io.Writer, p []byte) error {
	stalled := 0
	for len(p) > 0 {
		n, err := w.Write(p)
		if n < 0 || n > len(p) {
			return io.ErrShortWrite
		}
		p = p[n:]
		if n > 0 {
			stalled = 0
		}

		if err != nil {
			// 部分写入后的 ErrShortWrite 可以继续
			if err == io.ErrShortWrite && n > 0 {
				continue
			}
			return err
		}

		if n == 0 {
			stalled++
			if stalled >= maxStalledWrites {
				return io.ErrShortWrite
			}
		}
	}
	return nil
}
