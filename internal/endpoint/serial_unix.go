//go:build unix

package endpoint

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// isDeviceGone 拔出 USB 串口后 read 返回的错误
func isDeviceGone(err error) bool {
	return errors.Is(err, unix.EIO) ||
		errors.Is(err, unix.ENXIO) ||
		errors.Is(err, unix.ENODEV) ||
		errors.Is(err, unix.EBADF)
}

func deviceRemoved(device string) bool {
	_, err := os.Stat(device)
	return errors.Is(err, os.ErrNotExist)
}
