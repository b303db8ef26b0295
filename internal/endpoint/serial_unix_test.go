//go:build unix

package endpoint

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSerialEndpoint_ErrnoMeansClosed(t *testing.T) {
	for _, errno := range []unix.Errno{unix.EIO, unix.ENXIO, unix.ENODEV, unix.EBADF} {
		t.Run(errno.Error(), func(t *testing.T) {
			port := &fakePort{reads: []readResult{{err: &os.PathError{Op: "read", Path: "/dev/ttyUSB0", Err: errno}}}}
			ep := newSerialEndpoint("/dev/null", 9600, port)
			defer ep.Close()

			n, err := ep.Read(make([]byte, 4))
			assert.Equal(t, ReadClosed, ClassifyRead(n, err))
		})
	}
}

func TestSerialEndpoint_DeviceNodeRemoved(t *testing.T) {
	device := filepath.Join(t.TempDir(), "ttyFAKE0")
	require.NoError(t, os.WriteFile(device, nil, 0o600))

	port := &fakePort{reads: []readResult{{err: io.EOF}, {err: io.EOF}}}
	ep := newSerialEndpoint(device, 9600, port)
	defer ep.Close()

	buf := make([]byte, 4)
	n, err := ep.Read(buf)
	assert.Equal(t, ReadTimeout, ClassifyRead(n, err), "device still present")

	require.NoError(t, os.Remove(device))
	n, err = ep.Read(buf)
	assert.Equal(t, ReadClosed, ClassifyRead(n, err), "device node gone")
}
