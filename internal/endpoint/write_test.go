package endpoint

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// limitedWriter 每次调用最多接受 limits[i] 个字节
type limitedWriter struct {
	limits []int
	calls  [][]byte
	data   []byte
	err    error
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	i := len(w.calls)
	w.calls = append(w.calls, append([]byte(nil), p...))
	n := len(p)
	if i < len(w.limits) && w.limits[i] < n {
		n = w.limits[i]
	}
	w.data = append(w.data, p[:n]...)
	if w.err != nil {
		return n, w.err
	}
	return n, nil
}

func TestWriteFull_PartialWriteRetried(t *testing.T) {
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	w := &limitedWriter{limits: []int{60}}

	require.NoError(t, WriteFull(w, payload))

	require.Len(t, w.calls, 2)
	assert.Len(t, w.calls[0], 100)
	assert.Equal(t, payload[60:], w.calls[1], "second write carries the remaining 40 bytes")
	assert.Equal(t, payload, w.data)
}

func TestWriteFull_StalledWriter(t *testing.T) {
	w := &limitedWriter{limits: []int{0, 0, 0, 0, 0}}
	err := WriteFull(w, []byte("abc"))
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Len(t, w.calls, maxStalledWrites)
}

func TestWriteFull_FatalError(t *testing.T) {
	boom := errors.New("device unplugged")
	w := &limitedWriter{limits: []int{2}, err: boom}
	err := WriteFull(w, []byte("abcdef"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []byte("ab"), w.data)
}

func TestWriteFull_Empty(t *testing.T) {
	w := &limitedWriter{}
	require.NoError(t, WriteFull(w, nil))
	assert.Empty(t, w.calls)
}

func TestClassifyRead(t *testing.T) {
	tests := []struct {
		name string
		n    int
		err  error
		want ReadKind
	}{
		{"data", 3, nil, ReadData},
		{"data with error", 3, io.EOF, ReadData},
		{"zero nil is timeout", 0, nil, ReadTimeout},
		{"timeout", 0, ErrTimeout, ReadTimeout},
		{"eof", 0, io.EOF, ReadClosed},
		{"closed", 0, ErrClosed, ReadClosed},
		{"other", 0, errors.New("framing error"), ReadError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRead(tt.n, tt.err))
		})
	}
}
