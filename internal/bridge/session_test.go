package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/endpoint"
	"serialbridge/internal/forward"
	"serialbridge/internal/testutils"
)

func testOptions(t *testing.T) Options {
	return Options{
		ChunkSize:    10,
		DrainTimeout: time.Second,
		Logger:       corelog.NewTestLogger(t),
	}
}

func runAsync(ctx context.Context, s *Session) <-chan *Result {
	ch := make(chan *Result, 1)
	go func() { ch <- s.Run(ctx) }()
	return ch
}

func waitResult(t *testing.T, ch <-chan *Result) *Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("session did not terminate")
		return nil
	}
}

func assertTerminal(t *testing.T, r *Result, a, b *testutils.FakeEndpoint) {
	t.Helper()
	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.Equal(t, int32(1), a.Releases())
	assert.Equal(t, int32(1), b.Releases())
	assert.NotEqual(t, forward.KindPending, r.AtoB.Kind)
	assert.NotEqual(t, forward.KindPending, r.BtoA.Kind)
	assert.False(t, r.Ended.Before(r.Started))
}

func TestSession_CleanRelayThenPeerCloses(t *testing.T) {
	const greeting = "Hello from python client.\r\n"
	a := testutils.NewFakeEndpoint("tcp",
		testutils.Data(greeting[:10]),
		testutils.Data(greeting[10:20]),
		testutils.Data(greeting[20:]),
	)
	b := testutils.NewFakeEndpoint("serial")

	s := NewSession(a, b, testOptions(t))
	ch := runAsync(context.Background(), s)

	require.Eventually(t, func() bool { return len(b.Writes()) == 3 }, 2*time.Second, time.Millisecond)
	a.Push(testutils.Closed())
	r := waitResult(t, ch)

	assert.Equal(t, ReasonClosed, r.Reason)
	assert.Equal(t, forward.AtoB, r.First.Direction)
	assert.Equal(t, forward.KindClosed, r.AtoB.Kind)
	assert.Equal(t, forward.KindStopped, r.BtoA.Kind)
	assert.NoError(t, r.Err())
	assert.Equal(t, 0, coreerrors.ExitCode(r.Status()))
	assert.Equal(t, greeting, string(b.Written()))
	assert.Equal(t, s.ID(), r.ID)
	assertTerminal(t, r, a, b)
}

func TestSession_PeerClosesWhileBytesQueued(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp")
	b := testutils.NewFakeEndpoint("serial")

	queued := strings.Repeat("x", 40)
	entered := make(chan struct{})
	release := make(chan struct{})
	a.WriteHook = func(p []byte) error {
		close(entered)
		<-release
		return nil
	}

	opts := testOptions(t)
	opts.ChunkSize = 64
	ch := runAsync(context.Background(), NewSession(a, b, opts))

	// B→A 已经读出 40 字节并正在写入 A
	b.Push(testutils.Data(queued))
	<-entered

	// A 此时报告关闭
	a.Push(testutils.Closed())
	time.Sleep(50 * time.Millisecond)
	assert.False(t, a.IsClosed(), "A must stay open while a write to it is in flight")
	close(release)

	r := waitResult(t, ch)
	assert.Equal(t, ReasonClosed, r.Reason)
	assert.Equal(t, forward.AtoB, r.First.Direction)
	assert.Equal(t, forward.KindStopped, r.BtoA.Kind)
	assert.Equal(t, int64(40), r.BtoA.BytesWritten)
	assert.Equal(t, queued, string(a.Written()))
	assert.Equal(t, []string{"write", "close"}, a.Events(), "queued bytes are written before A is closed")
	assertTerminal(t, r, a, b)
}

func TestSession_StreamErrorStopsBothDirections(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp", testutils.Data("AT\r\n"))
	b := testutils.NewFakeEndpoint("serial")
	unplugged := errors.New("device unplugged")
	b.WriteHook = func(p []byte) error { return unplugged }

	r := waitResult(t, runAsync(context.Background(), NewSession(a, b, testOptions(t))))

	assert.Equal(t, ReasonStreamError, r.Reason)
	assert.Equal(t, forward.KindError, r.AtoB.Kind)
	assert.Equal(t, forward.KindStopped, r.BtoA.Kind)

	err := r.Err()
	require.Error(t, err)
	assert.True(t, coreerrors.IsStreamError(err))
	assert.ErrorIs(t, err, unplugged)
	assert.Equal(t, "A→B", coreerrors.GetDetail(err, coreerrors.DetailDirection))
	assert.Equal(t, 1, coreerrors.ExitCode(r.Status()))
	assertTerminal(t, r, a, b)
}

func TestSession_ReadErrorOnSerialSide(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp")
	b := testutils.NewFakeEndpoint("serial", testutils.Timeout(), testutils.Failure(errors.New("overrun")))

	r := waitResult(t, runAsync(context.Background(), NewSession(a, b, testOptions(t))))

	assert.Equal(t, ReasonStreamError, r.Reason)
	assert.Equal(t, forward.BtoA, r.First.Direction)
	assert.Contains(t, r.Err().Error(), "B→A")
	assertTerminal(t, r, a, b)
}

func TestSession_Interrupted(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp")
	b := testutils.NewFakeEndpoint("serial")
	s := NewSession(a, b, testOptions(t))

	ctx, cancel := context.WithCancel(context.Background())
	ch := runAsync(ctx, s)
	require.Eventually(t, func() bool { return s.State() == StateRunning }, time.Second, time.Millisecond)
	cancel()

	r := waitResult(t, ch)
	assert.Equal(t, ReasonInterrupted, r.Reason)
	assert.NoError(t, r.Err())
	assert.ErrorIs(t, r.Status(), coreerrors.ErrInterrupted)
	assert.Equal(t, 0, coreerrors.ExitCode(r.Status()))
	assert.Equal(t, forward.KindStopped, r.AtoB.Kind)
	assert.Equal(t, forward.KindStopped, r.BtoA.Kind)
	assert.Equal(t, StateClosed, s.State())
	assertTerminal(t, r, a, b)
}

func TestSession_BoundedTeardownWithStuckWrite(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp")
	b := testutils.NewFakeEndpoint("serial", testutils.Data("stuck"))
	// 写入 A 一直阻塞，直到 A 被关闭
	a.WriteHook = func(p []byte) error {
		<-a.Done()
		return endpoint.ErrClosed
	}

	opts := testOptions(t)
	opts.DrainTimeout = 50 * time.Millisecond
	ch := runAsync(context.Background(), NewSession(a, b, opts))

	require.Eventually(t, func() bool { return b.Reads() == 1 }, time.Second, time.Millisecond)
	a.Push(testutils.Closed())

	start := time.Now()
	r := waitResult(t, ch)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, ReasonClosed, r.Reason)
	assert.Equal(t, forward.KindError, r.BtoA.Kind, "write aborted by close")
	assertTerminal(t, r, a, b)
}

func TestSession_PanicBecomesError(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp", testutils.Data("boom"))
	b := testutils.NewFakeEndpoint("serial")
	b.WriteHook = func(p []byte) error { panic("driver bug") }

	r := waitResult(t, runAsync(context.Background(), NewSession(a, b, testOptions(t))))

	assert.Equal(t, ReasonStreamError, r.Reason)
	assert.Equal(t, forward.KindError, r.AtoB.Kind)
	assert.Contains(t, r.AtoB.Cause.Error(), "driver bug")
	assertTerminal(t, r, a, b)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp", testutils.Closed())
	b := testutils.NewFakeEndpoint("serial")
	s := NewSession(a, b, testOptions(t))

	r := waitResult(t, runAsync(context.Background(), s))
	assert.Equal(t, ReasonClosed, r.Reason)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, int32(1), a.Releases())
	assert.Equal(t, int32(1), b.Releases())
}

func TestSession_StatsWhileRunning(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp", testutils.Data("0123456789"))
	b := testutils.NewFakeEndpoint("serial", testutils.Timeout(), testutils.Data("OK"))
	s := NewSession(a, b, testOptions(t))

	before := s.Stats()
	assert.Equal(t, "pending", before.State)

	ctx, cancel := context.WithCancel(context.Background())
	ch := runAsync(ctx, s)
	require.Eventually(t, func() bool {
		st := s.Stats()
		return st.AtoB.BytesWritten == 10 && st.BtoA.BytesWritten == 2
	}, 2*time.Second, time.Millisecond)

	st := s.Stats()
	assert.Equal(t, "running", st.State)
	assert.Equal(t, s.ID(), st.ID)
	assert.Equal(t, "tcp→serial", st.AtoB.Route)
	assert.Equal(t, "serial→tcp", st.BtoA.Route)
	assert.Equal(t, int64(1), st.BtoA.IdleReads)

	cancel()
	waitResult(t, ch)
	st = s.Stats()
	assert.Equal(t, "closed", st.State)
	assert.Equal(t, "interrupted", st.Reason)
}
