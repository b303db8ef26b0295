package controller

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/bridge"
	"serialbridge/internal/endpoint"
	"serialbridge/internal/testutils"
)

func fakeOpener(ep *testutils.FakeEndpoint) Opener {
	return func(ctx context.Context) (endpoint.Endpoint, error) {
		return ep, nil
	}
}

func failingOpener(err error) Opener {
	return func(ctx context.Context) (endpoint.Endpoint, error) {
		return nil, err
	}
}

func TestController_SerialFailureReleasesNetwork(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp")
	busy := errors.New("device busy")
	var created bool

	c := New(Options{
		Serial:      endpoint.SerialOptions{Device: "/dev/ttyUSB9", Baud: 9600},
		OpenNetwork: fakeOpener(a),
		OpenSerial:  failingOpener(busy),
		OnSession:   func(*bridge.Session) { created = true },
		Logger:      corelog.NewTestLogger(t),
	})

	result, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, coreerrors.IsConnectionError(err))
	assert.ErrorIs(t, err, busy)
	assert.Contains(t, err.Error(), "/dev/ttyUSB9")
	assert.Equal(t, 1, coreerrors.ExitCode(err))

	assert.False(t, created, "no session exists after a connection error")
	assert.Nil(t, c.Session())
	assert.True(t, a.IsClosed(), "the other endpoint must be released")
}

func TestController_NetworkRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	b := testutils.NewFakeEndpoint("serial")
	c := New(Options{
		Network:    endpoint.NetworkOptions{Host: "127.0.0.1", Port: port, DialTimeout: time.Second},
		OpenSerial: fakeOpener(b),
		Logger:     corelog.NewTestLogger(t),
	})

	_, err = c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, coreerrors.IsConnectionError(err))
	assert.Equal(t, "tcp://"+net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), coreerrors.GetDetail(err, coreerrors.DetailEndpoint))
	assert.True(t, b.IsClosed())
}

func TestController_InterruptIsNotAnError(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp")
	b := testutils.NewFakeEndpoint("serial")
	sessions := make(chan *bridge.Session, 1)

	c := New(Options{
		OpenNetwork: fakeOpener(a),
		OpenSerial:  fakeOpener(b),
		OnSession:   func(s *bridge.Session) { sessions <- s },
		Logger:      corelog.NewTestLogger(t),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var (
		result *bridge.Result
		runErr error
	)
	go func() {
		defer close(done)
		result, runErr = c.Run(ctx)
	}()

	s := <-sessions
	require.Eventually(t, func() bool { return s.State() == bridge.StateRunning }, time.Second, time.Millisecond)
	cancel()
	<-done

	require.NoError(t, runErr)
	assert.Equal(t, bridge.ReasonInterrupted, result.Reason)
	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.Same(t, s, c.Session())
}

func TestController_StreamErrorReported(t *testing.T) {
	a := testutils.NewFakeEndpoint("tcp")
	b := testutils.NewFakeEndpoint("serial", testutils.Failure(errors.New("overrun")))

	c := New(Options{
		OpenNetwork: fakeOpener(a),
		OpenSerial:  fakeOpener(b),
		Logger:      corelog.NewTestLogger(t),
	})

	result, err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, coreerrors.IsStreamError(err))
	assert.Equal(t, "B→A", coreerrors.GetDetail(err, coreerrors.DetailDirection))
	assert.Equal(t, bridge.ReasonStreamError, result.Reason)
	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
}

func TestController_RelaysOverRealTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	peer := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			peer <- conn
		}
	}()

	b := testutils.NewFakeEndpoint("serial")
	c := New(Options{
		Network:    endpoint.NetworkOptions{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port, DialTimeout: time.Second},
		OpenSerial: fakeOpener(b),
		Logger:     corelog.NewTestLogger(t),
	})

	type runResult struct {
		result *bridge.Result
		err    error
	}
	done := make(chan runResult, 1)
	go func() {
		r, err := c.Run(context.Background())
		done <- runResult{r, err}
	}()

	conn := <-peer
	_, err = conn.Write([]byte("Hello from python client\r\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return string(b.Written()) == "Hello from python client\r\n"
	}, 2*time.Second, time.Millisecond)

	b.Push(testutils.Data("RX OK\r\n"))
	buf := make([]byte, 16)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "RX OK\r\n", string(buf[:n]))

	require.NoError(t, conn.Close())
	select {
	case rr := <-done:
		require.NoError(t, rr.err)
		assert.Equal(t, bridge.ReasonClosed, rr.result.Reason)
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not return after peer closed")
	}
	assert.True(t, b.IsClosed())
}
