//go:build !no_kcp

// KCP transport.
// Build with -tags no_kcp to leave it out of the binary.
package transport

import (
	"context"
	"net"

	"github.com/xtaci/kcp-go/v5"

	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
)

// ProtocolKCP is a reliable stream over UDP.
const ProtocolKCP = "kcp"

// KCP tuning, no encryption and no FEC.
const (
	KCPDataShards   = 0
	KCPParityShards = 0
	KCPSndWnd       = 128
	KCPRcvWnd       = 128
	KCPNoDelay      = 1
	KCPInterval     = 10
	KCPResend       = 2
	KCPNC           = 1
	KCPMTU          = 1400
)

func init() {
	RegisterProtocol(ProtocolKCP, 40, DialKCP)
}

// DialKCP opens a KCP session. *kcp.UDPSession already satisfies net.Conn.
func DialKCP(ctx context.Context, address string) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeNetworkError, "kcp dial cancelled")
	}
	corelog.Debugf("KCP: dialing %s", address)

	conn, err := kcp.DialWithOptions(address, nil, KCPDataShards, KCPParityShards)
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "kcp dial %s failed", address)
	}
	TuneKCP(conn)

	corelog.Infof("KCP: session established to %s", address)
	return conn, nil
}

// TuneKCP applies the low-latency profile used on both ends.
func TuneKCP(conn *kcp.UDPSession) {
	conn.SetNoDelay(KCPNoDelay, KCPInterval, KCPResend, KCPNC)
	conn.SetWindowSize(KCPSndWnd, KCPRcvWnd)
	conn.SetMtu(KCPMTU)
	conn.SetACKNoDelay(true)
	conn.SetStreamMode(true)
}
