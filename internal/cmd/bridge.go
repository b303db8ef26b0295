package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"serialbridge/internal/bridge"
	"serialbridge/internal/cli"
	"serialbridge/internal/config/loader"
	"serialbridge/internal/config/schema"
	"serialbridge/internal/controller"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/endpoint"
	"serialbridge/internal/forward"
	"serialbridge/internal/status"
	"serialbridge/internal/version"
)

// bridgeRunner 运行桥接时的外部依赖，为空时使用真实端点
type bridgeRunner struct {
	signals     []os.Signal
	openNetwork controller.Opener
	openSerial  controller.Opener
}

func (a *app) runBridge(cmd *cobra.Command, _ []string) error {
	cfg, err := loader.Load(a.flags.configFile, a.flags.overrides(cmd.Flags()))
	if err != nil {
		return err
	}

	closer, err := configureLogging(logConfig(cfg.Log))
	if err != nil {
		return err
	}
	defer closer.Close()

	return a.bridge(cmd.Context(), cfg)
}

// bridge 建立端点并运行一个会话，返回值决定退出码
func (a *app) bridge(ctx context.Context, cfg *schema.Root) error {
	out := a.out
	serialOpts := endpoint.SerialOptions{
		Device:      cfg.Bridge.Serial.Device,
		Baud:        cfg.Bridge.Serial.Baud,
		ReadTimeout: cfg.Bridge.Serial.ReadTimeout,
	}
	netOpts := endpoint.NetworkOptions{
		Protocol:    cfg.Bridge.Network.Protocol,
		Host:        cfg.Bridge.Network.Host,
		Port:        cfg.Bridge.Network.Port,
		DialTimeout: cfg.Bridge.Network.DialTimeout,
	}

	var statusSrv *status.Server
	if cfg.Status.Enabled {
		statusSrv = status.NewServer(cfg.Status.Listen, version.GetShortVersion(), corelog.Default())
		if err := statusSrv.Start(); err != nil {
			return err
		}
		defer statusSrv.Close()
	}

	openSerial := a.runner.openSerial
	if openSerial == nil {
		openSerial = func(ctx context.Context) (endpoint.Endpoint, error) {
			ep, err := endpoint.OpenSerial(ctx, serialOpts)
			if err != nil {
				return nil, err
			}
			return ep, nil
		}
	}
	openNetwork := a.runner.openNetwork
	if openNetwork == nil {
		openNetwork = func(ctx context.Context) (endpoint.Endpoint, error) {
			ep, err := endpoint.DialNetwork(ctx, netOpts)
			if err != nil {
				return nil, err
			}
			return ep, nil
		}
	}

	out.Plain("Opening serial port %s at %d baud...", serialOpts.Device, serialOpts.Baud)
	out.Plain("Connecting to %s://%s...", netOpts.Protocol, netOpts.Address())

	ctrl := controller.New(controller.Options{
		Network: netOpts,
		Serial:  serialOpts,
		Session: bridge.Options{
			ChunkSize:    cfg.Bridge.ChunkSize,
			IdleBackoff:  cfg.Bridge.IdleBackoff,
			DrainTimeout: cfg.Bridge.DrainTimeout,
			Trace:        cfg.Bridge.Trace,
		},
		OpenNetwork: announce(out, "network", openNetwork),
		OpenSerial:  announce(out, "serial port", openSerial),
		Signals:     a.runner.signals,
		OnSession: func(s *bridge.Session) {
			if statusSrv != nil {
				statusSrv.SetProvider(s)
			}
			out.Header("Bridge Running")
			out.Plain("Press Ctrl+C to stop")
			out.Plain("")
		},
		Logger: corelog.Default(),
	})

	result, err := ctrl.Run(ctx)
	if result == nil {
		return err
	}

	if result.Reason == bridge.ReasonInterrupted {
		out.Plain("")
		out.Plain("Shutting down...")
	}
	printSummary(out, result)
	out.Plain("Bridge stopped.")
	return result.Status()
}

// announce 在端点建立成功或失败时输出一行
func announce(out *cli.Output, what string, open controller.Opener) controller.Opener {
	return func(ctx context.Context) (endpoint.Endpoint, error) {
		ep, err := open(ctx)
		if err != nil {
			// 另一端失败导致的取消不重复报告
			if ctx.Err() == nil {
				out.Error("Failed to open %s: %v", what, err)
			}
			return nil, err
		}
		out.Success("%s ready: %s", what, ep.Label())
		return ep, nil
	}
}

func printSummary(out *cli.Output, result *bridge.Result) {
	switch result.Reason {
	case bridge.ReasonStreamError:
		out.Error("%v", result.Err())
	case bridge.ReasonClosed:
		out.Warning("%s closed by peer", describe(result.First.Direction))
	}
	out.KeyValue("Session", result.ID)
	out.KeyValue(describe(forward.AtoB), cli.FormatBytes(result.AtoB.BytesWritten))
	out.KeyValue(describe(forward.BtoA), cli.FormatBytes(result.BtoA.BytesWritten))
	out.KeyValue("Duration", cli.FormatDuration(result.Duration()))
}

// describe 方向的用户可读名称，A 为网络端，B 为串口端
func describe(d forward.Direction) string {
	if d == forward.AtoB {
		return "Network→Serial"
	}
	return "Serial→Network"
}

func logConfig(l schema.LogConfig) corelog.Config {
	return corelog.Config{
		Level:  l.Level,
		Format: l.Format,
		Output: l.Output,
		File:   l.File,
	}
}
