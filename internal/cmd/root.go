// Package cmd 提供 serialbridge 的命令框架
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"serialbridge/internal/cli"
	"serialbridge/internal/controller"
	"serialbridge/internal/core/dispose"
	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/version"
)

// app 命令共享的状态，测试可替换输出与端点
type app struct {
	flags  rootFlags
	out    *cli.Output
	stderr io.Writer
	runner bridgeRunner
}

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	return newApp(os.Stdout, os.Stderr).rootCommand()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		out:    cli.NewOutput(stdout, false),
		stderr: stderr,
		runner: bridgeRunner{signals: controller.DefaultSignals},
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "serialbridge",
		Short: "Relay bytes between a TCP endpoint and a serial port",
		Long: `serialbridge connects to a network endpoint and opens a serial device,
then relays bytes in both directions until either side closes or the
process is interrupted.

Typical use is connecting a serial monitor to a simulated device:

  serialbridge --port COM4 --baud 9600 --tcp 1234
  serialbridge -p /dev/ttyUSB0 -b 115200 --host 192.168.1.20 -t 4000`,
		Version:       version.GetVersion(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          a.runBridge,
	}

	a.flags.register(root)
	root.AddCommand(a.clientCommand())
	root.AddCommand(a.versionCommand())
	return root
}

// Execute 执行根命令并返回进程退出码
func Execute() (code int) {
	// 全局 panic recovery
	defer func() {
		if r := recover(); r != nil {
			corelog.Errorf("FATAL: main goroutine panic recovered: %v", r)
			fmt.Fprintf(os.Stderr, "\nPANIC: %v\nStack trace:\n%s\n", r, debug.Stack())
			code = 2
		}
	}()

	a := newApp(os.Stdout, os.Stderr)
	return a.execute(context.Background(), a.rootCommand(), os.Args[1:])
}

func (a *app) execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	root.SetOut(a.out.Writer())
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	code := coreerrors.ExitCode(err)
	if code != 0 {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return code
}

// configureLogging 按配置初始化日志，返回的 Closer 在退出时调用
func configureLogging(cfg corelog.Config) (io.Closer, error) {
	closer, err := corelog.Configure(cfg)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeConfigError, "configure logging")
	}
	dispose.SetLogger(func(level, format string, args ...interface{}) {
		switch level {
		case "error":
			corelog.Errorf(format, args...)
		default:
			corelog.Debugf(format, args...)
		}
	})
	return closer, nil
}
