package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"serialbridge/internal/config/source"
)

// rootFlags 根命令标志，仅显式给出的标志会覆盖配置文件与环境变量
type rootFlags struct {
	configFile string

	device      string
	baud        int
	readTimeout time.Duration

	protocol string
	host     string
	port     int

	chunkSize    int
	idleBackoff  time.Duration
	drainTimeout time.Duration
	trace        bool

	logLevel     string
	logFormat    string
	logFile      string
	statusListen string
}

func (f *rootFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	cmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "Config file path")

	fs.StringVarP(&f.device, "port", "p", source.DefaultDevice(), "Serial port")
	fs.IntVarP(&f.baud, "baud", "b", source.DefaultBaud, "Baud rate")
	fs.DurationVar(&f.readTimeout, "read-timeout", source.DefaultReadTimeout, "Serial read timeout")

	fs.StringVar(&f.protocol, "protocol", "tcp", "Network protocol: tcp/websocket/kcp/quic")
	fs.StringVar(&f.host, "host", source.DefaultHost, "Network host")
	fs.IntVarP(&f.port, "tcp", "t", source.DefaultPort, "Network port")

	fs.IntVar(&f.chunkSize, "chunk-size", source.DefaultChunkSize, "Maximum bytes per read")
	fs.DurationVar(&f.idleBackoff, "idle-backoff", 0, "Wait after an empty read (0 disables)")
	fs.DurationVar(&f.drainTimeout, "drain-timeout", source.DefaultDrainTimeout, "Teardown wait for the surviving direction")
	fs.BoolVar(&f.trace, "trace", false, "Log every forwarded chunk")

	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "Log level: debug/info/warn/error")
	cmd.PersistentFlags().StringVar(&f.logFormat, "log-format", "text", "Log format: text/json")
	cmd.PersistentFlags().StringVar(&f.logFile, "log-file", "", "Write logs to file instead of stderr")
	fs.StringVar(&f.statusListen, "status-listen", "", "Serve /healthz and /status on host:port")
}

func changed(fs *pflag.FlagSet, name string) bool {
	flag := fs.Lookup(name)
	return flag != nil && flag.Changed
}

// logOverrides 只包含根命令上的持久标志，子命令也可使用
func (f *rootFlags) logOverrides(fs *pflag.FlagSet) source.CLIOverrides {
	var o source.CLIOverrides
	if changed(fs, "log-level") {
		o.LogLevel = &f.logLevel
	}
	if changed(fs, "log-format") {
		o.LogFormat = &f.logFormat
	}
	if changed(fs, "log-file") {
		o.LogFile = &f.logFile
	}
	return o
}

// overrides 把显式设置的标志转为 CLIOverrides
func (f *rootFlags) overrides(fs *pflag.FlagSet) source.CLIOverrides {
	o := f.logOverrides(fs)
	set := func(name string) bool { return changed(fs, name) }

	if set("port") {
		o.Device = &f.device
	}
	if set("baud") {
		o.Baud = &f.baud
	}
	if set("read-timeout") {
		o.ReadTimeout = &f.readTimeout
	}
	if set("protocol") {
		o.Protocol = &f.protocol
	}
	if set("host") {
		o.Host = &f.host
	}
	if set("tcp") {
		o.Port = &f.port
	}
	if set("chunk-size") {
		o.ChunkSize = &f.chunkSize
	}
	if set("idle-backoff") {
		o.IdleBackoff = &f.idleBackoff
	}
	if set("drain-timeout") {
		o.DrainTimeout = &f.drainTimeout
	}
	if set("trace") {
		o.Trace = &f.trace
	}
	if set("status-listen") {
		o.StatusListen = &f.statusListen
	}
	return o
}
