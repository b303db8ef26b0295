package cmd

import (
	"os/signal"

	"github.com/spf13/cobra"

	"serialbridge/internal/cli"
	"serialbridge/internal/config/loader"
	"serialbridge/internal/config/source"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/transport"
)

func (a *app) clientCommand() *cobra.Command {
	var (
		host     string
		port     int
		protocol string
		greeting string
	)

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Interactive test client for a device-side TCP server",
		Long: `Connect to a TCP server (typically the simulator's serial-over-TCP port),
send a greeting, then alternate between printing received data and
sending one line typed at the send> prompt. Type quit or exit to leave.

Example:
  serialbridge client
  serialbridge client --host 127.0.0.1 --port 9001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loader.NewLoaderBuilder().
				WithConfigFile(a.flags.configFile).
				WithCLI(a.flags.logOverrides(cmd.Flags())).
				WithSkipValidation(true).
				Build().
				Load()
			if err != nil {
				return err
			}

			closer, err := configureLogging(logConfig(cfg.Log))
			if err != nil {
				return err
			}
			defer closer.Close()

			opts := cli.ClientOptions{
				Protocol: transport.ProtocolTCP,
				Host:     cfg.Client.Host,
				Port:     cfg.Client.Port,
				Greeting: cfg.Client.Greeting,
				Output:   a.out,
				Logger:   corelog.Default(),
			}
			fs := cmd.Flags()
			if changed(fs, "host") {
				opts.Host = host
			}
			if changed(fs, "port") {
				opts.Port = port
			}
			if changed(fs, "protocol") {
				opts.Protocol = protocol
			}
			if changed(fs, "greeting") {
				opts.Greeting = greeting
			}

			ctx := cmd.Context()
			if len(a.runner.signals) > 0 {
				var stop func()
				ctx, stop = signal.NotifyContext(ctx, a.runner.signals...)
				defer stop()
			}
			return cli.NewTestClient(opts).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", source.DefaultClientHost, "Server host")
	cmd.Flags().IntVarP(&port, "port", "p", source.DefaultClientPort, "Server port")
	cmd.Flags().StringVar(&protocol, "protocol", transport.ProtocolTCP, "Network protocol: tcp/websocket/kcp/quic")
	cmd.Flags().StringVar(&greeting, "greeting", source.DefaultGreeting, "First message sent after connecting")
	return cmd
}

