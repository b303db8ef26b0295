package source

import (
	"runtime"
	"time"

	"serialbridge/internal/config/schema"
)

// Defaults match the behaviour of the bridge script this tool replaces.
const (
	DefaultBaud         = 9600
	DefaultHost         = "localhost"
	DefaultPort         = 1234
	DefaultChunkSize    = 1024
	DefaultReadTimeout  = time.Second
	DefaultDialTimeout  = 10 * time.Second
	DefaultDrainTimeout = 5 * time.Second

	DefaultStatusListen = "127.0.0.1:9100"

	DefaultClientHost = "127.0.0.1"
	DefaultClientPort = 9001
	DefaultGreeting   = "Hello from python client\r\n"
)

// DefaultDevice returns the platform's usual first serial port.
func DefaultDevice() string {
	if runtime.GOOS == "windows" {
		return "COM4"
	}
	return "/dev/ttyUSB0"
}

// DefaultSource provides default configuration values
type DefaultSource struct{}

// NewDefaultSource creates a new DefaultSource
func NewDefaultSource() *DefaultSource {
	return &DefaultSource{}
}

// Name returns the source name
func (s *DefaultSource) Name() string {
	return "defaults"
}

// Priority returns the source priority
func (s *DefaultSource) Priority() int {
	return PriorityDefaults
}

// LoadInto loads default values into the configuration
func (s *DefaultSource) LoadInto(cfg *schema.Root) error {
	cfg.Bridge.Serial.Device = DefaultDevice()
	cfg.Bridge.Serial.Baud = DefaultBaud
	cfg.Bridge.Serial.ReadTimeout = DefaultReadTimeout

	cfg.Bridge.Network.Protocol = schema.ProtocolTCP
	cfg.Bridge.Network.Host = DefaultHost
	cfg.Bridge.Network.Port = DefaultPort
	cfg.Bridge.Network.DialTimeout = DefaultDialTimeout

	cfg.Bridge.ChunkSize = DefaultChunkSize
	cfg.Bridge.DrainTimeout = DefaultDrainTimeout

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Log.Output = "stderr"

	cfg.Status.Enabled = false
	cfg.Status.Listen = DefaultStatusListen

	cfg.Client.Host = DefaultClientHost
	cfg.Client.Port = DefaultClientPort
	cfg.Client.Greeting = DefaultGreeting

	return nil
}
