package schema

import "time"

// Network protocols understood by the transport registry.
const (
	ProtocolTCP       = "tcp"
	ProtocolWebSocket = "websocket"
	ProtocolKCP       = "kcp"
	ProtocolQUIC      = "quic"
)

// BridgeConfig configures the relay between the network and serial endpoints.
type BridgeConfig struct {
	Serial  SerialConfig  `yaml:"serial" json:"serial"`
	Network NetworkConfig `yaml:"network" json:"network"`

	ChunkSize    int           `yaml:"chunk_size" json:"chunk_size"`       // max bytes per read
	IdleBackoff  time.Duration `yaml:"idle_backoff" json:"idle_backoff"`   // wait after an empty read, 0 = none
	DrainTimeout time.Duration `yaml:"drain_timeout" json:"drain_timeout"` // teardown wait for the surviving direction
	Trace        bool          `yaml:"trace" json:"trace"`                 // log every forwarded chunk
}

// SerialConfig identifies the serial device.
type SerialConfig struct {
	Device      string        `yaml:"device" json:"device"`
	Baud        int           `yaml:"baud" json:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`
}

// NetworkConfig identifies the network peer the bridge connects to.
type NetworkConfig struct {
	Protocol    string        `yaml:"protocol" json:"protocol"`
	Host        string        `yaml:"host" json:"host"`
	Port        int           `yaml:"port" json:"port"`
	DialTimeout time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
}
