package schema

// StatusConfig configures the read-only HTTP status server.
type StatusConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen"`
}

// ClientConfig configures the interactive test client.
type ClientConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Greeting string `yaml:"greeting" json:"greeting"`
}
