// Package schema defines the strongly-typed configuration tree.
package schema

// Root is the top-level configuration.
type Root struct {
	Bridge BridgeConfig `yaml:"bridge" json:"bridge"`
	Log    LogConfig    `yaml:"log" json:"log"`
	Status StatusConfig `yaml:"status" json:"status"`
	Client ClientConfig `yaml:"client" json:"client"`
}
