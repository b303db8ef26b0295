package source

import (
	"time"

	"serialbridge/internal/config/schema"
)

// CLIOverrides holds flag values; nil fields were not given on the command line.
type CLIOverrides struct {
	Device       *string
	Baud         *int
	ReadTimeout  *time.Duration
	Protocol     *string
	Host         *string
	Port         *int
	ChunkSize    *int
	IdleBackoff  *time.Duration
	DrainTimeout *time.Duration
	Trace        *bool
	LogLevel     *string
	LogFormat    *string
	LogFile      *string
	StatusListen *string
}

// CLISource applies command-line flags with the highest priority
type CLISource struct {
	o CLIOverrides
}

// NewCLISource creates a new CLISource
func NewCLISource(o CLIOverrides) *CLISource {
	return &CLISource{o: o}
}

// Name returns the source name
func (s *CLISource) Name() string {
	return "cli"
}

// Priority returns the source priority
func (s *CLISource) Priority() int {
	return PriorityCLI
}

// LoadInto copies every flag that was set
func (s *CLISource) LoadInto(cfg *schema.Root) error {
	setString(s.o.Device, &cfg.Bridge.Serial.Device)
	setInt(s.o.Baud, &cfg.Bridge.Serial.Baud)
	setDuration(s.o.ReadTimeout, &cfg.Bridge.Serial.ReadTimeout)
	setString(s.o.Protocol, &cfg.Bridge.Network.Protocol)
	setString(s.o.Host, &cfg.Bridge.Network.Host)
	setInt(s.o.Port, &cfg.Bridge.Network.Port)
	setInt(s.o.ChunkSize, &cfg.Bridge.ChunkSize)
	setDuration(s.o.IdleBackoff, &cfg.Bridge.IdleBackoff)
	setDuration(s.o.DrainTimeout, &cfg.Bridge.DrainTimeout)
	if s.o.Trace != nil {
		cfg.Bridge.Trace = *s.o.Trace
	}
	setString(s.o.LogLevel, &cfg.Log.Level)
	setString(s.o.LogFormat, &cfg.Log.Format)
	if s.o.LogFile != nil && *s.o.LogFile != "" {
		cfg.Log.File = *s.o.LogFile
		cfg.Log.Output = "file"
	}
	if s.o.StatusListen != nil && *s.o.StatusListen != "" {
		cfg.Status.Listen = *s.o.StatusListen
		cfg.Status.Enabled = true
	}
	return nil
}

func setString(v *string, target *string) {
	if v != nil {
		*target = *v
	}
}

func setInt(v *int, target *int) {
	if v != nil {
		*target = *v
	}
}

func setDuration(v *time.Duration, target *time.Duration) {
	if v != nil {
		*target = *v
	}
}
