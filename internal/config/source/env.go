package source

import (
	"os"
	"strconv"
	"time"

	"serialbridge/internal/config/schema"
)

// DefaultEnvPrefix is prepended to every variable name, e.g. SERIALBRIDGE_SERIAL_BAUD.
const DefaultEnvPrefix = "SERIALBRIDGE"

// EnvSource loads configuration from environment variables
type EnvSource struct {
	prefix string
}

// NewEnvSource creates a new EnvSource with the specified prefix
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: prefix}
}

// Name returns the source name
func (s *EnvSource) Name() string {
	return "env"
}

// Priority returns the source priority
func (s *EnvSource) Priority() int {
	return PriorityEnv
}

// LoadInto loads environment variables into the config structure
// Malformed numbers and durations are ignored and the previous value is kept
func (s *EnvSource) LoadInto(cfg *schema.Root) error {
	// Serial
	s.loadString("SERIAL_DEVICE", &cfg.Bridge.Serial.Device)
	s.loadInt("SERIAL_BAUD", &cfg.Bridge.Serial.Baud)
	s.loadDuration("SERIAL_READ_TIMEOUT", &cfg.Bridge.Serial.ReadTimeout)

	// Network
	s.loadString("NETWORK_PROTOCOL", &cfg.Bridge.Network.Protocol)
	s.loadString("NETWORK_HOST", &cfg.Bridge.Network.Host)
	s.loadInt("NETWORK_PORT", &cfg.Bridge.Network.Port)
	s.loadDuration("NETWORK_DIAL_TIMEOUT", &cfg.Bridge.Network.DialTimeout)

	// Bridge
	s.loadInt("CHUNK_SIZE", &cfg.Bridge.ChunkSize)
	s.loadDuration("IDLE_BACKOFF", &cfg.Bridge.IdleBackoff)
	s.loadDuration("DRAIN_TIMEOUT", &cfg.Bridge.DrainTimeout)
	s.loadBool("TRACE", &cfg.Bridge.Trace)

	// Log
	s.loadString("LOG_LEVEL", &cfg.Log.Level)
	s.loadString("LOG_FORMAT", &cfg.Log.Format)
	s.loadString("LOG_OUTPUT", &cfg.Log.Output)
	s.loadString("LOG_FILE", &cfg.Log.File)

	// Status
	s.loadBool("STATUS_ENABLED", &cfg.Status.Enabled)
	s.loadString("STATUS_LISTEN", &cfg.Status.Listen)

	// Client
	s.loadString("CLIENT_HOST", &cfg.Client.Host)
	s.loadInt("CLIENT_PORT", &cfg.Client.Port)
	s.loadString("CLIENT_GREETING", &cfg.Client.Greeting)

	return nil
}

// getEnv gets environment variable with the configured prefix
func (s *EnvSource) getEnv(key string) (string, bool) {
	prefixedKey := key
	if s.prefix != "" {
		prefixedKey = s.prefix + "_" + key
	}
	if v := os.Getenv(prefixedKey); v != "" {
		return v, true
	}
	return "", false
}

func (s *EnvSource) loadString(key string, target *string) {
	if v, ok := s.getEnv(key); ok {
		*target = v
	}
}

func (s *EnvSource) loadBool(key string, target *bool) {
	if v, ok := s.getEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func (s *EnvSource) loadInt(key string, target *int) {
	if v, ok := s.getEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

func (s *EnvSource) loadDuration(key string, target *time.Duration) {
	if v, ok := s.getEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}
