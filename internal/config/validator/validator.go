// Package validator provides configuration validation
package validator

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"serialbridge/internal/config/schema"
	"serialbridge/internal/transport"
)

const (
	maxChunkSize = 1 << 20

	// termios VTIME is a byte of deciseconds
	minReadTimeout = 100 * time.Millisecond
	maxReadTimeout = 25500 * time.Millisecond
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string // Field path (e.g., "bridge.serial.baud")
	Value   string
	Message string
	Hint    string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains all validation errors
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a formatted error message
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n\n")
	for i, err := range r.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Field))
		if err.Value != "" {
			sb.WriteString(fmt.Sprintf("     Current value: %s\n", err.Value))
		}
		sb.WriteString(fmt.Sprintf("     Error: %s\n", err.Message))
		if err.Hint != "" {
			sb.WriteString(fmt.Sprintf("     Hint: %s\n", err.Hint))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// AddError adds a validation error
func (r *ValidationResult) AddError(field, value, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Hint:    hint,
	})
}

// ValidationRule is a function that validates configuration
type ValidationRule func(cfg *schema.Root, result *ValidationResult)

// Validator validates configuration
type Validator struct {
	rules []ValidationRule
}

// NewValidator creates a new Validator with default rules
func NewValidator() *Validator {
	v := &Validator{}
	v.AddRule(validateSerial)
	v.AddRule(validateNetwork)
	v.AddRule(validateBridge)
	v.AddRule(validateLog)
	v.AddRule(validateStatus)
	return v
}

// AddRule adds a validation rule
func (v *Validator) AddRule(rule ValidationRule) {
	v.rules = append(v.rules, rule)
}

// Validate validates the configuration
func (v *Validator) Validate(cfg *schema.Root) *ValidationResult {
	result := &ValidationResult{}
	for _, rule := range v.rules {
		rule(cfg, result)
	}
	return result
}

// ValidateConfig is a convenience function that creates a validator and validates
func ValidateConfig(cfg *schema.Root) *ValidationResult {
	return NewValidator().Validate(cfg)
}

// ============================================================================
// Validation Rules
// ============================================================================

func validateSerial(cfg *schema.Root, result *ValidationResult) {
	s := cfg.Bridge.Serial
	if strings.TrimSpace(s.Device) == "" {
		result.AddError("bridge.serial.device", "", "device is required",
			"Pass --port, e.g. --port COM4 or --port /dev/ttyUSB0")
	}
	if s.Baud <= 0 {
		result.AddError("bridge.serial.baud", fmt.Sprintf("%d", s.Baud), "baud must be positive",
			"Use a standard rate such as 9600 or 115200")
	}
	if s.ReadTimeout < minReadTimeout || s.ReadTimeout > maxReadTimeout {
		result.AddError("bridge.serial.read_timeout", s.ReadTimeout.String(),
			fmt.Sprintf("read_timeout must be between %s and %s", minReadTimeout, maxReadTimeout),
			"The default of 1s suits most devices")
	}
}

func validateNetwork(cfg *schema.Root, result *ValidationResult) {
	n := cfg.Bridge.Network
	if !transport.IsProtocolAvailable(n.Protocol) {
		result.AddError("bridge.network.protocol", n.Protocol, "unknown or disabled protocol",
			"Available: "+strings.Join(transport.GetAvailableProtocolNames(), ", "))
	}
	validateHost("bridge.network.host", n.Host, result)
	validatePort("bridge.network.port", n.Port, result)
	if n.DialTimeout < 0 {
		result.AddError("bridge.network.dial_timeout", n.DialTimeout.String(), "dial_timeout must not be negative", "")
	}
}

func validateBridge(cfg *schema.Root, result *ValidationResult) {
	b := cfg.Bridge
	if b.ChunkSize < 1 || b.ChunkSize > maxChunkSize {
		result.AddError("bridge.chunk_size", fmt.Sprintf("%d", b.ChunkSize),
			fmt.Sprintf("chunk_size must be between 1 and %d", maxChunkSize), "The default is 1024")
	}
	if b.IdleBackoff < 0 || b.IdleBackoff > time.Second {
		result.AddError("bridge.idle_backoff", b.IdleBackoff.String(),
			"idle_backoff must be between 0 and 1s", "Use 10ms for polling-only transports, 0 otherwise")
	}
	if b.DrainTimeout <= 0 {
		result.AddError("bridge.drain_timeout", b.DrainTimeout.String(), "drain_timeout must be positive", "The default is 5s")
	}
}

func validateLog(cfg *schema.Root, result *ValidationResult) {
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		result.AddError("log.level", cfg.Log.Level, "invalid log level",
			"Use one of: debug, info, warn, error")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		result.AddError("log.format", cfg.Log.Format, "invalid log format", "Use text or json")
	}
	switch cfg.Log.Output {
	case "stderr", "stdout":
	case "file":
		if cfg.Log.File == "" {
			result.AddError("log.file", "", "file is required when output is file", "Pass --log-file")
		}
	default:
		result.AddError("log.output", cfg.Log.Output, "invalid log output", "Use stderr, stdout or file")
	}
}

func validateStatus(cfg *schema.Root, result *ValidationResult) {
	if !cfg.Status.Enabled {
		return
	}
	if _, _, err := net.SplitHostPort(cfg.Status.Listen); err != nil {
		result.AddError("status.listen", cfg.Status.Listen, "listen must be host:port", "e.g. 127.0.0.1:9100")
	}
}

func validatePort(field string, port int, result *ValidationResult) {
	if port < 1 || port > 65535 {
		result.AddError(field, fmt.Sprintf("%d", port), "port must be between 1 and 65535", "")
	}
}

func validateHost(field, host string, result *ValidationResult) {
	if strings.TrimSpace(host) == "" {
		result.AddError(field, "", "host is required", "e.g. localhost")
	}
}
