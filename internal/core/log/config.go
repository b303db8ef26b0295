package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// 日志格式与输出目标
const (
	FormatText = "text"
	FormatJSON = "json"

	OutputStdout = "stdout"
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Config 日志配置
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Output string `json:"output" yaml:"output"`
	File   string `json:"file" yaml:"file"`
}

// Configure 按配置重建默认 Logger
// 返回的 io.Closer 在输出为文件时关闭该文件，其余情况为空操作
func Configure(cfg Config) (io.Closer, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
		}
		level = parsed
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
		tty    bool
	)
	switch strings.ToLower(cfg.Output) {
	case "", OutputStderr:
		out = os.Stderr
		tty = isTerminal(os.Stderr)
	case OutputStdout:
		out = os.Stdout
		tty = isTerminal(os.Stdout)
	case OutputFile:
		if cfg.File == "" {
			return nil, fmt.Errorf("log output is file but no file path given")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	l := logrus.New()
	l.SetLevel(level)
	l.SetOutput(out)
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
			DisableColors:   !tty,
		})
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	defaultLoggerOnce.Do(initDefaultLogger)
	defaultLoggerMu.Lock()
	defaultLogrus = l
	defaultLogger = NewLogrusLogger(l)
	defaultLoggerMu.Unlock()

	return closer, nil
}

// IsDebugEnabled 默认 Logger 是否输出调试日志
func IsDebugEnabled() bool {
	defaultLoggerOnce.Do(initDefaultLogger)
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogrus != nil && defaultLogrus.IsLevelEnabled(logrus.DebugLevel)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
