package source

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"serialbridge/internal/config/schema"
	corelog "serialbridge/internal/core/log"
)

// DotEnvSource loads .env files into the process environment.
// Values are picked up by EnvSource, which runs at a higher priority;
// variables already present in the environment are never overwritten.
type DotEnvSource struct {
	dirs []string
}

// NewDotEnvSource creates a new DotEnvSource
func NewDotEnvSource(dirs []string) *DotEnvSource {
	return &DotEnvSource{dirs: dirs}
}

// Name returns the source name
func (s *DotEnvSource) Name() string {
	return "dotenv"
}

// Priority returns the source priority
func (s *DotEnvSource) Priority() int {
	return PriorityDotEnv
}

// LoadInto loads .env and .env.local from every directory
func (s *DotEnvSource) LoadInto(_ *schema.Root) error {
	for _, dir := range s.dirs {
		for _, file := range []string{".env", ".env.local"} {
			path := filepath.Join(dir, file)
			if err := loadEnvFile(path); err != nil {
				corelog.Debugf("Failed to load %s: %v", path, err)
			}
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			corelog.Warnf("Failed to set env var %s from %s: %v", key, path, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	corelog.Debugf("Loaded env file: %s", path)
	return nil
}

// parseEnvLine parses KEY=VALUE, skipping blanks, comments and an optional "export ".
func parseEnvLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return "", "", false
	}

	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true
}

// FindDotEnvDirs finds directories that might contain .env files
func FindDotEnvDirs(configFile string) []string {
	var dirs []string

	if configFile != "" {
		if dir := filepath.Dir(configFile); dir != "" && dir != "." {
			dirs = append(dirs, dir)
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	return dirs
}
