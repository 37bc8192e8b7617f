package seed

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} references expanded before parsing
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Loader reads the seed file
type Loader struct {
	filePath string
}

// NewLoader creates a seed loader
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Path returns the seed file path
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the seed file
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	data = expandEnv(data)

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return &f, nil
}

// expandEnv replaces ${VAR} with the variable's value; unset variables become empty
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
