// Package runconfig loads the optional ember.yaml run configuration that
// controls the REPL prompt and the two debug toggles from the core spec
// (trace execution, disassemble chunks).
package runconfig

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of ember.yaml. When the file is absent,
// Trace and Disassemble are false and Prompt is DefaultPrompt.
type Config struct {
	Trace       bool   `yaml:"trace"`
	Disassemble bool   `yaml:"disassemble"`
	Prompt      string `yaml:"prompt"`
}

// DefaultPrompt is used when the file is absent or leaves Prompt empty.
const DefaultPrompt = "> "

// Load reads path and parses it as a Config. A missing file is not an
// error: Load returns the zero Config with DefaultPrompt filled in.
func Load(path string) (Config, error) {
	cfg := Config{Prompt: DefaultPrompt}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	return cfg, nil
}
