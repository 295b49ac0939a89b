// Package vep orchestrates the external variant annotator subprocess.
package vep

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Config is the declarative annotator invocation: the tool path and
// its arguments, loaded from a JSON file. Argument values may contain
// {placeholder} references resolved per job from a values map.
//
// Argument rendering rules:
//   - bool true renders the bare flag, false drops it
//   - string/number renders flag followed by the expanded value
//   - list renders the flag repeated once per element
type Config struct {
	Command string                     `json:"command"`
	Args    map[string]json.RawMessage `json:"args"`
}

// LoadConfig reads an invocation config from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annotator config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse annotator config: %w", err)
	}
	if cfg.Command == "" {
		return nil, fmt.Errorf("annotator config %s: command is required", path)
	}
	return &cfg, nil
}

// BuildArgs renders the argument list with placeholders expanded from
// values. Flags are emitted in sorted order so the command line is
// reproducible.
func (c *Config) BuildArgs(values map[string]string) ([]string, error) {
	flags := make([]string, 0, len(c.Args))
	for flag := range c.Args {
		flags = append(flags, flag)
	}
	sort.Strings(flags)

	var args []string
	for _, flag := range flags {
		rendered, err := renderArg(flag, c.Args[flag], values)
		if err != nil {
			return nil, err
		}
		args = append(args, rendered...)
	}
	return args, nil
}

func renderArg(flag string, raw json.RawMessage, values map[string]string) ([]string, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return []string{flag}, nil
		}
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{flag, expand(s, values)}, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return []string{flag, n.String()}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		var args []string
		for _, item := range list {
			args = append(args, flag, expand(item, values))
		}
		return args, nil
	}

	return nil, fmt.Errorf("annotator config: unsupported value for flag %s", flag)
}

// expand replaces {key} placeholders with entries from values.
// Unknown placeholders are left untouched.
func expand(s string, values map[string]string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	pairs := make([]string, 0, 2*len(values))
	for key, value := range values {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
