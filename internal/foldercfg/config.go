// Package foldercfg fetches, parses and caches the per-project folder
// configuration document.
package foldercfg

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoConfig means no folder config exists on any tried branch. Callers
// treat this as "project has no configuration", never as a failure.
var ErrNoConfig = errors.New("no folder config")

// Folder is one user-declared group of workflow filenames.
type Folder struct {
	Name      string   `json:"name"`
	Workflows []string `json:"workflows"`
}

// Config is the folder configuration document. Folder order is declaration
// order and is significant: when two folders claim the same filename the
// later declaration wins.
type Config struct {
	Folders []Folder `json:"folders"`
}

// Parse decodes a folder config document. Fields beyond folders/name/
// workflows are ignored. A document that is not valid JSON, or whose folders
// carry an empty name, is rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse folder config: %w", err)
	}
	for i, f := range cfg.Folders {
		if f.Name == "" {
			return nil, fmt.Errorf("parse folder config: folders[%d] has empty name", i)
		}
	}
	return &cfg, nil
}

// Validate reports non-fatal defects: filenames claimed by more than one
// folder. Duplicate claims are legal (the later folder wins) but almost
// always unintended, so they surface as warnings rather than errors.
func (c *Config) Validate() []string {
	claimed := make(map[string]string) // filename -> folder that claimed it
	var warnings []string
	for _, f := range c.Folders {
		for _, w := range f.Workflows {
			if prev, ok := claimed[w]; ok && prev != f.Name {
				warnings = append(warnings,
					fmt.Sprintf("workflow %q listed in folder %q and folder %q; the later folder wins", w, prev, f.Name))
			}
			claimed[w] = f.Name
		}
	}
	return warnings
}

// Names returns folder names in declaration order.
func (c *Config) Names() []string {
	out := make([]string, 0, len(c.Folders))
	for _, f := range c.Folders {
		out = append(out, f.Name)
	}
	return out
}
