// Package config loads the generator configuration: the target macro map,
// the identifier skip list and macro overrides. Built-in defaults are
// embedded and user files extend them.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the merged configuration.
type Config struct {
	// Targets maps target-only macro names to Go build constraint
	// expressions.
	Targets map[string]string `yaml:"targets"`

	// Undefined lists macros known to be absent for Go bindings. They
	// evaluate to false in defined() and to 0 in #if arithmetic.
	Undefined []string `yaml:"undefined"`

	// Defines are predefined object-like macros given as C text.
	Defines map[string]string `yaml:"defines"`

	// Overrides replace a macro's value with Go code.
	Overrides map[string]string `yaml:"overrides"`

	// Skip lists calling-convention and attribute macros the parser drops.
	Skip []string `yaml:"skip"`
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	var cfg Config
	if err := decode(bytes.NewReader(defaultsYAML), &cfg); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return &cfg, nil
}

// Load returns the defaults extended by the given files. Empty paths are
// ignored.
func Load(paths ...string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		var user Config
		err = decode(f, &user)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg.Merge(&user)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Merge adds o to c. Map entries in o replace those in c and list entries
// are appended once.
func (c *Config) Merge(o *Config) {
	c.Targets = mergeMap(c.Targets, o.Targets)
	c.Defines = mergeMap(c.Defines, o.Defines)
	c.Overrides = mergeMap(c.Overrides, o.Overrides)
	c.Undefined = mergeList(c.Undefined, o.Undefined)
	c.Skip = mergeList(c.Skip, o.Skip)
}

func mergeMap(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func mergeList(dst, src []string) []string {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

func (c *Config) validate() error {
	for _, name := range c.Undefined {
		if _, ok := c.Targets[name]; ok {
			return fmt.Errorf("macro %s is both a target macro and undefined", name)
		}
	}
	for _, name := range c.TargetNames() {
		if c.Targets[name] == "" {
			return fmt.Errorf("target macro %s has an empty build constraint", name)
		}
	}
	return nil
}

// TargetNames returns the target macro names in sorted order.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SkipSet returns the skip list as a set.
func (c *Config) SkipSet() map[string]bool {
	set := make(map[string]bool, len(c.Skip))
	for _, s := range c.Skip {
		set[s] = true
	}
	return set
}
