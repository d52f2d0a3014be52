// Package config loads the optional YAML settings for a run.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultArtifact       = "cfunge_TURT.svg"
	DefaultArtifactSuffix = "TURT"
	DefaultActualFile     = "actual"
)

type Config struct {
	// Timeout bounds each subprocess; zero disables it.
	Timeout Duration `yaml:"timeout"`
	// IsolateEnv drops the inherited environment for the interpreter.
	IsolateEnv bool              `yaml:"isolate_env"`
	Env        map[string]string `yaml:"env"`
	ActualFile string            `yaml:"actual_file"`
	Artifact   string            `yaml:"artifact"`
	// ArtifactSuffix names the artifact's expectation, <base>.<suffix>.expected.
	ArtifactSuffix string `yaml:"artifact_suffix"`
}

// Duration accepts time.ParseDuration strings such as "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, raw)
	}
	if v < 0 {
		return fmt.Errorf("line %d: negative duration %q", node.Line, raw)
	}
	*d = Duration(v)
	return nil
}

func Default() *Config {
	return &Config{
		ActualFile:     DefaultActualFile,
		Artifact:       DefaultArtifact,
		ArtifactSuffix: DefaultArtifactSuffix,
	}
}

// Load reads path on top of Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.ActualFile == "" {
		return errors.New("actual_file must not be empty")
	}
	if c.Artifact == "" {
		return errors.New("artifact must not be empty")
	}
	if c.ArtifactSuffix == "" || strings.ContainsAny(c.ArtifactSuffix, `/\`) {
		return fmt.Errorf("invalid artifact_suffix %q", c.ArtifactSuffix)
	}
	for k := range c.Env {
		if k == "" || strings.Contains(k, "=") {
			return fmt.Errorf("invalid env name %q", k)
		}
	}
	return nil
}
