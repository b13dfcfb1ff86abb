// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	UserAgent       string        `yaml:"user_agent"`
	Timeout         time.Duration `yaml:"timeout"`
	Proxy           string        `yaml:"proxy"`
	Insecure        bool          `yaml:"insecure"`
	Concurrency     int           `yaml:"concurrency"`
	GuessMap        bool          `yaml:"guess_map"`
	MetricsTextfile string        `yaml:"metrics_textfile"`
}

func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) ApplyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "sourcemap-extract/1.0"
	}
	if c.Timeout == 0 {
		c.Timeout = 25 * time.Second
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d (must be at least 1)", c.Concurrency)
	}
	if c.Proxy != "" {
		if _, err := url.Parse(c.Proxy); err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}
	}
	return nil
}

// ---------- options d'une exécution ----------
type Options struct {
	Target    string
	OutputDir string

	Local         bool
	Detect        bool
	MakeDirectory bool
	// accepté, sans effet : on reste sous la racine
	DangerouslyWritePaths bool

	Verbose bool
	Config  Config
}

func (o *Options) Validate() error {
	if strings.TrimSpace(o.Target) == "" {
		return errors.New("uri_or_file must be set")
	}
	if strings.TrimSpace(o.OutputDir) == "" {
		return errors.New("output_directory must be set")
	}
	if o.Local && o.Detect {
		return errors.New("--detect needs a remote page, it cannot be combined with --local")
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}

	if o.Local {
		fi, err := os.Stat(o.Target)
		if err != nil || !fi.Mode().IsRegular() {
			return fmt.Errorf("uri_or_file %q is set to be a file, but doesn't seem to exist. check your path", o.Target)
		}
	} else {
		u, err := url.Parse(o.Target)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("uri_or_file %q isn't a URI, and --local was not set. set --local?", o.Target)
		}
	}

	fi, err := os.Stat(o.OutputDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !o.MakeDirectory {
			return fmt.Errorf("output directory %q does not exist, use --make-directory to create it", o.OutputDir)
		}
	case err != nil:
		return fmt.Errorf("output directory: %w", err)
	case !fi.IsDir():
		return fmt.Errorf("output directory %q is not a directory", o.OutputDir)
	}
	return nil
}
