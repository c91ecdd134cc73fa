package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment variables this tool reads.
const envPrefix = "TECHDOC_"

// DefaultFilename is the config file looked up in the project root when
// no explicit path is given.
const DefaultFilename = "techdoc.yaml"

// defaultYAML holds every setting with its default value. Loading it
// first means later layers only need to state what they override.
const defaultYAML = `
root: "."
datadir: ".techdoc"
log:
  level: "info"
scan:
  gitignore: true
  extensions: []
  ignores: []
index:
  workers: 0
embedding:
  provider: ""
  apikey: ""
  cachesize: 10000
llm:
  provider: ""
  model: ""
  apikey: ""
  host: "http://localhost:11434"
docs:
  outputdir: ""
`

// Config is the resolved tool configuration. Layers are applied in
// order: defaults, then the YAML file, then TECHDOC_* environment
// variables.
type Config struct {
	Root    string `koanf:"root"`
	DataDir string `koanf:"datadir"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`

	Scan struct {
		Gitignore  bool     `koanf:"gitignore"`
		Extensions []string `koanf:"extensions"`
		Ignores    []string `koanf:"ignores"`
	} `koanf:"scan"`

	Index struct {
		Workers int `koanf:"workers"`
	} `koanf:"index"`

	Embedding struct {
		Provider  string `koanf:"provider"`
		APIKey    string `koanf:"apikey"`
		CacheSize int    `koanf:"cachesize"`
	} `koanf:"embedding"`

	LLM struct {
		Provider string `koanf:"provider"`
		Model    string `koanf:"model"`
		APIKey   string `koanf:"apikey"`
		Host     string `koanf:"host"`
	} `koanf:"llm"`

	Docs struct {
		OutputDir string `koanf:"outputdir"`
	} `koanf:"docs"`
}

// Load resolves configuration from defaults, an optional YAML file, and
// the environment. An explicit path must exist; the default filename is
// only loaded when present.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFilename
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	cfg.Root = abs

	return &cfg, nil
}

// envToKey maps TECHDOC_LLM_MODEL to llm.model.
func envToKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "_", ".")
}

// DataPath returns the tool's state directory under the project root.
func (c *Config) DataPath() string {
	if filepath.IsAbs(c.DataDir) {
		return c.DataDir
	}
	return filepath.Join(c.Root, c.DataDir)
}

// DatabasePath returns the metadata database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataPath(), "metadata.db")
}

// IndexDir returns where the vector index is persisted.
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataPath(), "index")
}

// OutputDir returns the documentation output directory, defaulting to
// docs/ under the project root.
func (c *Config) OutputDir() string {
	if c.Docs.OutputDir != "" {
		if filepath.IsAbs(c.Docs.OutputDir) {
			return c.Docs.OutputDir
		}
		return filepath.Join(c.Root, c.Docs.OutputDir)
	}
	return filepath.Join(c.Root, "docs")
}
